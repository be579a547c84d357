package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
)

// registerDeflate swaps archive/zip's default deflate for the klauspost
// implementation.
func registerDeflate(w *zip.Writer) {
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})
}

// extractArchive unpacks the zip at archivePath into destDir and returns the
// extracted file names relative to destDir, sorted.
func extractArchive(archivePath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.ToSlash(f.Name)
		if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
			return nil, fmt.Errorf("archive member has unsafe path %q", f.Name)
		}

		dest := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}

		src, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive member %s: %w", name, err)
		}
		out, err := os.Create(dest)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create %s: %w", name, err)
		}
		_, err = io.Copy(out, src)
		src.Close()
		out.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", name, err)
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("archive contains no files")
	}
	sort.Strings(names)
	return names, nil
}

// archiveFile is one member of an output package: either in-memory data or
// a file on disk (exactly one of Data/SourcePath is set).
type archiveFile struct {
	Name       string
	Data       []byte
	SourcePath string
}

// writeArchive packages files into a zip at outputPath. Members are written
// in sorted name order with zeroed timestamps so the output is byte-stable
// for identical inputs.
func writeArchive(outputPath string, files []archiveFile) error {
	sorted := make([]archiveFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	registerDeflate(w)

	for _, f := range sorted {
		hdr := &zip.FileHeader{
			Name:   f.Name,
			Method: zip.Deflate,
		}
		member, err := w.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", f.Name, err)
		}
		if f.SourcePath != "" {
			src, err := os.Open(f.SourcePath)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", f.SourcePath, err)
			}
			_, err = io.Copy(member, src)
			src.Close()
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", f.Name, err)
			}
			continue
		}
		if _, err := member.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
