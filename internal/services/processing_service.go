package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"molvis-backend/internal/pipeline"
	"molvis-backend/internal/repository"
	"molvis-backend/internal/storage"
)

// transferConcurrency bounds parallel storage round trips per invocation.
const transferConcurrency = 4

// ProcessingService drives the conversion state machine and the
// export-on-demand path.
type ProcessingService struct {
	entries repository.EntryRepository
	storage storage.Storage
	logger  *slog.Logger
}

func NewProcessingService(entries repository.EntryRepository, store storage.Storage, logger *slog.Logger) *ProcessingService {
	return &ProcessingService{entries: entries, storage: store, logger: logger}
}

// ProcessEntryConversion runs the ingest conversion for one uploaded entry.
// It is invoked once per successful upload, detached from the request.
// Every failure is captured on the entry row; nothing propagates to a
// caller.
//
// Ordering: the processing status is committed before the pipeline starts,
// and the terminal status before the raw temp object is touched, so readers
// can trust what they observe.
func (s *ProcessingService) ProcessEntryConversion(
	ctx context.Context,
	entryID uuid.UUID,
	rawKey string,
	destPrefix string,
	opts ConversionOptions,
) {
	log := s.logger.With("entry_id", entryID)

	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		log.Error("failed to load entry for conversion", "error", err)
		return
	}
	if entry == nil {
		// Deleted before the job ran; nothing to do.
		return
	}

	ok, err := s.entries.MarkProcessing(ctx, entryID)
	if err != nil {
		log.Error("failed to mark entry processing", "error", err)
		return
	}
	if !ok {
		// The pending -> processing update acts as an advisory lock: a
		// second job for the same entry loses here and backs off.
		log.Warn("entry is not pending, skipping conversion", "status", entry.Status)
		return
	}

	if err := s.runConversion(ctx, rawKey, destPrefix, opts); err != nil {
		var convErr *ConversionError
		code := ErrCodeConversionFailed
		if errors.As(err, &convErr) {
			code = convErr.Code
		}
		log.Error("conversion failed", "code", code, "error", err)
		if dbErr := s.entries.MarkFailed(ctx, entryID, code, err.Error()); dbErr != nil {
			log.Error("failed to mark entry failed", "error", dbErr)
		}
		// The raw temp object is left in place for diagnosis.
		return
	}

	if err := s.entries.MarkCompleted(ctx, entryID); err != nil {
		log.Error("failed to mark entry completed", "error", err)
		return
	}

	if _, err := s.storage.Delete(ctx, rawKey); err != nil {
		// The entry is durably completed; a leaked temp object is a
		// cleanup concern, not a correctness one.
		log.Warn("failed to delete raw upload after conversion", "key", rawKey, "error", err)
	}

	log.Info("conversion completed", "prefix", destPrefix)
}

// runConversion is the storage round trip around the ingest pipeline:
// download the raw file into a fresh working directory, run the stages,
// upload everything they produced under destPrefix.
func (s *ProcessingService) runConversion(ctx context.Context, rawKey, destPrefix string, opts ConversionOptions) error {
	workDir, err := os.MkdirTemp("", "molvis-convert-*")
	if err != nil {
		return &ConversionError{Code: ErrCodeConversionFailed, Err: err}
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.cvsx")
	raw, err := s.storage.Get(ctx, rawKey)
	if err != nil {
		return &ConversionError{Code: ErrCodeDownloadFailed, Err: err}
	}
	if err := os.WriteFile(inputPath, raw, 0o644); err != nil {
		return &ConversionError{Code: ErrCodeDownloadFailed, Err: err}
	}

	p := pipeline.Ingest()
	pctx := &pipeline.Context{Config: pipeline.Config{
		InputPath:     inputPath,
		OutputPath:    workDir,
		LatticeToMesh: opts.LatticeToMesh,
	}}
	if err := p.Run(pctx); err != nil {
		return &ConversionError{Code: ErrCodeConversionFailed, Err: err}
	}

	if err := s.uploadOutputs(ctx, workDir, inputPath, destPrefix); err != nil {
		return &ConversionError{Code: ErrCodeUploadFailed, Err: err}
	}
	return nil
}

// uploadOutputs pushes every file the pipeline wrote (everything under
// workDir except the raw input) to storage, preserving relative paths as
// key suffixes.
func (s *ProcessingService) uploadOutputs(ctx context.Context, workDir, inputPath, destPrefix string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)

	err := filepath.WalkDir(workDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == inputPath {
			return nil
		}
		rel, err := filepath.Rel(workDir, p)
		if err != nil {
			return err
		}
		key := destPrefix + "/" + filepath.ToSlash(rel)
		g.Go(func() error {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			if _, err := s.storage.Save(gctx, key, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("failed to upload %s: %w", key, err)
			}
			return nil
		})
		return nil
	})
	if err != nil {
		return err
	}
	return g.Wait()
}

// GenerateExport materializes a downloadable artifact for an entry from its
// stored internal model. The caller owns workDir and releases it after the
// artifact has been streamed out; this path never mutates the entry or its
// stored objects.
func (s *ProcessingService) GenerateExport(ctx context.Context, storagePrefix string, format pipeline.Format, workDir string) (string, error) {
	keys, err := s.storage.ListDirectory(ctx, storagePrefix)
	if err != nil {
		return "", &StorageError{Op: "list", Err: err}
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: no stored model under %s", ErrNotFound, storagePrefix)
	}

	modelDir := filepath.Join(workDir, "model")
	if err := s.downloadPrefix(ctx, keys, storagePrefix, modelDir); err != nil {
		return "", &StorageError{Op: "download", Err: err}
	}

	outputPath := filepath.Join(workDir, "output."+string(format))
	p := pipeline.Export(format)
	pctx := &pipeline.Context{Config: pipeline.Config{
		InputPath:     modelDir,
		OutputPath:    outputPath,
		LatticeToMesh: true,
	}}
	if err := p.Run(pctx); err != nil {
		return "", err
	}
	return outputPath, nil
}

// downloadPrefix mirrors the stored objects into destDir, stripping the
// prefix so relative layout is preserved.
func (s *ProcessingService) downloadPrefix(ctx context.Context, keys []string, prefix, destDir string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)

	for _, key := range keys {
		rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
		if rel == "" {
			continue
		}
		localPath := filepath.Join(destDir, filepath.FromSlash(path.Clean(rel)))
		g.Go(func() error {
			data, err := s.storage.Get(gctx, key)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
				return err
			}
			return os.WriteFile(localPath, data, 0o644)
		})
	}
	return g.Wait()
}
