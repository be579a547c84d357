package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ExtractCVSX unpacks the raw CVSX archive into the working directory's
// resources tree.
type ExtractCVSX struct{}

func (s *ExtractCVSX) Name() string { return "ExtractCVSX" }

func (s *ExtractCVSX) Run(ctx *Context) error {
	dest := filepath.Join(ctx.Config.OutputPath, resourcesDir)
	names, err := extractArchive(ctx.Config.InputPath, dest)
	if err != nil {
		return err
	}
	ctx.extracted = names
	return nil
}

// TransformToInternal classifies the extracted resources and builds the
// internal model. Lattice segmentations become meshes or volumes depending
// on the lattice_to_mesh option.
type TransformToInternal struct{}

func (s *TransformToInternal) Name() string { return "TransformToInternal" }

func (s *TransformToInternal) Run(ctx *Context) error {
	if len(ctx.extracted) == 0 {
		return fmt.Errorf("no extracted resources")
	}

	model := &InternalModel{
		SchemaVersion: internalSchemaVersion,
		Name:          strings.TrimSuffix(filepath.Base(ctx.Config.InputPath), filepath.Ext(ctx.Config.InputPath)),
		LatticeToMesh: ctx.Config.LatticeToMesh,
	}

	for _, name := range ctx.extracted {
		full := filepath.Join(ctx.Config.OutputPath, resourcesDir, filepath.FromSlash(name))
		info, err := os.Stat(full)
		if err != nil {
			return fmt.Errorf("failed to stat resource %s: %w", name, err)
		}
		model.Resources = append(model.Resources, InternalResource{
			Path:      path.Join(resourcesDir, name),
			Kind:      resourceKind(name, ctx.Config.LatticeToMesh),
			SizeBytes: info.Size(),
		})
	}

	ctx.Model = model
	return nil
}

func resourceKind(name string, latticeToMesh bool) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".lattice":
		if latticeToMesh {
			return KindMesh
		}
		return KindVolume
	case ".cif", ".bcif", ".pdb":
		return KindStructure
	case ".json":
		return KindAnnotation
	default:
		return KindResource
	}
}

// LoadInternal writes the internal.json manifest next to the resources.
type LoadInternal struct{}

func (s *LoadInternal) Name() string { return "LoadInternal" }

func (s *LoadInternal) Run(ctx *Context) error {
	if ctx.Model == nil {
		return fmt.Errorf("no internal model to write")
	}
	data, err := json.MarshalIndent(ctx.Model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	manifestPath := filepath.Join(ctx.Config.OutputPath, ManifestName)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
