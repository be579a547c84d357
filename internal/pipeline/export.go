package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type exportPackage struct {
	files []archiveFile
}

// ExtractInternal loads the internal.json manifest from the input directory
// and verifies that every resource it references is present.
type ExtractInternal struct{}

func (s *ExtractInternal) Name() string { return "ExtractInternal" }

func (s *ExtractInternal) Run(ctx *Context) error {
	data, err := os.ReadFile(filepath.Join(ctx.Config.InputPath, ManifestName))
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	var model InternalModel
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("failed to decode manifest: %w", err)
	}
	if len(model.Resources) == 0 {
		return fmt.Errorf("manifest lists no resources")
	}
	for _, res := range model.Resources {
		full := filepath.Join(ctx.Config.InputPath, filepath.FromSlash(res.Path))
		if _, err := os.Stat(full); err != nil {
			return fmt.Errorf("missing resource %s: %w", res.Path, err)
		}
	}
	ctx.Model = &model
	return nil
}

// mvsIndex is the entry point document packaged into both export formats.
type mvsIndex struct {
	Kind     string             `json:"kind"`
	Name     string             `json:"name"`
	Contents []InternalResource `json:"contents"`
}

func stageResources(ctx *Context) []archiveFile {
	files := make([]archiveFile, 0, len(ctx.Model.Resources))
	for _, res := range ctx.Model.Resources {
		files = append(files, archiveFile{
			Name:       res.Path,
			SourcePath: filepath.Join(ctx.Config.InputPath, filepath.FromSlash(res.Path)),
		})
	}
	return files
}

// TransformToMVSX stages a single-state MolViewSpec package.
type TransformToMVSX struct{}

func (s *TransformToMVSX) Name() string { return "TransformToMVSX" }

func (s *TransformToMVSX) Run(ctx *Context) error {
	index, err := json.MarshalIndent(mvsIndex{
		Kind:     "single",
		Name:     ctx.Model.Name,
		Contents: ctx.Model.Resources,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	files := stageResources(ctx)
	files = append(files, archiveFile{Name: "index.mvsj", Data: index})
	ctx.pkg = &exportPackage{files: files}
	return nil
}

// TransformToMVStory stages a multi-scene story package. Each resource of
// the model becomes one scene in declaration order.
type TransformToMVStory struct{}

func (s *TransformToMVStory) Name() string { return "TransformToMVStory" }

type mvStoryScene struct {
	Title    string `json:"title"`
	Resource string `json:"resource"`
	Kind     string `json:"kind"`
}

func (s *TransformToMVStory) Run(ctx *Context) error {
	scenes := make([]mvStoryScene, 0, len(ctx.Model.Resources))
	for _, res := range ctx.Model.Resources {
		scenes = append(scenes, mvStoryScene{
			Title:    res.Path,
			Resource: res.Path,
			Kind:     res.Kind,
		})
	}
	story, err := json.MarshalIndent(struct {
		Kind   string         `json:"kind"`
		Name   string         `json:"name"`
		Scenes []mvStoryScene `json:"scenes"`
	}{
		Kind:   "story",
		Name:   ctx.Model.Name,
		Scenes: scenes,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode story: %w", err)
	}

	files := stageResources(ctx)
	files = append(files, archiveFile{Name: "story.mvsj", Data: story})
	ctx.pkg = &exportPackage{files: files}
	return nil
}

// LoadMVSX writes the staged package as the output artifact.
type LoadMVSX struct{}

func (s *LoadMVSX) Name() string { return "LoadMVSX" }

func (s *LoadMVSX) Run(ctx *Context) error {
	if ctx.pkg == nil {
		return fmt.Errorf("no staged package")
	}
	return writeArchive(ctx.Config.OutputPath, ctx.pkg.files)
}

// LoadMVStory writes the staged story package as the output artifact.
type LoadMVStory struct{}

func (s *LoadMVStory) Name() string { return "LoadMVStory" }

func (s *LoadMVStory) Run(ctx *Context) error {
	if ctx.pkg == nil {
		return fmt.Errorf("no staged package")
	}
	return writeArchive(ctx.Config.OutputPath, ctx.pkg.files)
}
