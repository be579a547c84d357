// Package pipeline runs the dataset conversion as an ordered sequence of
// named extract/transform/load stages against a per-invocation working
// directory. The runner holds no state across invocations.
package pipeline

import (
	"fmt"
)

// Config describes one pipeline invocation. For the ingest direction
// InputPath is the raw CVSX file and OutputPath the working directory the
// internal model is written into; for the export direction InputPath is the
// directory holding the internal model and OutputPath the artifact file.
type Config struct {
	InputPath     string
	OutputPath    string
	LatticeToMesh bool
}

// Context is shared by the stages of one invocation.
type Context struct {
	Config Config

	// Model is the parsed internal representation, populated by the
	// transform stages.
	Model *InternalModel

	extracted []string // paths under OutputPath/resources, relative
	pkg       *exportPackage
}

// Stage is one unit of conversion logic.
type Stage interface {
	Name() string
	Run(ctx *Context) error
}

// Error is a stage failure; it aborts the remaining stages.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes the stages strictly in order, stopping at the first failure.
func (p *Pipeline) Run(ctx *Context) error {
	for _, stage := range p.stages {
		if err := stage.Run(ctx); err != nil {
			return &Error{Stage: stage.Name(), Err: err}
		}
	}
	return nil
}

type Format string

const (
	FormatMVSX    Format = "mvsx"
	FormatMVStory Format = "mvstory"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMVSX, FormatMVStory:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Ingest builds the raw-upload -> internal-model pipeline.
func Ingest() *Pipeline {
	return New(
		&ExtractCVSX{},
		&TransformToInternal{},
		&LoadInternal{},
	)
}

// Export builds the internal-model -> packaged-artifact pipeline for the
// given target format.
func Export(format Format) *Pipeline {
	if format == FormatMVStory {
		return New(
			&ExtractInternal{},
			&TransformToMVStory{},
			&LoadMVStory{},
		)
	}
	return New(
		&ExtractInternal{},
		&TransformToMVSX{},
		&LoadMVSX{},
	)
}
