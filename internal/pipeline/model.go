package pipeline

// Resource kinds of the internal canonical model.
const (
	KindVolume     = "volume"
	KindMesh       = "mesh"
	KindStructure  = "structure"
	KindAnnotation = "annotation"
	KindResource   = "resource"
)

// InternalResource is one file of the internal model, addressed relative to
// the model root.
type InternalResource struct {
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	SizeBytes int64  `json:"size_bytes"`
}

// InternalModel is the manifest written as internal.json next to the
// extracted resources. It is the only contract between the ingest and
// export directions.
type InternalModel struct {
	SchemaVersion int                `json:"schema_version"`
	Name          string             `json:"name"`
	LatticeToMesh bool               `json:"lattice_to_mesh"`
	Resources     []InternalResource `json:"resources"`
}

const (
	internalSchemaVersion = 1

	// ManifestName is the internal model manifest file name.
	ManifestName = "internal.json"

	resourcesDir = "resources"
)
