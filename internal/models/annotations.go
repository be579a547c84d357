package models

// Segment annotations embedded in a CVSX archive as annotations.json.
// Items reference external structure databases (pdb, afdb) or a
// MolViewSpec state by URL (mvs).

type AnnotationItem struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
}

type SegmentAnnotation struct {
	SegmentID   string           `json:"segment_id"`
	Annotations []AnnotationItem `json:"annotations"`
}

type EntryAnnotations struct {
	EntryID            string              `json:"entry_id"`
	SegmentAnnotations []SegmentAnnotation `json:"segment_annotations"`
}
