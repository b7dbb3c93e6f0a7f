package model

// Canonical is the normalized payload handed to the lifecycle registry:
// exactly one of PoseArray or Grid is set. The trolley angle arrays are only
// present for sources that carry them and are indexed by pose position.
type Canonical struct {
	PoseArray *PoseArray
	Grid      *RawGrid

	TrolleyAngles []float64
	HitchAngles   []float64
}

// RawGrid is a grid payload after source-specific adaptation but before the
// decode stage. Data is unsigned wire bytes and may still hold an embedded
// compressed image; the decoder owns that dispatch.
type RawGrid struct {
	Header Header
	Info   GridInfo
	Data   []byte
}

// IsGrid reports whether the canonical payload is a grid.
func (c Canonical) IsGrid() bool {
	return c.Grid != nil
}
