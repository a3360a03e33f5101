package model

// PigmentReading is the optional Belief State data type: a sum-normalized
// RGB-like triple with a derived dominant-ideal tag. Construction and
// normalization live in package pigment (which leans on go-colorful); this
// type only carries the values through the rest of the model.
type PigmentReading struct {
	R, G, B       float64
	DominantIdeal string
}
