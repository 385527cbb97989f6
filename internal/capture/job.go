package capture

// Job is the unit handed from the capture loop to persistence. It is
// created once per successfully captured frame, owned by the queue and
// then by whichever writer dequeues it, and its image buffer goes back to
// the pool once persistence attempts complete, successful or not.
type Job struct {
	// Seq is the monotonically increasing capture sequence number used in
	// file names.
	Seq int

	// Image is the canonical RGB buffer (width*height*3), rented from the
	// pool.
	Image  []byte
	Width  int
	Height int
	// ImagePath is the destination for the encoded image.
	ImagePath string

	// HasCloud marks that a usable (non-empty, validated) cloud was
	// produced for this frame.
	HasCloud bool
	// Cloud holds validated XYZ triplets; Colors the paired RGB triplets,
	// nil when the sensor supplied none.
	Cloud  []float32
	Colors []byte
	// CloudPath is the destination for the point-cloud file.
	CloudPath string
}
