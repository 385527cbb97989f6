package capture

import "math"

// DefaultMaxCoordinate is the default magnitude guard for point
// coordinates, in the sensor's length unit. Values beyond it are treated
// as corrupt-data spikes.
const DefaultMaxCoordinate float32 = 1e4

// ValidPoint reports whether an (x,y,z) triplet is a usable return. A
// point is rejected if any coordinate is NaN or infinite, if all three are
// exactly zero (the sensor's "no return" convention), or if any magnitude
// exceeds maxMagnitude (when positive). The checks are independent; any
// one failing invalidates the point.
func ValidPoint(x, y, z, maxMagnitude float32) bool {
	for _, v := range [3]float32{x, y, z} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		if maxMagnitude > 0 && (v > maxMagnitude || v < -maxMagnitude) {
			return false
		}
	}
	if x == 0 && y == 0 && z == 0 {
		return false
	}
	return true
}

// FilterCloud compacts xyz (flat XYZ triplets) down to only valid points,
// preserving original order, and compacts the parallel rgb color triplets
// alongside when provided. Compaction happens in place over the input
// backing arrays, so the caller must own them. Zero valid points yields
// empty output, not an error.
func FilterCloud(xyz []float32, rgb []byte, maxMagnitude float32) ([]float32, []byte) {
	points := len(xyz) / 3
	hasColor := len(rgb) >= points*3

	kept := 0
	for i := 0; i < points; i++ {
		x, y, z := xyz[i*3], xyz[i*3+1], xyz[i*3+2]
		if !ValidPoint(x, y, z, maxMagnitude) {
			continue
		}
		if kept != i {
			xyz[kept*3] = x
			xyz[kept*3+1] = y
			xyz[kept*3+2] = z
			if hasColor {
				copy(rgb[kept*3:kept*3+3], rgb[i*3:i*3+3])
			}
		}
		kept++
	}

	out := xyz[:kept*3]
	if !hasColor {
		return out, nil
	}
	return out, rgb[:kept*3]
}
