package capture

import "math"

// NormalizeOptions control conversion of a raw channel into the canonical
// 8-bit interleaved RGB buffer.
type NormalizeOptions struct {
	// SwapRB exchanges the red and blue samples of every pixel, for
	// sensors that deliver BGR order.
	SwapRB bool
	// Stretch16 maps each channel's observed 16-bit range onto [0,255]
	// instead of truncating to the high byte. Sensor data rarely spans the
	// full 16-bit range, so truncation alone produces a too-dark image.
	Stretch16 bool
}

// DefaultCandidateWidths lists sensor-typical image widths tried by
// dimension inference, widest first.
var DefaultCandidateWidths = []int{2064, 1920, 1544, 1280, 1032, 1024, 800, 772, 640}

// InferDimensions recovers width and height from a pixel count by testing
// the candidate widths and accepting the first that divides evenly with a
// positive height. This is a best-effort heuristic: resolutions outside
// the candidate list, or distinct resolutions sharing a pixel count, make
// it fail or pick the first match. Unresolved dimensions are a capture
// failure; no further guessing happens.
func InferDimensions(pixels int, widths []int) (width, height int, ok bool) {
	if pixels <= 0 {
		return 0, 0, false
	}
	if len(widths) == 0 {
		widths = DefaultCandidateWidths
	}
	for _, w := range widths {
		if w > 0 && pixels%w == 0 {
			return w, pixels / w, true
		}
	}
	return 0, 0, false
}

// ChannelDimensions returns the channel's declared dimensions, falling
// back to inference from the sample count (3 samples per pixel).
func ChannelDimensions(ch Channel, widths []int) (width, height int, ok bool) {
	if ch.Width > 0 && ch.Height > 0 {
		return ch.Width, ch.Height, true
	}
	return InferDimensions(ch.Samples()/3, widths)
}

// Normalize converts a raw image channel into dst, the canonical RGB
// buffer of length width*height*3. When the payload is shorter than the
// requested dimensions only the available prefix is converted and the rest
// of dst is left untouched; callers that care must pre-zero pooled
// buffers. Truncated conversion is acceptable degraded output, not an
// error.
func Normalize(dst []byte, ch Channel, width, height int, opts NormalizeOptions) {
	if len(ch.U16) > 0 {
		normalize16(dst, ch.U16, width, height, opts)
		return
	}
	normalize8(dst, ch.U8, width, height, opts.SwapRB)
}

func normalize8(dst, src []byte, width, height int, swapRB bool) {
	pixels := width * height
	if have := len(src) / 3; have < pixels {
		pixels = have
	}
	if have := len(dst) / 3; have < pixels {
		pixels = have
	}
	if !swapRB {
		copy(dst, src[:pixels*3])
		return
	}
	for i := 0; i < pixels; i++ {
		dst[i*3] = src[i*3+2]
		dst[i*3+1] = src[i*3+1]
		dst[i*3+2] = src[i*3]
	}
}

func normalize16(dst []byte, src []uint16, width, height int, opts NormalizeOptions) {
	pixels := width * height
	if have := len(src) / 3; have < pixels {
		pixels = have
	}
	if have := len(dst) / 3; have < pixels {
		pixels = have
	}
	if pixels == 0 {
		return
	}

	if !opts.Stretch16 {
		for i := 0; i < pixels; i++ {
			r := byte(src[i*3] >> 8)
			g := byte(src[i*3+1] >> 8)
			b := byte(src[i*3+2] >> 8)
			if opts.SwapRB {
				r, b = b, r
			}
			dst[i*3] = r
			dst[i*3+1] = g
			dst[i*3+2] = b
		}
		return
	}

	// Per-invocation range stretch: min/max are computed from the actual
	// frame so the mapping adapts to lighting with no persisted
	// calibration.
	var minv, maxv [3]uint16
	for c := 0; c < 3; c++ {
		minv[c] = math.MaxUint16
	}
	for i := 0; i < pixels; i++ {
		for c := 0; c < 3; c++ {
			v := src[i*3+c]
			if v < minv[c] {
				minv[c] = v
			}
			if v > maxv[c] {
				maxv[c] = v
			}
		}
	}

	var scale [3]float64
	for c := 0; c < 3; c++ {
		if maxv[c] > minv[c] {
			scale[c] = 255.0 / float64(maxv[c]-minv[c])
		} else {
			// Flat channel: scale 1 avoids a divide by zero and maps the
			// constant value (== min) to 0.
			scale[c] = 1.0
		}
	}

	for i := 0; i < pixels; i++ {
		var out [3]byte
		for c := 0; c < 3; c++ {
			v := math.Round(float64(src[i*3+c]-minv[c]) * scale[c])
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out[c] = byte(v)
		}
		if opts.SwapRB {
			out[0], out[2] = out[2], out[0]
		}
		dst[i*3] = out[0]
		dst[i*3+1] = out[1]
		dst[i*3+2] = out[2]
	}
}
