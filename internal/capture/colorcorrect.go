package capture

import "math"

// ColorCorrector applies optional white balance and gamma/brightness
// correction to canonical RGB buffers. Both corrections are opt-in; a
// disabled corrector's Apply is a no-op.
//
// White balance is calibrated lazily from a spatial subsample of the first
// frame that passes through, then the same per-channel scales apply to
// every later frame. Gamma/gain is a 256-entry lookup table built once at
// construction.
type ColorCorrector struct {
	whiteBalance bool
	strength     float64
	stride       int

	useLUT bool
	lut    [256]byte

	calibrated bool
	scale      [3]float64
}

// ColorCorrectorConfig configures a ColorCorrector.
type ColorCorrectorConfig struct {
	// WhiteBalance enables gray-world white balancing.
	WhiteBalance bool
	// Strength in [0,1] damps the white-balance scales toward 1 to avoid
	// over-correction. 0 disables the effect, 1 applies it fully.
	Strength float64
	// SampleStride samples every Nth row and column during calibration.
	// Zero means the default of 8.
	SampleStride int
	// Gamma and Gain build the lookup table
	// out = clamp(Gain * in^Gamma, 0, 1) * 255. Gamma 1 with Gain 1 (or
	// zero values) disables the table.
	Gamma float64
	Gain  float64
}

// NewColorCorrector builds a corrector from cfg.
func NewColorCorrector(cfg ColorCorrectorConfig) *ColorCorrector {
	c := &ColorCorrector{
		whiteBalance: cfg.WhiteBalance,
		strength:     cfg.Strength,
		stride:       cfg.SampleStride,
		scale:        [3]float64{1, 1, 1},
	}
	if c.stride <= 0 {
		c.stride = 8
	}
	if c.strength < 0 {
		c.strength = 0
	} else if c.strength > 1 {
		c.strength = 1
	}

	gamma, gain := cfg.Gamma, cfg.Gain
	if gamma == 0 {
		gamma = 1
	}
	if gain == 0 {
		gain = 1
	}
	if gamma != 1 || gain != 1 {
		c.useLUT = true
		for i := 0; i < 256; i++ {
			v := gain * math.Pow(float64(i)/255.0, gamma)
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			c.lut[i] = byte(math.Round(v * 255.0))
		}
	}
	return c
}

// Enabled reports whether Apply would modify a buffer.
func (c *ColorCorrector) Enabled() bool {
	return c != nil && (c.whiteBalance || c.useLUT)
}

// Apply corrects buf (canonical RGB, width*height*3) in place. The first
// call with white balance enabled calibrates from buf itself.
func (c *ColorCorrector) Apply(buf []byte, width, height int) {
	if !c.Enabled() {
		return
	}
	if c.whiteBalance && !c.calibrated {
		c.calibrate(buf, width, height)
	}

	applyScale := c.whiteBalance && (c.scale[0] != 1 || c.scale[1] != 1 || c.scale[2] != 1)
	if !applyScale && !c.useLUT {
		return
	}

	pixels := len(buf) / 3
	if wh := width * height; wh < pixels {
		pixels = wh
	}
	for i := 0; i < pixels*3; i++ {
		v := buf[i]
		if applyScale {
			f := float64(v) * c.scale[i%3]
			if f > 255 {
				f = 255
			}
			v = byte(f)
		}
		if c.useLUT {
			v = c.lut[v]
		}
		buf[i] = v
	}
}

// calibrate computes damped gray-world scales from every strideth row and
// column of the frame.
func (c *ColorCorrector) calibrate(buf []byte, width, height int) {
	c.calibrated = true

	var sum [3]float64
	var count float64
	for y := 0; y < height; y += c.stride {
		for x := 0; x < width; x += c.stride {
			idx := (y*width + x) * 3
			if idx+2 >= len(buf) {
				continue
			}
			sum[0] += float64(buf[idx])
			sum[1] += float64(buf[idx+1])
			sum[2] += float64(buf[idx+2])
			count++
		}
	}
	if count == 0 {
		return
	}

	avg := [3]float64{sum[0] / count, sum[1] / count, sum[2] / count}
	gray := (avg[0] + avg[1] + avg[2]) / 3
	for ch := 0; ch < 3; ch++ {
		if avg[ch] <= 0 {
			c.scale[ch] = 1
			continue
		}
		s := gray / avg[ch]
		// Damp toward 1 so a strongly tinted first frame cannot skew the
		// whole session.
		c.scale[ch] = 1 + (s-1)*c.strength
	}
}
