// Package sim provides a deterministic in-process frame source so the
// capture binary and its tests can run without sensor hardware.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/cloudcapture/internal/capture"
)

// Config shapes the synthetic frames.
type Config struct {
	// Width and Height of the generated image channel.
	Width  int
	Height int

	// DeclareDimensions controls whether the channel carries its
	// dimensions; false exercises the inference fallback.
	DeclareDimensions bool

	// SixteenBit emits a 16-bit color_raw channel instead of 8-bit color.
	SixteenBit bool
	// TextureOnly populates only the texture channel.
	TextureOnly bool

	// CloudPoints is the number of generated points; 0 omits the cloud
	// channel entirely.
	CloudPoints int
	// InvalidEvery marks every Nth point (indices 0, N, 2N, ...) as an
	// all-zero "no return"; 0 keeps every point valid.
	InvalidEvery int
	// OmitCloudColor drops the cloud_rgb channel.
	OmitCloudColor bool

	// ReadyDelay is how long after a trigger the frame appears.
	ReadyDelay time.Duration
	// TriggerFailEvery makes every Nth trigger fail; 0 never fails.
	TriggerFailEvery int
	// FailConnect makes Connect return an error, for exercising the one
	// fatal path.
	FailConnect bool
}

// Source is a synthetic capture.Source. Frames are generated on demand
// from their index, so every fetched frame owns fresh payload slices.
type Source struct {
	cfg Config

	mu        sync.Mutex
	connected bool
	acquiring bool
	triggers  int
	pending   map[int64]time.Time
	next      int64
}

// New returns a disconnected synthetic source.
func New(cfg Config) *Source {
	if cfg.Width <= 0 {
		cfg.Width = 64
	}
	if cfg.Height <= 0 {
		cfg.Height = 48
	}
	return &Source{cfg: cfg, pending: make(map[int64]time.Time)}
}

func (s *Source) Connect() error {
	if s.cfg.FailConnect {
		return fmt.Errorf("simulated connection failure")
	}
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *Source) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Source) StartAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return fmt.Errorf("not connected")
	}
	s.acquiring = true
	return nil
}

func (s *Source) TriggerFrame() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acquiring {
		return -1, fmt.Errorf("acquisition not started")
	}
	s.triggers++
	if n := s.cfg.TriggerFailEvery; n > 0 && s.triggers%n == 0 {
		return -1, fmt.Errorf("simulated trigger failure")
	}
	index := s.next
	s.next++
	s.pending[index] = time.Now()
	return index, nil
}

func (s *Source) Frame(index int64) (capture.Frame, bool) {
	s.mu.Lock()
	at, ok := s.pending[index]
	s.mu.Unlock()
	if !ok {
		return capture.Frame{}, false
	}
	if time.Since(at) < s.cfg.ReadyDelay {
		return capture.Frame{}, false
	}
	return s.generate(index), true
}

func (s *Source) StopAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false
	return nil
}

func (s *Source) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.acquiring = false
	return nil
}

// generate builds a frame deterministically from its index.
func (s *Source) generate(index int64) capture.Frame {
	w, h := s.cfg.Width, s.cfg.Height
	declW, declH := 0, 0
	if s.cfg.DeclareDimensions {
		declW, declH = w, h
	}

	frame := capture.Frame{Channels: make(map[capture.ChannelID]capture.Channel)}

	switch {
	case s.cfg.SixteenBit:
		px := make([]uint16, w*h*3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 3
				px[i] = uint16((x*1021 + int(index)) & 0xffff)
				px[i+1] = uint16((y * 977) & 0xffff)
				px[i+2] = uint16(((x + y) * 499) & 0xffff)
			}
		}
		frame.Channels[capture.ChannelColorRaw] = capture.Channel{U16: px, Width: declW, Height: declH}
	case s.cfg.TextureOnly:
		frame.Channels[capture.ChannelTexture] = s.imageChannel(index, declW, declH)
	default:
		frame.Channels[capture.ChannelColor] = s.imageChannel(index, declW, declH)
	}

	if n := s.cfg.CloudPoints; n > 0 {
		xyz := make([]float32, n*3)
		rgb := make([]byte, n*3)
		for i := 0; i < n; i++ {
			if s.cfg.InvalidEvery > 0 && i%s.cfg.InvalidEvery == 0 {
				// Leave the all-zero "no return" triplet.
			} else {
				xyz[i*3] = 0.01 * float32(i+1)
				xyz[i*3+1] = 0.02 * float32(i+1)
				xyz[i*3+2] = 0.5 + 0.001*float32(index)
			}
			rgb[i*3] = byte(i)
			rgb[i*3+1] = byte(i * 2)
			rgb[i*3+2] = byte(255 - i)
		}
		frame.Channels[capture.ChannelCloud] = capture.Channel{F32: xyz}
		if !s.cfg.OmitCloudColor {
			frame.Channels[capture.ChannelCloudRGB] = capture.Channel{U8: rgb}
		}
	}

	return frame
}

func (s *Source) imageChannel(index int64, declW, declH int) capture.Channel {
	w, h := s.cfg.Width, s.cfg.Height
	px := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			px[i] = byte((x*7 + int(index)) & 0xff)
			px[i+1] = byte((y * 11) & 0xff)
			px[i+2] = byte(((x + y) * 13) & 0xff)
		}
	}
	return capture.Channel{U8: px, Width: declW, Height: declH}
}
