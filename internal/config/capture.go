// Package config loads the capture tool's JSON configuration. The file
// schema uses pointer fields so partial configs are safe: anything omitted
// keeps its default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CaptureConfig mirrors the JSON config file. Nil means "not set".
type CaptureConfig struct {
	FrameRate     *float64 `json:"frame_rate,omitempty"`
	MaxFrames     *int     `json:"max_frames,omitempty"`
	OutputDir     *string  `json:"output_dir,omitempty"`
	Writers       *int     `json:"writers,omitempty"`
	QueueCapacity *int     `json:"queue_capacity,omitempty"`

	// Normalization
	SwapRB          *bool `json:"swap_rb,omitempty"`
	Stretch16       *bool `json:"stretch_16bit,omitempty"`
	CandidateWidths []int `json:"candidate_widths,omitempty"`

	// Cloud handling
	MaxCoordinate *float64 `json:"max_coordinate,omitempty"`
	Orientation   *string  `json:"orientation,omitempty"`

	// Color correction
	WhiteBalance         *bool    `json:"white_balance,omitempty"`
	WhiteBalanceStrength *float64 `json:"white_balance_strength,omitempty"`
	Gamma                *float64 `json:"gamma,omitempty"`
	Gain                 *float64 `json:"gain,omitempty"`

	// Timing (duration strings like "2s", "5ms")
	PopulateTimeout *string `json:"populate_timeout,omitempty"`
	PollInterval    *string `json:"poll_interval,omitempty"`

	// Reporting / index
	DBPath      *string `json:"db_path,omitempty"`
	MonitorAddr *string `json:"monitor_addr,omitempty"`
}

// Settings is the fully resolved configuration the pipeline consumes.
type Settings struct {
	FrameRate     float64
	MaxFrames     int
	OutputDir     string
	Writers       int
	QueueCapacity int

	SwapRB          bool
	Stretch16       bool
	CandidateWidths []int

	MaxCoordinate float64
	Orientation   string

	WhiteBalance         bool
	WhiteBalanceStrength float64
	Gamma                float64
	Gain                 float64

	PopulateTimeout time.Duration
	PollInterval    time.Duration

	DBPath      string
	MonitorAddr string
}

// Defaults returns the baseline settings.
func Defaults() Settings {
	return Settings{
		FrameRate:            5,
		MaxFrames:            0,
		OutputDir:            "captures",
		Writers:              2,
		QueueCapacity:        8,
		Orientation:          "identity",
		MaxCoordinate:        1e4,
		WhiteBalanceStrength: 0.5,
		Gamma:                1,
		Gain:                 1,
		PopulateTimeout:      2 * time.Second,
		PollInterval:         5 * time.Millisecond,
	}
}

// Load reads a CaptureConfig from a JSON file. The path must have a .json
// extension and the file must be under 1MB; both guards follow the same
// policy as runtime parameter uploads.
func Load(path string) (*CaptureConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg CaptureConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// Apply overlays the set fields of c onto s.
func (c *CaptureConfig) Apply(s *Settings) error {
	if c == nil {
		return nil
	}
	if c.FrameRate != nil {
		s.FrameRate = *c.FrameRate
	}
	if c.MaxFrames != nil {
		s.MaxFrames = *c.MaxFrames
	}
	if c.OutputDir != nil {
		s.OutputDir = *c.OutputDir
	}
	if c.Writers != nil {
		s.Writers = *c.Writers
	}
	if c.QueueCapacity != nil {
		s.QueueCapacity = *c.QueueCapacity
	}
	if c.SwapRB != nil {
		s.SwapRB = *c.SwapRB
	}
	if c.Stretch16 != nil {
		s.Stretch16 = *c.Stretch16
	}
	if len(c.CandidateWidths) > 0 {
		s.CandidateWidths = append([]int(nil), c.CandidateWidths...)
	}
	if c.MaxCoordinate != nil {
		s.MaxCoordinate = *c.MaxCoordinate
	}
	if c.Orientation != nil {
		s.Orientation = *c.Orientation
	}
	if c.WhiteBalance != nil {
		s.WhiteBalance = *c.WhiteBalance
	}
	if c.WhiteBalanceStrength != nil {
		s.WhiteBalanceStrength = *c.WhiteBalanceStrength
	}
	if c.Gamma != nil {
		s.Gamma = *c.Gamma
	}
	if c.Gain != nil {
		s.Gain = *c.Gain
	}
	if c.PopulateTimeout != nil {
		d, err := time.ParseDuration(*c.PopulateTimeout)
		if err != nil {
			return fmt.Errorf("populate_timeout: %w", err)
		}
		s.PopulateTimeout = d
	}
	if c.PollInterval != nil {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		s.PollInterval = d
	}
	if c.DBPath != nil {
		s.DBPath = *c.DBPath
	}
	if c.MonitorAddr != nil {
		s.MonitorAddr = *c.MonitorAddr
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if s.Writers < 1 {
		return fmt.Errorf("writers must be >= 1, got %d", s.Writers)
	}
	if s.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be >= 1, got %d", s.QueueCapacity)
	}
	if s.WhiteBalanceStrength < 0 || s.WhiteBalanceStrength > 1 {
		return fmt.Errorf("white_balance_strength must be in [0,1], got %g", s.WhiteBalanceStrength)
	}
	if s.Gamma <= 0 {
		return fmt.Errorf("gamma must be > 0, got %g", s.Gamma)
	}
	if s.Gain < 0 {
		return fmt.Errorf("gain must be >= 0, got %g", s.Gain)
	}
	if s.PopulateTimeout <= 0 {
		return fmt.Errorf("populate_timeout must be positive")
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	for _, w := range s.CandidateWidths {
		if w <= 0 {
			return fmt.Errorf("candidate_widths entries must be positive, got %d", w)
		}
	}
	return nil
}
