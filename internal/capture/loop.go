package capture

import (
	"context"
	"time"

	"github.com/banshee-data/cloudcapture/internal/monitoring"
)

// LoopConfig configures the capture loop.
type LoopConfig struct {
	// FrameRate is the target capture rate in frames per second; <= 0
	// free-runs.
	FrameRate float64
	// MaxFrames stops the loop after that many iterations; <= 0 runs
	// until the context is cancelled.
	MaxFrames int

	// OutputDir receives the image and cloud files.
	OutputDir string
	// ImageExt is the encoder's file extension (".png").
	ImageExt string
	// StartSeq is the first sequence number to assign (see NextSequence).
	StartSeq int

	// ImagePriority and CloudPriority order the channel candidates, most
	// preferred first. Nil selects the defaults.
	ImagePriority []ChannelID
	CloudPriority []ChannelID

	// Normalize controls raw-to-canonical pixel conversion.
	Normalize NormalizeOptions
	// CandidateWidths feeds dimension inference; nil selects the default
	// sensor-typical list.
	CandidateWidths []int

	// MaxCoordinate is the point-magnitude guard; 0 selects
	// DefaultMaxCoordinate.
	MaxCoordinate float32

	// PopulateTimeout bounds the wait for a triggered frame's channels to
	// appear; PollInterval is the poll spacing within that budget.
	PopulateTimeout time.Duration
	PollInterval    time.Duration

	// Corrector optionally white-balances and gamma-corrects canonical
	// buffers. Nil disables correction.
	Corrector *ColorCorrector

	// LogInterval spaces the periodic progress log lines; <= 0 disables
	// them.
	LogInterval time.Duration
}

// Loop is the pipeline orchestrator: it triggers frames at the paced
// cadence, resolves and normalizes the color channel, filters the cloud,
// and enqueues completed jobs for the writers. All normalization and
// filtering runs synchronously on the capture goroutine.
type Loop struct {
	src   Source
	queue *JobQueue
	pool  *BufferPool
	stats *Stats
	pacer *Pacer
	cfg   LoopConfig

	seq int
}

// NewLoop assembles a capture loop. Zero-valued config fields take their
// documented defaults.
func NewLoop(src Source, queue *JobQueue, pool *BufferPool, stats *Stats, cfg LoopConfig) *Loop {
	if cfg.ImagePriority == nil {
		cfg.ImagePriority = DefaultImagePriority
	}
	if cfg.CloudPriority == nil {
		cfg.CloudPriority = DefaultCloudPriority
	}
	if cfg.CandidateWidths == nil {
		cfg.CandidateWidths = DefaultCandidateWidths
	}
	if cfg.MaxCoordinate == 0 {
		cfg.MaxCoordinate = DefaultMaxCoordinate
	}
	if cfg.PopulateTimeout <= 0 {
		cfg.PopulateTimeout = 2 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	if cfg.ImageExt == "" {
		cfg.ImageExt = ".png"
	}
	return &Loop{
		src:   src,
		queue: queue,
		pool:  pool,
		stats: stats,
		pacer: NewPacer(cfg.FrameRate),
		cfg:   cfg,
		seq:   cfg.StartSeq,
	}
}

// Run captures frames until the context is cancelled or MaxFrames is
// reached, then closes the queue so the writers can drain and exit. Every
// failure mode short of losing the sensor connection is per-frame: count
// it, skip the frame, keep the cadence.
func (l *Loop) Run(ctx context.Context) error {
	if l.cfg.LogInterval > 0 {
		logCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go l.logProgress(logCtx)
	}

	defer l.queue.Close()

	for n := 0; l.cfg.MaxFrames <= 0 || n < l.cfg.MaxFrames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		l.captureOne(ctx)
		l.pacer.Wait(start)
	}
	return nil
}

// NextSeq returns the sequence number the next enqueued frame would get.
func (l *Loop) NextSeq() int { return l.seq }

func (l *Loop) captureOne(ctx context.Context) {
	index, err := l.src.TriggerFrame()
	if err != nil {
		l.stats.Failed.Add(1)
		monitoring.Logf("trigger failed: %v", err)
		return
	}

	frame, ch, ok := l.waitForFrame(ctx, index)
	if !ok {
		l.stats.Failed.Add(1)
		monitoring.Logf("frame %d: no usable color channel within %v", index, l.cfg.PopulateTimeout)
		return
	}

	width, height, ok := ChannelDimensions(ch, l.cfg.CandidateWidths)
	if !ok {
		l.stats.Failed.Add(1)
		monitoring.Logf("frame %d: cannot infer dimensions from %d samples", index, ch.Samples())
		return
	}

	buf := l.pool.Rent(width * height * 3)
	Normalize(buf, ch, width, height, l.cfg.Normalize)
	if l.cfg.Corrector.Enabled() {
		l.cfg.Corrector.Apply(buf, width, height)
	}

	var cloud []float32
	var colors []byte
	hasCloud := false
	if cc, _, found := ResolveChannel(frame, l.cfg.CloudPriority); found {
		var rgb []byte
		if colorCh, present := frame.Channel(ChannelCloudRGB); present {
			rgb = colorCh.U8
		}
		cloud, colors = FilterCloud(cc.F32, rgb, l.cfg.MaxCoordinate)
		hasCloud = len(cloud) > 0
	}
	if hasCloud {
		l.stats.CloudHits.Add(1)
	} else {
		l.stats.CloudMisses.Add(1)
	}

	l.stats.Captured.Add(1)

	job := &Job{
		Seq:       l.seq,
		Image:     buf,
		Width:     width,
		Height:    height,
		ImagePath: ImagePath(l.cfg.OutputDir, l.seq, l.cfg.ImageExt),
		HasCloud:  hasCloud,
		Cloud:     cloud,
		Colors:    colors,
		CloudPath: CloudPath(l.cfg.OutputDir, l.seq),
	}
	if l.queue.TryEnqueue(job) {
		l.stats.Enqueued.Add(1)
		l.seq++
	} else {
		// Backpressure: forfeit this frame rather than stall acquisition.
		l.stats.Dropped.Add(1)
		l.pool.Return(buf)
	}
}

// waitForFrame polls for the triggered frame until its color channel
// populates or the wait budget runs out.
func (l *Loop) waitForFrame(ctx context.Context, index int64) (Frame, Channel, bool) {
	deadline := time.Now().Add(l.cfg.PopulateTimeout)
	for {
		if frame, ready := l.src.Frame(index); ready {
			if ch, _, found := ResolveChannel(frame, l.cfg.ImagePriority); found {
				return frame, ch, true
			}
		}
		if time.Now().After(deadline) {
			return Frame{}, Channel{}, false
		}
		select {
		case <-ctx.Done():
			return Frame{}, Channel{}, false
		case <-time.After(l.cfg.PollInterval):
		}
	}
}

// logProgress emits a one-line rate summary at the configured interval.
func (l *Loop) logProgress(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.LogInterval)
	defer ticker.Stop()

	prev := l.stats.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := l.stats.Snapshot()
			secs := l.cfg.LogInterval.Seconds()
			monitoring.Logf("capture stats (/sec): %.1f captured, %.1f images, %.1f clouds; queue %d/%d; totals: %d dropped, %d failed",
				float64(snap.Captured-prev.Captured)/secs,
				float64(snap.SavedImages-prev.SavedImages)/secs,
				float64(snap.SavedClouds-prev.SavedClouds)/secs,
				l.queue.Depth(), l.queue.Capacity(),
				snap.Dropped, snap.Failed)
			prev = snap
		}
	}
}
