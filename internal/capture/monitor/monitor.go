// Package monitor exposes live pipeline counters over HTTP: a JSON stats
// endpoint for scripts and a go-echarts chart page for eyeballing capture
// rate and queue depth during a session.
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/cloudcapture/internal/capture"
	"github.com/banshee-data/cloudcapture/internal/httputil"
	"github.com/banshee-data/cloudcapture/internal/monitoring"
)

// maxSamples bounds the in-memory history (10 minutes at 1s sampling).
const maxSamples = 600

type sample struct {
	At    time.Time
	Snap  capture.Snapshot
	Depth int
}

// Server samples pipeline counters and serves them over HTTP. It is an
// observer only: it never touches the queue contents or buffers.
type Server struct {
	stats *capture.Stats
	queue *capture.JobQueue

	mu      sync.Mutex
	samples []sample
}

// New returns a Server observing the given stats and queue.
func New(stats *capture.Stats, queue *capture.JobQueue) *Server {
	return &Server{stats: stats, queue: queue}
}

// Run serves the monitor on addr until the context is cancelled, sampling
// counters once per second.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.sampleLoop(ctx, time.Second)

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	monitoring.Logf("monitor listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) sampleLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.record(sample{At: time.Now(), Snap: s.stats.Snapshot(), Depth: s.queue.Depth()})
		}
	}
}

func (s *Server) record(p sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, p)
	if len(s.samples) > maxSamples {
		s.samples = s.samples[len(s.samples)-maxSamples:]
	}
}

// Handler returns the monitor's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/charts/capture", s.handleCaptureChart)
	mux.HandleFunc("/", s.handleCaptureChart)
	return mux
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := struct {
		capture.Snapshot
		QueueDepth    int `json:"queue_depth"`
		QueueCapacity int `json:"queue_capacity"`
	}{
		Snapshot:      s.stats.Snapshot(),
		QueueDepth:    s.queue.Depth(),
		QueueCapacity: s.queue.Capacity(),
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleCaptureChart renders per-second capture/save rates and queue depth
// from the sampled history.
func (s *Server) handleCaptureChart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	samples := make([]sample, len(s.samples))
	copy(samples, s.samples)
	s.mu.Unlock()

	labels := make([]string, 0, len(samples))
	captured := make([]opts.LineData, 0, len(samples))
	saved := make([]opts.LineData, 0, len(samples))
	depth := make([]opts.LineData, 0, len(samples))
	for i, p := range samples {
		labels = append(labels, p.At.Format("15:04:05"))
		if i == 0 {
			captured = append(captured, opts.LineData{Value: 0})
			saved = append(saved, opts.LineData{Value: 0})
		} else {
			secs := p.At.Sub(samples[i-1].At).Seconds()
			if secs <= 0 {
				secs = 1
			}
			prev := samples[i-1].Snap
			captured = append(captured, opts.LineData{Value: float64(p.Snap.Captured-prev.Captured) / secs})
			saved = append(saved, opts.LineData{Value: float64(p.Snap.SavedImages-prev.SavedImages) / secs})
		}
		depth = append(depth, opts.LineData{Value: p.Depth})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Capture Pipeline", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Capture Pipeline", Subtitle: "per-second rates and queue depth"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(labels).
		AddSeries("captured/s", captured).
		AddSeries("saved images/s", saved).
		AddSeries("queue depth", depth)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		monitoring.Logf("monitor: render chart: %v", err)
	}
}
