// Command capture runs the acquisition-to-persistence pipeline: paced
// frame capture from a 3D camera, normalization, point filtering, and
// multi-worker persistence of PNG images and PLY point clouds.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/cloudcapture/internal/capture"
	"github.com/banshee-data/cloudcapture/internal/capture/encoder"
	"github.com/banshee-data/cloudcapture/internal/capture/monitor"
	"github.com/banshee-data/cloudcapture/internal/capture/ply"
	"github.com/banshee-data/cloudcapture/internal/capture/sim"
	"github.com/banshee-data/cloudcapture/internal/capturedb"
	"github.com/banshee-data/cloudcapture/internal/config"
	"github.com/banshee-data/cloudcapture/internal/fsutil"
	"github.com/banshee-data/cloudcapture/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to JSON config file")
	outputDir   = flag.String("out", "", "Output directory (overrides config)")
	maxFrames   = flag.Int("frames", -1, "Stop after N frames; 0 runs until interrupted (overrides config)")
	frameRate   = flag.Float64("rate", 0, "Target capture rate in fps (overrides config)")
	numWriters  = flag.Int("writers", 0, "Writer worker count (overrides config)")
	queueCap    = flag.Int("queue", 0, "Job queue capacity (overrides config)")
	dbPath      = flag.String("db", "", "Capture index sqlite path (overrides config; empty disables)")
	monitorAddr = flag.String("monitor", "", "Monitor HTTP listen address (overrides config; empty disables)")
	devMode     = flag.Bool("dev", false, "Use the synthetic frame source instead of hardware")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// manifest is written next to the captures when a session ends.
type manifest struct {
	SessionID   string           `json:"session_id,omitempty"`
	StartedNs   int64            `json:"started_ns"`
	EndedNs     int64            `json:"ended_ns"`
	OutputDir   string           `json:"output_dir"`
	Orientation string           `json:"orientation"`
	Counters    capture.Snapshot `json:"counters"`
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("capture %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	settings, err := resolveSettings()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	orientation, err := ply.ParseOrientation(settings.Orientation)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var src capture.Source
	if *devMode {
		src = sim.New(sim.Config{
			Width:             640,
			Height:            480,
			DeclareDimensions: true,
			CloudPoints:       5000,
			InvalidEvery:      7,
		})
	} else {
		// Hardware drivers plug in through the capture.Source interface;
		// this build ships only the synthetic source.
		log.Fatal("no hardware frame source in this build; run with -dev")
	}

	// Failure to establish the sensor connection is the one fatal error.
	if err := src.Connect(); err != nil {
		log.Fatalf("sensor connect: %v", err)
	}
	defer src.Disconnect()

	if err := src.StartAcquisition(); err != nil {
		log.Fatalf("start acquisition: %v", err)
	}
	defer src.StopAcquisition()

	fs := fsutil.OS{}
	if err := fs.MkdirAll(settings.OutputDir, 0755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}

	var db *capturedb.CaptureDB
	var session *capturedb.Session
	if settings.DBPath != "" {
		db, err = capturedb.New(settings.DBPath)
		if err != nil {
			log.Fatalf("capture index: %v", err)
		}
		defer db.Close()
		session, err = db.StartSession(settings.OutputDir)
		if err != nil {
			log.Fatalf("capture index: %v", err)
		}
		log.Printf("capture session %s", session.ID)
	}

	stats := &capture.Stats{}
	pool := capture.NewBufferPool()
	queue := capture.NewJobQueue(settings.QueueCapacity)
	enc := encoder.PNG{}

	writers := &capture.Writers{
		Queue:       queue,
		Pool:        pool,
		Encoder:     enc,
		FS:          fs,
		Stats:       stats,
		Orientation: orientation,
	}
	if session != nil {
		writers.Recorder = session
	}

	var corrector *capture.ColorCorrector
	if settings.WhiteBalance || settings.Gamma != 1 || settings.Gain != 1 {
		corrector = capture.NewColorCorrector(capture.ColorCorrectorConfig{
			WhiteBalance: settings.WhiteBalance,
			Strength:     settings.WhiteBalanceStrength,
			Gamma:        settings.Gamma,
			Gain:         settings.Gain,
		})
	}

	loop := capture.NewLoop(src, queue, pool, stats, capture.LoopConfig{
		FrameRate:       settings.FrameRate,
		MaxFrames:       settings.MaxFrames,
		OutputDir:       settings.OutputDir,
		ImageExt:        enc.Ext(),
		StartSeq:        capture.NextSequence(fs, settings.OutputDir),
		Normalize:       capture.NormalizeOptions{SwapRB: settings.SwapRB, Stretch16: settings.Stretch16},
		CandidateWidths: settings.CandidateWidths,
		MaxCoordinate:   float32(settings.MaxCoordinate),
		PopulateTimeout: settings.PopulateTimeout,
		PollInterval:    settings.PollInterval,
		Corrector:       corrector,
		LogInterval:     5 * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if settings.MonitorAddr != "" {
		mon := monitor.New(stats, queue)
		go func() {
			if err := mon.Run(ctx, settings.MonitorAddr); err != nil {
				log.Printf("monitor: %v", err)
			}
		}()
	}

	started := time.Now()
	log.Printf("capturing to %s (rate %.1f fps, %d writers, queue %d)",
		settings.OutputDir, settings.FrameRate, settings.Writers, settings.QueueCapacity)

	writers.Start(settings.Writers)
	runErr := loop.Run(ctx)
	writers.Wait()

	snap := stats.Snapshot()
	if session != nil {
		if err := session.End(capturedb.Summary{
			Captured:    snap.Captured,
			Enqueued:    snap.Enqueued,
			Dropped:     snap.Dropped,
			Failed:      snap.Failed,
			SavedImages: snap.SavedImages,
			SavedClouds: snap.SavedClouds,
			CloudHits:   snap.CloudHits,
			CloudMisses: snap.CloudMisses,
		}); err != nil {
			log.Printf("capture index: %v", err)
		}
	}

	if err := writeManifest(fs, settings.OutputDir, session, started, orientation, snap); err != nil {
		log.Printf("manifest: %v", err)
	}

	log.Printf("done in %s: %d captured, %d images, %d clouds, %d dropped, %d failed",
		time.Since(started).Round(time.Millisecond),
		snap.Captured, snap.SavedImages, snap.SavedClouds, snap.Dropped, snap.Failed)

	if runErr != nil && runErr != context.Canceled {
		log.Fatalf("capture loop: %v", runErr)
	}
}

func resolveSettings() (config.Settings, error) {
	settings := config.Defaults()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return settings, err
		}
		if err := cfg.Apply(&settings); err != nil {
			return settings, err
		}
	}

	// Flags beat the config file.
	if *outputDir != "" {
		settings.OutputDir = *outputDir
	}
	if *maxFrames >= 0 {
		settings.MaxFrames = *maxFrames
	}
	if *frameRate > 0 {
		settings.FrameRate = *frameRate
	}
	if *numWriters > 0 {
		settings.Writers = *numWriters
	}
	if *queueCap > 0 {
		settings.QueueCapacity = *queueCap
	}
	if *dbPath != "" {
		settings.DBPath = *dbPath
	}
	if *monitorAddr != "" {
		settings.MonitorAddr = *monitorAddr
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func writeManifest(fs fsutil.FileSystem, dir string, session *capturedb.Session, started time.Time, orientation ply.Orientation, snap capture.Snapshot) error {
	m := manifest{
		StartedNs:   started.UnixNano(),
		EndedNs:     time.Now().UnixNano(),
		OutputDir:   dir,
		Orientation: orientation.String(),
		Counters:    snap,
	}
	if session != nil {
		m.SessionID = session.ID
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return fs.WriteFile(filepath.Join(dir, "capture_manifest.json"), data, 0644)
}
