package capture

import (
	"fmt"
	"sync"

	"github.com/banshee-data/cloudcapture/internal/capture/encoder"
	"github.com/banshee-data/cloudcapture/internal/capture/ply"
	"github.com/banshee-data/cloudcapture/internal/fsutil"
	"github.com/banshee-data/cloudcapture/internal/monitoring"
)

// FrameRecorder receives one row per persisted frame, e.g. the sqlite
// capture index. Implementations must tolerate concurrent calls.
type FrameRecorder interface {
	RecordFrame(seq int, imagePath, cloudPath string, points int) error
}

// Writers is the persistence stage: N workers draining the job queue,
// each job producing an image file and, when a cloud is present, a
// point-cloud file. The two writes are independent; failure of one never
// prevents the other, and both failures are counted rather than
// propagated so a single bad frame cannot stop the pipeline.
type Writers struct {
	Queue       *JobQueue
	Pool        *BufferPool
	Encoder     encoder.Encoder
	FS          fsutil.FileSystem
	Stats       *Stats
	Orientation ply.Orientation

	// Recorder is optional; nil disables the capture index.
	Recorder FrameRecorder

	wg sync.WaitGroup
}

// Start launches n worker goroutines. It must be called once.
func (w *Writers) Start(n int) {
	if n < 1 {
		n = 1
	}
	w.wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer w.wg.Done()
			w.run(id)
		}(i)
	}
}

// Wait blocks until the queue is closed and every queued job has been
// persisted or failed.
func (w *Writers) Wait() {
	w.wg.Wait()
}

func (w *Writers) run(id int) {
	for {
		job, ok := w.Queue.Dequeue()
		if !ok {
			return
		}
		w.process(id, job)
	}
}

func (w *Writers) process(id int, job *Job) {
	// The image buffer goes back to the pool whatever happens below.
	defer w.Pool.Return(job.Image)

	imagePath := ""
	if err := w.writeImage(job); err != nil {
		w.Stats.Failed.Add(1)
		monitoring.Logf("writer %d: image %s: %v", id, job.ImagePath, err)
	} else {
		w.Stats.SavedImages.Add(1)
		imagePath = job.ImagePath
	}

	cloudPath := ""
	points := 0
	if job.HasCloud && len(job.Cloud) > 0 {
		if err := w.writeCloud(job); err != nil {
			w.Stats.Failed.Add(1)
			monitoring.Logf("writer %d: cloud %s: %v", id, job.CloudPath, err)
		} else {
			w.Stats.SavedClouds.Add(1)
			cloudPath = job.CloudPath
			points = len(job.Cloud) / 3
		}
	}

	if w.Recorder != nil && (imagePath != "" || cloudPath != "") {
		if err := w.Recorder.RecordFrame(job.Seq, imagePath, cloudPath, points); err != nil {
			monitoring.Logf("writer %d: index frame %d: %v", id, job.Seq, err)
		}
	}
}

func (w *Writers) writeImage(job *Job) error {
	f, err := w.FS.Create(job.ImagePath)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := w.Encoder.Encode(f, job.Image, job.Width, job.Height); err != nil {
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (w *Writers) writeCloud(job *Job) error {
	f, err := w.FS.Create(job.CloudPath)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := ply.Write(f, job.Cloud, job.Colors, w.Orientation); err != nil {
		f.Close()
		return fmt.Errorf("serialize: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
