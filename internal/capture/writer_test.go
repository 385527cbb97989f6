package capture

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/banshee-data/cloudcapture/internal/capture/ply"
	"github.com/banshee-data/cloudcapture/internal/fsutil"
	"github.com/banshee-data/cloudcapture/internal/monitoring"
)

type stubEncoder struct {
	fail bool
}

func (e stubEncoder) Ext() string { return ".img" }

func (e stubEncoder) Encode(w io.Writer, rgb []byte, width, height int) error {
	if e.fail {
		return fmt.Errorf("stub encode failure")
	}
	_, err := w.Write(rgb)
	return err
}

// failCreateFS refuses creates for paths containing a substring.
type failCreateFS struct {
	fsutil.FileSystem
	deny string
}

func (f failCreateFS) Create(name string) (io.WriteCloser, error) {
	if strings.Contains(name, f.deny) {
		return nil, fmt.Errorf("simulated create failure")
	}
	return f.FileSystem.Create(name)
}

func runWriters(t *testing.T, w *Writers, jobs ...*Job) {
	t.Helper()
	for _, j := range jobs {
		if !w.Queue.TryEnqueue(j) {
			t.Fatalf("enqueue seq %d refused", j.Seq)
		}
	}
	w.Queue.Close()
	w.Start(1)
	w.Wait()
}

func TestWritersPersistBothArtifacts(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.MkdirAll("/out", 0755)
	stats := &Stats{}
	pool := NewBufferPool()

	w := &Writers{
		Queue:   NewJobQueue(4),
		Pool:    pool,
		Encoder: stubEncoder{},
		FS:      fs,
		Stats:   stats,
	}
	runWriters(t, w, &Job{
		Seq:       0,
		Image:     []byte{1, 2, 3},
		Width:     1,
		Height:    1,
		ImagePath: "/out/frame_000000.img",
		HasCloud:  true,
		Cloud:     []float32{1, 2, 3},
		Colors:    []byte{9, 9, 9},
		CloudPath: "/out/cloud_000000.ply",
	})

	if !fs.Exists("/out/frame_000000.img") || !fs.Exists("/out/cloud_000000.ply") {
		t.Fatal("expected both artifacts on disk")
	}
	if stats.SavedImages.Load() != 1 || stats.SavedClouds.Load() != 1 {
		t.Errorf("saved counters = %d/%d, want 1/1",
			stats.SavedImages.Load(), stats.SavedClouds.Load())
	}
	if pool.Idle() != 1 {
		t.Errorf("image buffer not returned to pool (idle=%d)", pool.Idle())
	}
}

func TestWritersImageFailureDoesNotBlockCloud(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(prev)

	fs := fsutil.NewMemory()
	fs.MkdirAll("/out", 0755)
	stats := &Stats{}
	pool := NewBufferPool()

	w := &Writers{
		Queue:   NewJobQueue(4),
		Pool:    pool,
		Encoder: stubEncoder{fail: true},
		FS:      fs,
		Stats:   stats,
	}
	runWriters(t, w, &Job{
		Seq:       3,
		Image:     []byte{1, 2, 3},
		Width:     1,
		Height:    1,
		ImagePath: "/out/frame_000003.img",
		HasCloud:  true,
		Cloud:     []float32{4, 5, 6},
		CloudPath: "/out/cloud_000003.ply",
	})

	if stats.SavedImages.Load() != 0 || stats.Failed.Load() != 1 {
		t.Errorf("image failure miscounted: saved=%d failed=%d",
			stats.SavedImages.Load(), stats.Failed.Load())
	}
	if stats.SavedClouds.Load() != 1 {
		t.Error("cloud write must proceed despite image failure")
	}
	if pool.Idle() != 1 {
		t.Error("buffer must return to pool on failure too")
	}
}

func TestWritersCloudFailureDoesNotBlockImage(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(prev)

	mem := fsutil.NewMemory()
	mem.MkdirAll("/out", 0755)
	stats := &Stats{}

	w := &Writers{
		Queue:   NewJobQueue(4),
		Pool:    NewBufferPool(),
		Encoder: stubEncoder{},
		FS:      failCreateFS{FileSystem: mem, deny: ".ply"},
		Stats:   stats,
	}
	runWriters(t, w, &Job{
		Seq:       0,
		Image:     []byte{1, 2, 3},
		Width:     1,
		Height:    1,
		ImagePath: "/out/frame_000000.img",
		HasCloud:  true,
		Cloud:     []float32{1, 2, 3},
		CloudPath: "/out/cloud_000000.ply",
	})

	if stats.SavedImages.Load() != 1 {
		t.Error("image write must proceed despite cloud failure")
	}
	if stats.SavedClouds.Load() != 0 || stats.Failed.Load() != 1 {
		t.Errorf("cloud failure miscounted: saved=%d failed=%d",
			stats.SavedClouds.Load(), stats.Failed.Load())
	}
}

func TestWritersSkipCloudWhenAbsent(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.MkdirAll("/out", 0755)
	stats := &Stats{}

	w := &Writers{
		Queue:   NewJobQueue(4),
		Pool:    NewBufferPool(),
		Encoder: stubEncoder{},
		FS:      fs,
		Stats:   stats,
	}
	runWriters(t, w, &Job{
		Seq:       0,
		Image:     []byte{1, 2, 3},
		Width:     1,
		Height:    1,
		ImagePath: "/out/frame_000000.img",
		HasCloud:  false,
		CloudPath: "/out/cloud_000000.ply",
	})

	if fs.Exists("/out/cloud_000000.ply") {
		t.Error("no cloud file expected for a cloud-miss frame")
	}
	if stats.SavedImages.Load() != 1 || stats.SavedClouds.Load() != 0 {
		t.Errorf("counters = %d/%d, want 1/0",
			stats.SavedImages.Load(), stats.SavedClouds.Load())
	}
}

type countingRecorder struct {
	frames []int
}

func (r *countingRecorder) RecordFrame(seq int, imagePath, cloudPath string, points int) error {
	r.frames = append(r.frames, seq)
	return nil
}

func TestWritersRecordPersistedFrames(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.MkdirAll("/out", 0755)
	rec := &countingRecorder{}

	w := &Writers{
		Queue:    NewJobQueue(4),
		Pool:     NewBufferPool(),
		Encoder:  stubEncoder{},
		FS:       fs,
		Stats:    &Stats{},
		Recorder: rec,
	}
	runWriters(t, w,
		&Job{Seq: 0, Image: []byte{1, 2, 3}, Width: 1, Height: 1, ImagePath: "/out/frame_000000.img"},
		&Job{Seq: 1, Image: []byte{4, 5, 6}, Width: 1, Height: 1, ImagePath: "/out/frame_000001.img"},
	)

	if len(rec.frames) != 2 {
		t.Errorf("recorded %d frames, want 2", len(rec.frames))
	}
}

func TestWritersOrientationAppliedAtWriteTime(t *testing.T) {
	fs := fsutil.NewMemory()
	fs.MkdirAll("/out", 0755)

	w := &Writers{
		Queue:       NewJobQueue(4),
		Pool:        NewBufferPool(),
		Encoder:     stubEncoder{},
		FS:          fs,
		Stats:       &Stats{},
		Orientation: ply.FlipYZ,
	}
	runWriters(t, w, &Job{
		Seq:       0,
		Image:     []byte{1, 2, 3},
		Width:     1,
		Height:    1,
		ImagePath: "/out/frame_000000.img",
		HasCloud:  true,
		Cloud:     []float32{1, 2, 3},
		CloudPath: "/out/cloud_000000.ply",
	})

	r, err := fs.Open("/out/cloud_000000.ply")
	if err != nil {
		t.Fatalf("open cloud: %v", err)
	}
	defer r.Close()
	cloud, _, err := ply.Read(r)
	if err != nil {
		t.Fatalf("read cloud: %v", err)
	}
	want := []float32{1, -2, -3}
	for i, v := range want {
		if cloud.XYZ[i] != v {
			t.Errorf("coord %d = %g, want %g", i, cloud.XYZ[i], v)
		}
	}
}
