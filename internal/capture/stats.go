package capture

import "sync/atomic"

// Stats tracks the pipeline's running counters. The capture loop and the
// writer workers mutate them concurrently, so every field is atomic.
type Stats struct {
	Captured    atomic.Int64
	Enqueued    atomic.Int64
	Dropped     atomic.Int64
	Failed      atomic.Int64
	SavedImages atomic.Int64
	SavedClouds atomic.Int64
	CloudHits   atomic.Int64
	CloudMisses atomic.Int64
}

// Snapshot is a point-in-time copy of the counters, safe to serialize.
type Snapshot struct {
	Captured    int64 `json:"captured"`
	Enqueued    int64 `json:"enqueued"`
	Dropped     int64 `json:"dropped"`
	Failed      int64 `json:"failed"`
	SavedImages int64 `json:"saved_images"`
	SavedClouds int64 `json:"saved_clouds"`
	CloudHits   int64 `json:"cloud_hits"`
	CloudMisses int64 `json:"cloud_misses"`
}

// Snapshot copies the current counter values. Counters advance
// independently, so the snapshot is only consistent per counter.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Captured:    s.Captured.Load(),
		Enqueued:    s.Enqueued.Load(),
		Dropped:     s.Dropped.Load(),
		Failed:      s.Failed.Load(),
		SavedImages: s.SavedImages.Load(),
		SavedClouds: s.SavedClouds.Load(),
		CloudHits:   s.CloudHits.Load(),
		CloudMisses: s.CloudMisses.Load(),
	}
}
