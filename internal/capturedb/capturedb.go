// Package capturedb maintains a sqlite index of capture sessions and the
// artifacts persisted for each frame.
package capturedb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// CaptureDB wraps the sqlite handle. sql.DB is safe for concurrent use,
// so writer workers share one instance.
type CaptureDB struct {
	*sql.DB
}

// New opens (creating if needed) the capture index at path and applies
// the schema.
func New(path string) (*CaptureDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open capture index: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply capture index schema: %w", err)
	}
	return &CaptureDB{db}, nil
}

// Summary carries the final counter values recorded when a session ends.
type Summary struct {
	Captured    int64
	Enqueued    int64
	Dropped     int64
	Failed      int64
	SavedImages int64
	SavedClouds int64
	CloudHits   int64
	CloudMisses int64
}

// Session scopes frame rows to one capture run.
type Session struct {
	ID string
	db *CaptureDB
}

// StartSession inserts a session row and returns its handle.
func (db *CaptureDB) StartSession(outputDir string) (*Session, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO capture_sessions (id, output_dir, started_at_ns) VALUES (?, ?, ?)`,
		id, outputDir, time.Now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &Session{ID: id, db: db}, nil
}

// RecordFrame inserts one persisted-frame row. Either path may be empty
// when the corresponding artifact failed to write.
func (s *Session) RecordFrame(seq int, imagePath, cloudPath string, points int) error {
	_, err := s.db.Exec(
		`INSERT INTO capture_frames (session_id, seq, image_path, cloud_path, point_count, saved_at_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, seq, imagePath, cloudPath, points, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record frame %d: %w", seq, err)
	}
	return nil
}

// End stamps the session row with its end time and final counters.
func (s *Session) End(sum Summary) error {
	_, err := s.db.Exec(
		`UPDATE capture_sessions SET ended_at_ns = ?, captured = ?, enqueued = ?, dropped = ?,
		 failed = ?, saved_images = ?, saved_clouds = ?, cloud_hits = ?, cloud_misses = ?
		 WHERE id = ?`,
		time.Now().UnixNano(), sum.Captured, sum.Enqueued, sum.Dropped, sum.Failed,
		sum.SavedImages, sum.SavedClouds, sum.CloudHits, sum.CloudMisses, s.ID,
	)
	if err != nil {
		return fmt.Errorf("end session %s: %w", s.ID, err)
	}
	return nil
}

// FrameCount returns the number of frames indexed for a session.
func (db *CaptureDB) FrameCount(sessionID string) (int, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM capture_frames WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count frames for %s: %w", sessionID, err)
	}
	return n, nil
}
