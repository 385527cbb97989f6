package capturedb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *CaptureDB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)

	sess, err := db.StartSession("/tmp/captures")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	require.NoError(t, sess.RecordFrame(0, "/tmp/captures/frame_000000.png", "/tmp/captures/cloud_000000.ply", 120))
	require.NoError(t, sess.RecordFrame(1, "/tmp/captures/frame_000001.png", "", 0))

	n, err := db.FrameCount(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, sess.End(Summary{
		Captured:    2,
		Enqueued:    2,
		SavedImages: 2,
		SavedClouds: 1,
		CloudHits:   1,
		CloudMisses: 1,
	}))

	var captured, savedClouds int64
	var endedAt *int64
	err = db.QueryRow(
		`SELECT captured, saved_clouds, ended_at_ns FROM capture_sessions WHERE id = ?`, sess.ID,
	).Scan(&captured, &savedClouds, &endedAt)
	require.NoError(t, err)
	require.EqualValues(t, 2, captured)
	require.EqualValues(t, 1, savedClouds)
	require.NotNil(t, endedAt)
}

func TestSessionsAreIsolated(t *testing.T) {
	db := openTestDB(t)

	a, err := db.StartSession("/a")
	require.NoError(t, err)
	b, err := db.StartSession("/b")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	require.NoError(t, a.RecordFrame(0, "/a/frame_000000.png", "", 0))
	require.NoError(t, a.RecordFrame(1, "/a/frame_000001.png", "", 0))
	require.NoError(t, b.RecordFrame(0, "/b/frame_000000.png", "", 0))

	na, err := db.FrameCount(a.ID)
	require.NoError(t, err)
	nb, err := db.FrameCount(b.ID)
	require.NoError(t, err)
	require.Equal(t, 2, na)
	require.Equal(t, 1, nb)
}

func TestSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.db")

	db1, err := New(path)
	require.NoError(t, err)
	sess, err := db1.StartSession("/out")
	require.NoError(t, err)
	require.NoError(t, sess.RecordFrame(0, "/out/frame_000000.png", "", 0))
	require.NoError(t, db1.Close())

	// Reopening applies the schema again and must not disturb rows.
	db2, err := New(path)
	require.NoError(t, err)
	defer db2.Close()
	n, err := db2.FrameCount(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
