package capture

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/cloudcapture/internal/fsutil"
)

// Output file naming: two artifacts per enqueued frame, distinguished by
// sequence number.
const (
	imagePrefix = "frame_"
	cloudPrefix = "cloud_"

	// CloudFileExt is the extension for point-cloud files.
	CloudFileExt = ".ply"
)

// ImagePath returns the image destination for a sequence number.
func ImagePath(dir string, seq int, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s%06d%s", imagePrefix, seq, ext))
}

// CloudPath returns the point-cloud destination for a sequence number.
func CloudPath(dir string, seq int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%06d%s", cloudPrefix, seq, CloudFileExt))
}

// NextSequence scans an output directory and returns the sequence number
// following the highest already present, so an interrupted session resumes
// without overwriting earlier captures. A missing or empty directory
// starts at zero.
func NextSequence(fs fsutil.FileSystem, dir string) int {
	names, err := fs.ReadDirNames(dir)
	if err != nil {
		return 0
	}
	next := 0
	for _, name := range names {
		var rest string
		switch {
		case strings.HasPrefix(name, imagePrefix):
			rest = name[len(imagePrefix):]
		case strings.HasPrefix(name, cloudPrefix):
			rest = name[len(cloudPrefix):]
		default:
			continue
		}
		if dot := strings.IndexByte(rest, '.'); dot > 0 {
			rest = rest[:dot]
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return next
}
