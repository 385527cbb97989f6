package monitoring

import (
	"fmt"
	"strings"
	"testing"
)

func TestSetLoggerRedirects(t *testing.T) {
	defer SetLogger(nil)

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	Logf("saved %d frames", 12)

	if len(lines) != 1 || !strings.Contains(lines[0], "saved 12 frames") {
		t.Fatalf("unexpected log capture: %v", lines)
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("discarded %s", "quietly")

	SetLogger(func(string, ...interface{}) {})
	if Logf == nil {
		t.Fatal("Logf should never be nil")
	}
}
