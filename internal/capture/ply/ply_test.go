package ply

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteReadRoundTrip(t *testing.T) {
	xyz := []float32{1.5, -2.25, 3.75, 0, 0.125, -10}
	rgb := []byte{10, 20, 30, 40, 50, 60}

	var buf bytes.Buffer
	if err := Write(&buf, xyz, rgb, Identity); err != nil {
		t.Fatalf("write: %v", err)
	}

	cloud, hdr, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if hdr.VertexCount != 2 {
		t.Errorf("vertex count = %d, want 2", hdr.VertexCount)
	}
	if diff := cmp.Diff(xyz, cloud.XYZ); diff != "" {
		t.Errorf("coordinates changed across round trip:\n%s", diff)
	}
	if diff := cmp.Diff(rgb, cloud.RGB); diff != "" {
		t.Errorf("colors changed across round trip:\n%s", diff)
	}
}

func TestWriteDefaultColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []float32{1, 2, 3}, nil, Identity); err != nil {
		t.Fatalf("write: %v", err)
	}
	cloud, _, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []byte{255, 255, 255}
	if diff := cmp.Diff(want, cloud.RGB); diff != "" {
		t.Errorf("uncolored point should serialize white:\n%s", diff)
	}
}

func TestWriteEmptyCloud(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, nil, Identity); err != nil {
		t.Fatalf("write: %v", err)
	}
	cloud, hdr, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if hdr.VertexCount != 0 || len(cloud.XYZ) != 0 {
		t.Errorf("empty cloud round trip: count=%d len=%d", hdr.VertexCount, len(cloud.XYZ))
	}
}

func TestOrientationApply(t *testing.T) {
	cases := []struct {
		orient  Orientation
		x, y, z float32
	}{
		{Identity, 1, 2, 3},
		{FlipYZ, 1, -2, -3},
		{FlipXZ, -1, 2, -3},
		{FlipXY, -1, -2, 3},
	}
	for _, tc := range cases {
		t.Run(tc.orient.String(), func(t *testing.T) {
			x, y, z := tc.orient.Apply(1, 2, 3)
			if x != tc.x || y != tc.y || z != tc.z {
				t.Errorf("Apply(1,2,3) = (%g,%g,%g), want (%g,%g,%g)",
					x, y, z, tc.x, tc.y, tc.z)
			}
		})
	}
}

func TestOrientationSerializedNotMutated(t *testing.T) {
	xyz := []float32{1, 2, 3}
	var buf bytes.Buffer
	if err := Write(&buf, xyz, nil, FlipXY); err != nil {
		t.Fatalf("write: %v", err)
	}
	if xyz[0] != 1 || xyz[1] != 2 || xyz[2] != 3 {
		t.Error("Write must not mutate the input slice")
	}
	cloud, _, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []float32{-1, -2, 3}
	if diff := cmp.Diff(want, cloud.XYZ); diff != "" {
		t.Errorf("flip-xy serialization:\n%s", diff)
	}
}

func TestParseOrientation(t *testing.T) {
	for in, want := range map[string]Orientation{
		"":        Identity,
		"identity": Identity,
		"flip-yz": FlipYZ,
		" Flip-XZ ": FlipXZ,
		"flip-xy": FlipXY,
	} {
		got, err := ParseOrientation(in)
		if err != nil || got != want {
			t.Errorf("ParseOrientation(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseOrientation("upside-down"); err == nil {
		t.Error("expected error for unknown orientation")
	}
}

func TestReadRejectsMalformedHeaders(t *testing.T) {
	cases := map[string]string{
		"bad magic":  "png\nformat binary_little_endian 1.0\n",
		"ascii":      "ply\nformat ascii 1.0\nelement vertex 0\n",
		"big endian": "ply\nformat binary_big_endian 1.0\nelement vertex 0\n",
		"no vertex":  "ply\nformat binary_little_endian 1.0\nelement face 3\n",
		"bad count":  "ply\nformat binary_little_endian 1.0\nelement vertex minus\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Read(strings.NewReader(raw)); err == nil {
				t.Error("expected a header error")
			}
		})
	}
}

func TestReadTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []float32{1, 2, 3, 4, 5, 6}, nil, Identity); err != nil {
		t.Fatalf("write: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-8]
	if _, _, err := Read(bytes.NewReader(truncated)); err == nil {
		t.Error("expected an error for a truncated record")
	}
}
