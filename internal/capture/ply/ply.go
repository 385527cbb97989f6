// Package ply reads and writes the binary point-cloud files produced by
// the capture pipeline: PLY format, binary little-endian, one record of
// float x,y,z plus uchar red,green,blue per point.
package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Orientation selects the axis flip applied while serializing, correcting
// for a viewer convention mismatch. It changes only the sign of already
// validated coordinates, never which points are kept.
type Orientation int

const (
	// Identity writes coordinates unchanged.
	Identity Orientation = iota
	// FlipYZ negates y and z.
	FlipYZ
	// FlipXZ negates x and z.
	FlipXZ
	// FlipXY negates x and y.
	FlipXY
)

// ParseOrientation maps a config string to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity":
		return Identity, nil
	case "flip-yz":
		return FlipYZ, nil
	case "flip-xz":
		return FlipXZ, nil
	case "flip-xy":
		return FlipXY, nil
	}
	return Identity, fmt.Errorf("unknown orientation %q (want identity, flip-yz, flip-xz or flip-xy)", s)
}

func (o Orientation) String() string {
	switch o {
	case FlipYZ:
		return "flip-yz"
	case FlipXZ:
		return "flip-xz"
	case FlipXY:
		return "flip-xy"
	default:
		return "identity"
	}
}

// Apply returns the triplet with this orientation's sign flips applied.
func (o Orientation) Apply(x, y, z float32) (float32, float32, float32) {
	switch o {
	case FlipYZ:
		return x, -y, -z
	case FlipXZ:
		return -x, y, -z
	case FlipXY:
		return -x, -y, z
	default:
		return x, y, z
	}
}

// recordSize is 12 bytes of float XYZ plus 3 bytes of color.
const recordSize = 15

var headerProperties = []string{
	"property float x",
	"property float y",
	"property float z",
	"property uchar red",
	"property uchar green",
	"property uchar blue",
}

// Write serializes xyz (flat triplets) with the paired rgb colors to w.
// rgb may be nil, in which case every point is colored 255,255,255. The
// output layout is bit-exact: header bytes, then one 15-byte record per
// point in input order.
func Write(w io.Writer, xyz []float32, rgb []byte, orient Orientation) error {
	points := len(xyz) / 3
	hasColor := len(rgb) >= points*3

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", points)
	for _, p := range headerProperties {
		bw.WriteString(p)
		bw.WriteByte('\n')
	}
	bw.WriteString("end_header\n")

	var rec [recordSize]byte
	for i := 0; i < points; i++ {
		x, y, z := orient.Apply(xyz[i*3], xyz[i*3+1], xyz[i*3+2])
		binary.LittleEndian.PutUint32(rec[0:4], math.Float32bits(x))
		binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(y))
		binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(z))
		if hasColor {
			copy(rec[12:15], rgb[i*3:i*3+3])
		} else {
			rec[12], rec[13], rec[14] = 255, 255, 255
		}
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Header carries the parsed PLY header fields the reader cares about.
type Header struct {
	VertexCount int
}

// Cloud is a decoded point cloud.
type Cloud struct {
	XYZ []float32
	RGB []byte
}

// Read parses a point-cloud file in the exact layout Write produces. Files
// with any other element or property arrangement are rejected.
func Read(r io.Reader) (*Cloud, Header, error) {
	br := bufio.NewReader(r)

	hdr, err := readHeader(br)
	if err != nil {
		return nil, Header{}, err
	}

	cloud := &Cloud{
		XYZ: make([]float32, hdr.VertexCount*3),
		RGB: make([]byte, hdr.VertexCount*3),
	}
	var rec [recordSize]byte
	for i := 0; i < hdr.VertexCount; i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			return nil, hdr, fmt.Errorf("vertex %d: %w", i, err)
		}
		cloud.XYZ[i*3] = math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4]))
		cloud.XYZ[i*3+1] = math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8]))
		cloud.XYZ[i*3+2] = math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12]))
		copy(cloud.RGB[i*3:i*3+3], rec[12:15])
	}
	return cloud, hdr, nil
}

// ReadHeader parses only the ASCII header, leaving r positioned at the
// first binary record. Useful for tools that just inspect a capture.
func ReadHeader(r io.Reader) (Header, error) {
	return readHeader(bufio.NewReader(r))
}

func readHeader(br *bufio.Reader) (Header, error) {
	var hdr Header

	line, err := readLine(br)
	if err != nil {
		return hdr, err
	}
	if line != "ply" {
		return hdr, fmt.Errorf("not a PLY file (magic %q)", line)
	}

	line, err = readLine(br)
	if err != nil {
		return hdr, err
	}
	if line != "format binary_little_endian 1.0" {
		return hdr, fmt.Errorf("unsupported format %q", line)
	}

	line, err = readLine(br)
	if err != nil {
		return hdr, err
	}
	count, ok := strings.CutPrefix(line, "element vertex ")
	if !ok {
		return hdr, fmt.Errorf("expected vertex element, got %q", line)
	}
	hdr.VertexCount, err = strconv.Atoi(count)
	if err != nil || hdr.VertexCount < 0 {
		return hdr, fmt.Errorf("bad vertex count %q", count)
	}

	for _, want := range headerProperties {
		line, err = readLine(br)
		if err != nil {
			return hdr, err
		}
		if line != want {
			return hdr, fmt.Errorf("unsupported property layout: got %q, want %q", line, want)
		}
	}

	line, err = readLine(br)
	if err != nil {
		return hdr, err
	}
	if line != "end_header" {
		return hdr, fmt.Errorf("expected end_header, got %q", line)
	}
	return hdr, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading header: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
