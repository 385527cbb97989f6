// Package encoder abstracts the image codec that turns canonical RGB
// buffers into raster image files. The pipeline treats the codec as an
// opaque collaborator: encode errors are counted by the caller, never
// propagated.
package encoder

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// Encoder writes an 8-bit interleaved RGB buffer as an encoded image.
type Encoder interface {
	// Encode writes the image for an rgb buffer of exactly
	// width*height*3 bytes.
	Encode(w io.Writer, rgb []byte, width, height int) error

	// Ext returns the file extension for this codec, with leading dot.
	Ext() string
}

// PNG encodes captures with the standard library PNG codec. Pixel content
// is preserved exactly; compressed byte streams may differ between
// encoder implementations.
type PNG struct {
	// CompressionLevel defaults to png.DefaultCompression.
	CompressionLevel png.CompressionLevel
}

// Ext returns ".png".
func (PNG) Ext() string { return ".png" }

// Encode writes rgb as a PNG image.
func (p PNG) Encode(w io.Writer, rgb []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(rgb) < width*height*3 {
		return fmt.Errorf("short buffer: %d bytes for %dx%d", len(rgb), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := rgb[y*width*3 : (y+1)*width*3]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 255
		}
	}

	enc := png.Encoder{CompressionLevel: p.CompressionLevel}
	return enc.Encode(w, img)
}
