// Package imaging bounds the payload sent to the AI model and stored on
// device. Captured photos are downscaled, re-encoded as lossy JPEG, and —
// when the model returns per-item bounding boxes — cropped into per-item
// thumbnails.
//
// Cropping is strictly best-effort: a bad box or decode failure falls back
// to the uncropped photo so a single bad crop can never fail a batch.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/ownly/go-vault-backend/internal/domain"
)

// boxScale is the normalized coordinate space of bounding boxes: each of
// top/left/bottom/right is expressed on a 0..1000 scale of the image.
const boxScale = 1000.0

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Prepared is an encoded, size-bounded JPEG ready for the model and for
// storage.
type Prepared struct {
	Data   []byte
	Width  int
	Height int
}

// DataURL returns the image as an embeddable data URL, the form records
// carry in their imageUrl field.
func (p *Prepared) DataURL() string {
	if p == nil || len(p.Data) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Processor downscales and re-encodes photos with fixed bounds.
type Processor struct {
	// MaxDimension caps the longest side in pixels.
	MaxDimension int
	// JPEGQuality is the lossy re-encode quality [1,100].
	JPEGQuality int
}

// NewProcessor returns a Processor, substituting defaults for out-of-range
// values.
func NewProcessor(maxDim, quality int) *Processor {
	if maxDim < 16 {
		maxDim = 800
	}
	if quality < 1 || quality > 100 {
		quality = 55
	}
	return &Processor{MaxDimension: maxDim, JPEGQuality: quality}
}

// Prepare reads photo data, validates the format by sniffing bytes,
// downscales if larger than MaxDimension (preserving aspect ratio), and
// re-encodes as JPEG. Always outputs JPEG for consistency and smaller
// payloads.
func (pr *Processor) Prepare(r io.Reader) (*Prepared, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, pr.MaxDimension)
	return pr.encode(img)
}

// Crop extracts the sub-region of p described by box (normalized 0..1000
// units) as its own encoded image. On any failure — undecodable source,
// box outside the image, empty intersection — it returns p unchanged so the
// caller's batch is never blocked by one bad crop.
func (pr *Processor) Crop(p *Prepared, box domain.BoundingBox) *Prepared {
	if p == nil || len(p.Data) == 0 {
		return p
	}

	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return p
	}

	b := img.Bounds()
	rect := image.Rect(
		b.Min.X+int(box.Left/boxScale*float64(b.Dx())),
		b.Min.Y+int(box.Top/boxScale*float64(b.Dy())),
		b.Min.X+int(box.Right/boxScale*float64(b.Dx())),
		b.Min.Y+int(box.Bottom/boxScale*float64(b.Dy())),
	).Intersect(b)
	if rect.Empty() {
		return p
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return p
	}

	out, err := pr.encode(sub.SubImage(rect))
	if err != nil {
		return p
	}
	return out
}

// encode re-encodes img as JPEG at the configured quality.
func (pr *Processor) encode(img image.Image) (*Prepared, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: pr.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	b := img.Bounds()
	return &Prepared{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses high-quality Catmull-Rom interpolation.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	// Register decoders (jpeg is registered by default, but be explicit).
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
