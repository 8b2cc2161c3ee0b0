package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	// Registered decoders for signature uploads
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// MaxSignaturePixels bounds the longer side of a normalized signature image
const MaxSignaturePixels = 1200

// NormalizedImage is a signature image re-encoded as PNG with the aspect
// ratio of the field it fills
type NormalizedImage struct {
	PNG    []byte
	Width  int
	Height int
	Format string
}

// ScaleFor returns the stamp scale that makes the image width points wide
func (n NormalizedImage) ScaleFor(width float64) float64 {
	if n.Width == 0 {
		return 0
	}
	return width / float64(n.Width)
}

// NormalizeSignatureImage decodes an uploaded or drawn signature in any
// registered format and centers it on a transparent canvas whose aspect ratio
// matches a field of width x height, so stamping it at a uniform scale fills
// the field without distortion. Oversized images are resampled down
func NormalizeSignatureImage(data []byte, width, height float64) (*NormalizedImage, error) {
	if width <= 0 || height <= 0 {
		return nil, signerrors.Newf(signerrors.ErrorTypeInvalidArgument, "invalid field size %vx%v", width, height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeImageDecodeFailure, "cannot decode signature image", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, signerrors.New(signerrors.ErrorTypeImageDecodeFailure, "signature image is empty")
	}

	aspect := width / height
	canvasW := math.Max(float64(b.Dx()), float64(b.Dy())*aspect)
	canvasH := canvasW / aspect

	shrink := math.Min(1, float64(MaxSignaturePixels)/math.Max(canvasW, canvasH))
	cw := max(1, int(math.Round(canvasW*shrink)))
	ch := max(1, int(math.Round(canvasH*shrink)))
	iw := max(1, int(math.Round(float64(b.Dx())*shrink)))
	ih := max(1, int(math.Round(float64(b.Dy())*shrink)))

	dst := image.NewNRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	offX := (cw - iw) / 2
	offY := (ch - ih) / 2
	target := image.Rect(offX, offY, offX+iw, offY+ih)
	if iw == b.Dx() && ih == b.Dy() {
		draw.Draw(dst, target, src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, target, src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode signature image: %w", err)
	}
	return &NormalizedImage{PNG: buf.Bytes(), Width: cw, Height: ch, Format: format}, nil
}
