package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	// Decoders for the source encodings seen in the wild. PNG is both a
	// source format and the canonical output.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Normalize decodes src in any supported encoding and re-encodes it as
// PNG, the one format every downstream viewer can open. Alpha-carrying and
// palette-indexed sources keep their transparency through the conversion;
// everything else lands in opaque truecolor.
func Normalize(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, normalizeColorMode(img)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeColorMode(img image.Image) image.Image {
	switch img.(type) {
	case *image.NRGBA:
		return img
	case *image.Paletted, *image.RGBA, *image.NRGBA64, *image.RGBA64:
		// Indexed or alpha-capable sources: non-opaque pixels must survive
		// the re-encoding.
		return toNRGBA(img)
	}
	if op, ok := img.(interface{ Opaque() bool }); ok && !op.Opaque() {
		return toNRGBA(img)
	}
	return toRGBA(img)
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
