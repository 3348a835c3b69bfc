package stats

import (
	"bytes"
	"image"
	imgcolor "image/color"
	"image/png"
)

// color is a tiny RGB triple pulled straight out of a hash; no alpha
// handling is needed since identicons are always opaque.
type color struct {
	r, g, b byte
}

// bitmap is a minimal fixed-size canvas used only to rasterize
// identicons; it exists to keep Identicon's hash-to-pixel logic free
// of image.RGBA's verbose Set/At API at every call site.
type bitmap struct {
	img *image.RGBA
}

func newBitmap(w, h int) *bitmap {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := imgcolor.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, bg)
		}
	}
	return &bitmap{img: img}
}

func (b *bitmap) fillCell(cellX, cellY, size int, c color) {
	rgba := imgcolor.RGBA{R: c.r, G: c.g, B: c.b, A: 0xff}
	for y := cellY * size; y < (cellY+1)*size; y++ {
		for x := cellX * size; x < (cellX+1)*size; x++ {
			b.img.Set(x, y, rgba)
		}
	}
}

func (b *bitmap) encodePNG() []byte {
	var buf bytes.Buffer
	// Encoding errors only originate from a bad image.RGBA, which never
	// happens for a canvas we constructed ourselves.
	_ = png.Encode(&buf, b.img)
	return buf.Bytes()
}
