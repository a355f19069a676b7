package brand

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	pngSize    = 240
	glyphScale = 6
)

// renderPNG rasterizes the mark for PDF embedding. The initials are drawn
// with the bitmap face at native size and scaled up with nearest-neighbor,
// which keeps the output byte-identical across runs.
func renderPNG(b Brand) []byte {
	img := image.NewRGBA(image.Rect(0, 0, pngSize, pngSize))

	primary := parseHex(b.Colors.Primary)
	secondary := parseHex(b.Colors.Secondary)
	accent := parseHex(b.Colors.Accent)

	if b.Sealed {
		fillCircle(img, pngSize/2, pngSize/2, 110, primary)
		strokeCircle(img, pngSize/2, pngSize/2, 96, 3, secondary)
		strokeCircle(img, pngSize/2, pngSize/2, 70, 2, secondary)
	} else {
		fillRect(img, image.Rect(20, 60, 220, 180), primary)
		strokeRect(img, image.Rect(28, 68, 212, 172), 2, secondary)
	}

	drawInitials(img, b.Initials, accent)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func parseHex(s string) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{A: 0xff}
	}
	hex := func(hi, lo byte) uint8 {
		return hexDigit(hi)<<4 | hexDigit(lo)
	}
	return color.RGBA{
		R: hex(s[1], s[2]),
		G: hex(s[3], s[4]),
		B: hex(s[5], s[6]),
		A: 0xff,
	}
}

func hexDigit(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	rr := r * r
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= rr {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func strokeCircle(img *image.RGBA, cx, cy, r, width int, c color.RGBA) {
	outer := r * r
	inner := (r - width) * (r - width)
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			d := dx*dx + dy*dy
			if d <= outer && d >= inner {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func strokeRect(img *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fillRect(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func drawInitials(img *image.RGBA, initials string, c color.RGBA) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, initials).Ceil()
	h := face.Metrics().Height.Ceil()

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	drawer := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(initials)

	dw, dh := w*glyphScale, h*glyphScale
	dst := image.Rect(
		(pngSize-dw)/2, (pngSize-dh)/2,
		(pngSize+dw)/2, (pngSize+dh)/2,
	)
	xdraw.NearestNeighbor.Scale(img, dst, small, small.Bounds(), xdraw.Over, nil)
}
