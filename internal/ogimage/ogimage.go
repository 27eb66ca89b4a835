// Package ogimage renders the 1200x630 social preview image for a share record.
package ogimage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/share"
)

const (
	Width  = 1200
	Height = 630

	// DefaultID selects the promotional image instead of a share record.
	DefaultID = "default"

	margin = 80
)

var (
	gradientTop    = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	gradientBottom = color.RGBA{R: 0x7f, G: 0x1d, B: 0x1d, A: 0xff}
	textPrimary    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	textMuted      = color.RGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff}
	accent         = color.RGBA{R: 0xf9, G: 0x73, B: 0x16, A: 0xff}
)

var gradeColors = map[string]color.RGBA{
	share.GradeA: {R: 0x22, G: 0xc5, B: 0x5e, A: 0xff},
	share.GradeB: {R: 0x84, G: 0xcc, B: 0x16, A: 0xff},
	share.GradeC: {R: 0xea, G: 0xb3, B: 0x08, A: 0xff},
	share.GradeD: {R: 0xf9, G: 0x73, B: 0x16, A: 0xff},
	share.GradeF: {R: 0xef, G: 0x44, B: 0x44, A: 0xff},
}

var unknownGradeColor = color.RGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}

// GradeColor returns the fixed color for a grade; unknown grades are gray.
func GradeColor(grade string) color.RGBA {
	if c, ok := gradeColors[grade]; ok {
		return c
	}
	return unknownGradeColor
}

// Renderer draws preview images. It is safe for concurrent use.
type Renderer struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// New parses the embedded Go fonts.
func New() (*Renderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold}, nil
}

// Render returns a PNG for record. A nil record renders the promotional layout.
// Output depends only on the record's URL and results.
func (r *Renderer) Render(record *core.ShareRecord) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fillGradient(img, gradientTop, gradientBottom)

	c := &canvas{img: img, renderer: r}
	if record == nil {
		if err := c.drawDefault(); err != nil {
			return nil, err
		}
	} else {
		if err := c.drawRecord(record); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview image: %w", err)
	}
	return buf.Bytes(), nil
}

// ETag returns a strong entity tag for rendered bytes.
func ETag(data []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))
}

func fillGradient(img *image.RGBA, top, bottom color.RGBA) {
	bounds := img.Bounds()
	span := bounds.Dy() - 1
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := image.Rect(bounds.Min.X, y, bounds.Max.X, y+1)
		draw.Draw(img, row, image.NewUniform(lerp(top, bottom, y-bounds.Min.Y, span)), image.Point{}, draw.Src)
	}
}

func lerp(a, b color.RGBA, step, span int) color.RGBA {
	if span <= 0 {
		return a
	}
	mix := func(x, y uint8) uint8 {
		return uint8((int(x)*(span-step) + int(y)*step) / span)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}

type canvas struct {
	img      *image.RGBA
	renderer *Renderer
}

type line struct {
	bold bool
	size float64
	col  color.RGBA
	y    int
	text string
}

func (c *canvas) drawDefault() error {
	lines := []line{
		{true, 44, accent, 140, "WEBSITE ROAST"},
		{true, 72, textPrimary, 290, "Your marketing copy,"},
		{true, 72, textPrimary, 380, "read back to you."},
		{false, 40, textMuted, 470, "Mercilessly. Out loud."},
		{false, 30, textMuted, 570, "Paste a URL. Get roasted."},
	}
	for _, l := range lines {
		if err := c.text(l.bold, l.size, l.col, margin, l.y, l.text); err != nil {
			return err
		}
	}
	return nil
}

// hostColumnWidth keeps the hostname clear of the grade column.
const hostColumnWidth = 720

func (c *canvas) drawRecord(record *core.ShareRecord) error {
	grade := share.Grade(record.Results)
	host := share.DisplayHost(record.URL)

	lines := []line{
		{true, 44, accent, 140, "WEBSITE ROAST"},
		{false, 40, textMuted, 250, "The verdict on"},
		{false, 30, textMuted, 570, "Get your site roasted too."},
	}
	for _, l := range lines {
		if err := c.text(l.bold, l.size, l.col, margin, l.y, l.text); err != nil {
			return err
		}
	}

	hostFace, err := c.fit(host, 60, 28, hostColumnWidth)
	if err != nil {
		return err
	}
	c.draw(hostFace, textPrimary, margin, 340, host)
	_ = hostFace.Close()

	// Grade glyph, centered in the right-hand column.
	const columnCenter = 1000
	if err := c.centered(true, 280, GradeColor(grade), columnCenter, 440, grade); err != nil {
		return err
	}
	return c.centered(true, 32, textMuted, columnCenter, 510, "GRADE")
}

func (c *canvas) face(bold bool, size float64) (font.Face, error) {
	f := c.renderer.regular
	if bold {
		f = c.renderer.bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// fit returns the largest bold face between max and min points that keeps s within width.
func (c *canvas) fit(s string, maxSize, minSize float64, width int) (font.Face, error) {
	for size := maxSize; ; size -= 4 {
		face, err := c.face(true, size)
		if err != nil {
			return nil, err
		}
		if size-4 < minSize || font.MeasureString(face, s).Ceil() <= width {
			return face, nil
		}
		_ = face.Close()
	}
}

// text draws s with its baseline at (x, y).
func (c *canvas) text(bold bool, size float64, col color.RGBA, x, y int, s string) error {
	face, err := c.face(bold, size)
	if err != nil {
		return err
	}
	defer face.Close()
	c.draw(face, col, x, y, s)
	return nil
}

// centered draws s horizontally centered on cx.
func (c *canvas) centered(bold bool, size float64, col color.RGBA, cx, y int, s string) error {
	face, err := c.face(bold, size)
	if err != nil {
		return err
	}
	defer face.Close()
	width := font.MeasureString(face, s).Ceil()
	c.draw(face, col, cx-width/2, y, s)
	return nil
}

func (c *canvas) draw(face font.Face, col color.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
