// Package avatar renders the fallback profile pictures: a single uppercase
// letter, white on a colored square.
//
// Generation is a pure function of the letter. Same input, same bytes — the
// HTTP layer leans on that by letting clients cache the result for a day.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Size is the avatar's edge length in pixels.
const Size = 100

const fontSize = 50

// palette is the fixed six-color background scheme. A letter always maps to
// the same color: uppercase char code modulo the palette length.
var palette = []color.RGBA{
	{0xFF, 0x57, 0x33, 0xFF},
	{0xFF, 0xC3, 0x00, 0xFF},
	{0x36, 0xD7, 0xB7, 0xFF},
	{0x34, 0x98, 0xDB, 0xFF},
	{0x9B, 0x59, 0xB6, 0xFF},
	{0xE7, 0x4C, 0x3C, 0xFF},
}

// The Go bold face ships embedded in golang.org/x/image — no font files on
// disk, identical glyphs on every platform. Parsed once.
var (
	parseOnce  sync.Once
	parsedFont *opentype.Font
	parseErr   error
)

func loadFont() (*opentype.Font, error) {
	parseOnce.Do(func() {
		parsedFont, parseErr = opentype.Parse(gobold.TTF)
	})
	return parsedFont, parseErr
}

// Generate renders the avatar PNG for a letter. Case-insensitive: 'a' and
// 'A' produce identical bytes, because the letter is uppercased before both
// the color choice and the drawing.
func Generate(letter rune) ([]byte, error) {
	letter = unicode.ToUpper(letter)
	bg := palette[int(letter)%len(palette)]

	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("avatar: parsing font: %w", err)
	}

	// A font.Face is not safe for concurrent use, so each call gets its own.
	// Face construction is cheap next to PNG encoding.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("avatar: creating font face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	// Center the glyph's ink box, not its advance box — letters like "J"
	// sit visually centered this way.
	s := string(letter)
	b, _ := font.BoundString(face, s)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: (fixed.I(Size)-(b.Max.X-b.Min.X))/2 - b.Min.X,
			Y: (fixed.I(Size)-(b.Max.Y-b.Min.Y))/2 - b.Min.Y,
		},
	}
	d.DrawString(s)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("avatar: encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// ForUsername renders the avatar for a username's first letter. Empty names
// get the '?' tile rather than an error — the feed should never break over
// a missing avatar.
func ForUsername(username string) ([]byte, error) {
	if username == "" {
		return Generate('?')
	}
	return Generate([]rune(username)[0])
}
