package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Shade blends c toward black by amount in Lab space (0 keeps c, 1 is
// black). Alpha is preserved.
func Shade(c color.RGBA, amount float64) color.RGBA {
	return blend(c, color.RGBA{A: 0xff}, amount)
}

// Tint blends c toward white by amount.
func Tint(c color.RGBA, amount float64) color.RGBA {
	return blend(c, color.RGBA{0xff, 0xff, 0xff, 0xff}, amount)
}

func blend(c, toward color.RGBA, amount float64) color.RGBA {
	from, _ := colorful.MakeColor(opaque(c))
	to, _ := colorful.MakeColor(opaque(toward))
	r, g, b := from.BlendLab(to, amount).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}

// Hex formats c as #rrggbb for CSS.
func Hex(c color.RGBA) string {
	cc, _ := colorful.MakeColor(opaque(c))
	return cc.Hex()
}

// opaque drops alpha before handing c to colorful.
func opaque(c color.RGBA) color.RGBA {
	c.A = 0xff
	return c
}
