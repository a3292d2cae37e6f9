package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"

	"scrollmarks/pkg/layout"
)

type Renderer struct {
	context *gg.Context
}

func NewRenderer(width, height int) *Renderer {
	return &Renderer{context: gg.NewContext(width, height)}
}

// NewRendererForImage paints directly into target.
func NewRendererForImage(target *image.RGBA) *Renderer {
	return &Renderer{context: gg.NewContextForRGBA(target)}
}

// Render paints the part of the document visible at scrollY. Boxes are
// painted in tree order; positioned boxes go last so overlays such as the
// scroll mark helpers stay on top.
func (r *Renderer) Render(boxes []*layout.Box, scrollY float64) {
	r.context.SetRGB(1, 1, 1)
	r.context.Clear()

	var flow, positioned []*layout.Box
	collect(boxes, func(b *layout.Box) {
		if positionedAncestor(b) {
			positioned = append(positioned, b)
		} else {
			flow = append(flow, b)
		}
	})

	height := float64(r.context.Height())
	for _, list := range [][]*layout.Box{flow, positioned} {
		for _, box := range list {
			top := box.Y - scrollY
			if top > height || top+box.BorderBoxHeight() < 0 {
				continue
			}
			r.drawBox(box, top)
		}
	}
}

func (r *Renderer) drawBox(box *layout.Box, top float64) {
	if box.IsText() {
		r.context.SetColor(textColor(box))
		// basicfont ascent is 11px on a 16px line
		r.context.DrawString(box.Text, box.X, top+12)
		return
	}

	if bg, ok := BackgroundColor(box.Style); ok {
		r.context.SetColor(bg)
		r.context.DrawRectangle(box.X, top, box.BorderBoxWidth(), box.BorderBoxHeight())
		r.context.Fill()
	}

	if w := box.Border.Top; w > 0 {
		c := color.Color(color.Black)
		if v, ok := box.Style.Get("border-top-color"); ok {
			if parsed, ok := ParseColor(v); ok {
				c = parsed
			}
		}
		r.context.SetColor(c)
		r.context.DrawRectangle(box.X, top, box.BorderBoxWidth(), w)
		r.context.Fill()
	}
}

// SavePNG writes the current frame to path.
func (r *Renderer) SavePNG(path string) error {
	return r.context.SavePNG(path)
}

// Image returns the frame buffer.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func collect(boxes []*layout.Box, fn func(*layout.Box)) {
	for _, b := range boxes {
		fn(b)
		collect(b.Children, fn)
	}
}

func positionedAncestor(b *layout.Box) bool {
	for p := b; p != nil; p = p.Parent {
		if !p.InFlow() {
			return true
		}
	}
	return false
}

// BackgroundColor returns the background-color of style, falling back to the
// first word of the background shorthand.
func BackgroundColor(style *layout.Style) (color.Color, bool) {
	for _, prop := range []string{"background-color", "background"} {
		v, _ := style.Get(prop)
		fields := strings.Fields(v)
		if len(fields) == 0 {
			continue
		}
		if c, ok := ParseColor(fields[0]); ok {
			return c, true
		}
	}
	return nil, false
}

// textColor uses the nearest ancestor's color property.
func textColor(box *layout.Box) color.Color {
	for p := box.Parent; p != nil; p = p.Parent {
		if v, ok := p.Style.Get("color"); ok {
			if c, ok := ParseColor(v); ok {
				return c
			}
		}
	}
	return color.Black
}
