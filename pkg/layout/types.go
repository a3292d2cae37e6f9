package layout

import (
	"scrollmarks/pkg/html"
)

type Box struct {
	Node     *html.Node
	Style    *Style
	X        float64 // Border-box left edge, document coordinates
	Y        float64 // Border-box top edge, document coordinates
	Width    float64 // Content width
	Height   float64 // Content height
	Margin   Edge
	Padding  Edge
	Border   Edge
	Children []*Box
	Parent   *Box
	Position PositionType
	Text     string // Set for text runs only
}

// IsText reports whether the box holds a run of text rather than an element.
func (b *Box) IsText() bool {
	return b.Node != nil && b.Node.Type == html.TextNode
}

// BorderBoxHeight is the height from the top border edge to the bottom border edge.
func (b *Box) BorderBoxHeight() float64 {
	return b.Border.Top + b.Padding.Top + b.Height + b.Padding.Bottom + b.Border.Bottom
}

// BorderBoxWidth is the width from the left border edge to the right border edge.
func (b *Box) BorderBoxWidth() float64 {
	return b.Border.Left + b.Padding.Left + b.Width + b.Padding.Right + b.Border.Right
}

// Bottom returns the bottom border edge in document coordinates.
func (b *Box) Bottom() float64 {
	return b.Y + b.BorderBoxHeight()
}

// InFlow reports whether the box takes part in normal block flow.
func (b *Box) InFlow() bool {
	return b.Position != PositionAbsolute && b.Position != PositionFixed
}

type viewport struct {
	width  float64
	height float64
}

type LayoutEngine struct {
	viewport viewport
	scrollY  float64 // Scroll offset for fixed positioning (viewport-relative)

	boxes         []*Box
	index         map[*html.Node]*Box
	contentBottom float64
}

const (
	// LineHeight and CharWidth approximate the default monospace face used
	// by the renderer.
	LineHeight = 16.0
	CharWidth  = 7.0
)
