package layout

import (
	"scrollmarks/pkg/html"
)

func NewLayoutEngine(viewportWidth, viewportHeight float64) *LayoutEngine {
	le := &LayoutEngine{}
	le.viewport.width = viewportWidth
	le.viewport.height = viewportHeight
	le.index = make(map[*html.Node]*Box)
	return le
}

// SetScrollY sets the vertical scroll offset for fixed positioning.
// Fixed elements are positioned relative to viewport + scrollY.
func (le *LayoutEngine) SetScrollY(scrollY float64) {
	le.scrollY = scrollY
}

// GetScrollY returns the current vertical scroll offset.
func (le *LayoutEngine) GetScrollY() float64 {
	return le.scrollY
}

// SetViewport changes the viewport size. Boxes from a previous Layout call
// are stale until Layout runs again.
func (le *LayoutEngine) SetViewport(width, height float64) {
	le.viewport.width = width
	le.viewport.height = height
}

func (le *LayoutEngine) ViewportWidth() float64  { return le.viewport.width }
func (le *LayoutEngine) ViewportHeight() float64 { return le.viewport.height }

// Boxes returns the root boxes of the last layout.
func (le *LayoutEngine) Boxes() []*Box {
	return le.boxes
}

// BoxFor returns the box generated for node by the last layout. Nodes that
// are detached, inside a display:none subtree, or display:none themselves
// have no box.
func (le *LayoutEngine) BoxFor(node *html.Node) (*Box, bool) {
	b, ok := le.index[node]
	return b, ok
}

// DocumentHeight is the scrollable height of the document: the bottom of
// the lowest box, but never less than the viewport.
func (le *LayoutEngine) DocumentHeight() float64 {
	if le.contentBottom > le.viewport.height {
		return le.contentBottom
	}
	return le.viewport.height
}
