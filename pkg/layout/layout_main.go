package layout

import (
	"math"
	"strings"

	"scrollmarks/pkg/html"
)

// Layout lays the document out as a single block formatting context and
// returns the root boxes. Geometry queries (BoxFor, DocumentHeight) answer
// from this result until the next call.
func (le *LayoutEngine) Layout(doc *html.Document) []*Box {
	le.index = make(map[*html.Node]*Box)
	le.boxes, _ = le.layoutChildren(doc.Root, nil, 0, 0, le.viewport.width)

	le.contentBottom = 0
	walk(le.boxes, func(b *Box) {
		if bottom := b.Bottom() + b.Margin.Bottom; bottom > le.contentBottom {
			le.contentBottom = bottom
		}
	})
	return le.boxes
}

// layoutChildren stacks the children of node vertically starting at y and
// returns their boxes together with the y where the flow ended.
func (le *LayoutEngine) layoutChildren(node *html.Node, parent *Box, x, y, width float64) ([]*Box, float64) {
	boxes := make([]*Box, 0)
	var prevBox *Box // previous in-flow sibling, for margin collapsing
	for _, child := range node.Children {
		box := le.layoutNode(child, parent, x, y, width)
		if box == nil {
			continue
		}
		boxes = append(boxes, box)
		if !box.InFlow() {
			continue
		}
		if prevBox != nil {
			// We already advanced past prevBox's bottom margin and the box
			// added its own top margin; pull back the non-collapsed part.
			collapsed := collapseMargins(prevBox.Margin.Bottom, box.Margin.Top)
			if adjustment := prevBox.Margin.Bottom + box.Margin.Top - collapsed; adjustment != 0 {
				shiftY(box, -adjustment)
			}
		}
		y = box.Bottom() + box.Margin.Bottom
		prevBox = box
	}
	return boxes, y
}

func (le *LayoutEngine) layoutNode(node *html.Node, parent *Box, x, y, width float64) *Box {
	if node.Type == html.TextNode {
		return le.layoutText(node, parent, x, y, width)
	}

	style := computeStyle(node)
	if style.Display() == "none" {
		return nil
	}

	box := &Box{
		Node:     node,
		Style:    style,
		Parent:   parent,
		Position: style.Position(),
	}
	box.Margin = style.edge("margin", le.viewport, width)
	box.Padding = style.edge("padding", le.viewport, width)
	box.Border = style.edge("border", le.viewport, width)

	if !box.InFlow() {
		// Positioned against the initial containing block.
		x, y = 0, 0
		if box.Position == PositionFixed {
			y = le.scrollY
		}
		if left, ok := style.Length("left", le.viewport, le.viewport.width); ok {
			x += left
		}
		if top, ok := style.Length("top", le.viewport, le.viewport.height); ok {
			y += top
		}
		width = le.viewport.width
	}

	box.X = x + box.Margin.Left
	box.Y = y + box.Margin.Top
	if w, ok := style.Length("width", le.viewport, width); ok {
		box.Width = w
	} else {
		box.Width = math.Max(0, width-box.Margin.Left-box.Margin.Right-
			box.Border.Left-box.Border.Right-box.Padding.Left-box.Padding.Right)
	}

	contentX := box.X + box.Border.Left + box.Padding.Left
	contentY := box.Y + box.Border.Top + box.Padding.Top
	children, end := le.layoutChildren(node, box, contentX, contentY, box.Width)
	box.Children = children
	box.Height = end - contentY
	if h, ok := style.Length("height", le.viewport, le.viewport.height); ok {
		box.Height = h
	}
	if mh, ok := style.Length("min-height", le.viewport, le.viewport.height); ok && box.Height < mh {
		box.Height = mh
	}

	le.index[node] = box
	return box
}

// layoutText estimates the height of a text run from the fixed character
// metrics. Whitespace-only runs produce no box.
func (le *LayoutEngine) layoutText(node *html.Node, parent *Box, x, y, width float64) *Box {
	text := strings.Join(strings.Fields(node.Text), " ")
	if text == "" {
		return nil
	}
	lines := 1.0
	if width > 0 {
		lines = math.Max(1, math.Ceil(float64(len(text))*CharWidth/width))
	}
	box := &Box{
		Node:     node,
		Parent:   parent,
		X:        x,
		Y:        y,
		Width:    width,
		Height:   lines * LineHeight,
		Position: PositionStatic,
		Text:     text,
	}
	le.index[node] = box
	return box
}

// collapseMargins returns the collapsed margin value for two adjoining vertical margins.
// Per CSS 2.1: both positive => max, both negative => most negative, mixed => sum.
func collapseMargins(margin1, margin2 float64) float64 {
	if margin1 >= 0 && margin2 >= 0 {
		return math.Max(margin1, margin2)
	}
	if margin1 < 0 && margin2 < 0 {
		return math.Min(margin1, margin2)
	}
	return margin1 + margin2
}

// shiftY moves box and its in-flow descendants. Positioned descendants are
// anchored to the document and stay put.
func shiftY(box *Box, dy float64) {
	box.Y += dy
	for _, child := range box.Children {
		if child.InFlow() {
			shiftY(child, dy)
		}
	}
}

func walk(boxes []*Box, fn func(*Box)) {
	for _, b := range boxes {
		fn(b)
		walk(b.Children, fn)
	}
}
