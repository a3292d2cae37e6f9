package layout

import (
	"strconv"
	"strings"

	"scrollmarks/pkg/html"
)

// Style is the computed inline style of a node with shorthands expanded.
type Style struct {
	Properties map[string]string
}

// Edge represents the four sides of a box (top, right, bottom, left)
type Edge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

type PositionType string

const (
	PositionStatic   PositionType = "static"
	PositionRelative PositionType = "relative"
	PositionAbsolute PositionType = "absolute"
	PositionFixed    PositionType = "fixed"
)

// user agent defaults, applied before the inline style
var defaultStyles = map[string]string{
	"body": "margin: 8px",
	"p":    "margin: 16px 0",
	"h1":   "margin: 21px 0",
	"h2":   "margin: 20px 0",
	"ul":   "margin: 16px 0; padding-left: 40px",
}

var hiddenTags = map[string]bool{
	"head": true, "title": true, "meta": true, "link": true,
	"script": true, "style": true, "template": true,
}

func computeStyle(node *html.Node) *Style {
	s := &Style{Properties: make(map[string]string)}
	if hiddenTags[node.TagName] {
		s.Properties["display"] = "none"
	}
	for prop, val := range html.ParseInlineStyle(defaultStyles[node.TagName]) {
		s.expand(prop, val)
	}
	inline, _ := node.GetAttribute("style")
	for prop, val := range html.ParseInlineStyle(inline) {
		s.expand(prop, val)
	}
	return s
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

// expand stores a declaration, expanding the margin, padding and border
// shorthands into their per-side longhands.
func (s *Style) expand(property, value string) {
	switch property {
	case "margin", "padding":
		s.expandBox(property, value)
	case "border", "border-top", "border-bottom":
		sides := []string{"top", "right", "bottom", "left"}
		if property != "border" {
			sides = []string{strings.TrimPrefix(property, "border-")}
		}
		for _, part := range strings.Fields(value) {
			switch {
			case isLength(part):
				for _, side := range sides {
					s.Properties["border-"+side+"-width"] = part
				}
			case part == "solid" || part == "dotted" || part == "dashed" || part == "double" || part == "none":
				s.Properties["border-style"] = part
			default:
				for _, side := range sides {
					s.Properties["border-"+side+"-color"] = part
				}
			}
		}
	default:
		s.Properties[property] = value
	}
}

// expandBox expands margin/padding shorthand
// Supports: "10px" (all), "10px 20px" (vertical horizontal),
// "10px 20px 30px" (top h bottom), "10px 20px 30px 40px" (t r b l)
func (s *Style) expandBox(prefix, value string) {
	parts := strings.Fields(value)
	var t, r, b, l string
	switch len(parts) {
	case 1:
		t, r, b, l = parts[0], parts[0], parts[0], parts[0]
	case 2:
		t, r, b, l = parts[0], parts[1], parts[0], parts[1]
	case 3:
		t, r, b, l = parts[0], parts[1], parts[2], parts[1]
	case 4:
		t, r, b, l = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	s.Properties[prefix+"-top"] = t
	s.Properties[prefix+"-right"] = r
	s.Properties[prefix+"-bottom"] = b
	s.Properties[prefix+"-left"] = l
}

func (s *Style) Display() string {
	if d, ok := s.Get("display"); ok {
		return strings.TrimSpace(d)
	}
	return "block"
}

func (s *Style) Position() PositionType {
	switch pos, _ := s.Get("position"); pos {
	case "relative":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	}
	return PositionStatic
}

// Length resolves a length property against the viewport and the
// percentage basis. The second result is false when the property is unset,
// "auto", or malformed.
func (s *Style) Length(property string, vp viewport, basis float64) (float64, bool) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false
	}
	return ParseLength(val, vp.width, vp.height, basis)
}

func (s *Style) edge(prefix string, vp viewport, basis float64) Edge {
	get := func(side string) float64 {
		v, _ := s.Length(prefix+"-"+side+suffixFor(prefix), vp, basis)
		return v
	}
	return Edge{Top: get("top"), Right: get("right"), Bottom: get("bottom"), Left: get("left")}
}

func suffixFor(prefix string) string {
	if prefix == "border" {
		return "-width"
	}
	return ""
}

// ParseLength parses a CSS length. Supported units: px (or unitless),
// em (16px), vh, vw and % of basis.
func ParseLength(val string, vw, vh, basis float64) (float64, bool) {
	val = strings.TrimSpace(strings.ToLower(val))
	if val == "" || val == "auto" {
		return 0, false
	}
	scale := 1.0
	switch {
	case strings.HasSuffix(val, "px"):
		val = strings.TrimSuffix(val, "px")
	case strings.HasSuffix(val, "em"):
		val, scale = strings.TrimSuffix(val, "em"), 16
	case strings.HasSuffix(val, "vh"):
		val, scale = strings.TrimSuffix(val, "vh"), vh/100
	case strings.HasSuffix(val, "vw"):
		val, scale = strings.TrimSuffix(val, "vw"), vw/100
	case strings.HasSuffix(val, "%"):
		val, scale = strings.TrimSuffix(val, "%"), basis/100
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num * scale, true
}

func isLength(s string) bool {
	_, ok := ParseLength(s, 0, 0, 0)
	return ok
}
