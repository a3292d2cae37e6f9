package scrollmarks

import (
	"fmt"

	"github.com/rs/zerolog"

	"scrollmarks/pkg/html"
)

// DebugSink visualises a mark's trigger point. Update is called after every
// recalculation of a mark with debug enabled; Release when the mark goes
// away or debug is switched off.
type DebugSink interface {
	Update(m *Mark, offset float64)
	Release()
}

// DebugSinkFactory creates the sink for a mark the first time it needs one.
type DebugSinkFactory func(m *Mark) DebugSink

var helperStyle = map[string]string{
	"border-top":  "1px solid red",
	"color":       "red",
	"font-family": "sans-serif",
	"font-size":   "14px",
	"left":        "0",
	"min-height":  "20px",
	"padding":     "3px",
	"position":    "absolute",
	"width":       "100%",
}

// DOMHelpers returns a factory that draws each trigger point as an
// absolutely positioned red line appended to doc's body. changed is called
// whenever the document is mutated so the host can relayout.
func DOMHelpers(doc *html.Document, changed func()) DebugSinkFactory {
	return func(*Mark) DebugSink {
		node := html.NewElement("div")
		node.SetAttribute("class", "scrollmarks-helper")
		node.SetAttribute("style", html.SerializeInlineStyle(helperStyle))
		doc.Body().AddChild(node)
		h := &domHelper{node: node, changed: changed}
		h.notify()
		return h
	}
}

type domHelper struct {
	node    *html.Node
	changed func()
}

func (h *domHelper) Update(m *Mark, offset float64) {
	h.node.SetStyle("top", fmt.Sprintf("%gpx", m.TriggerPoint()))
	h.node.SetTextContent(helperLabel(m, offset))
	h.notify()
}

func (h *domHelper) Release() {
	if h.node.Parent != nil {
		h.node.Parent.RemoveChild(h.node)
	}
	h.notify()
}

func (h *domHelper) notify() {
	if h.changed != nil {
		h.changed()
	}
}

func helperLabel(m *Mark, offset float64) string {
	return fmt.Sprintf("offset: %s, computedOffset: %g, triggerPoint: %gpx", formatOffset(m.Offset()), offset, m.TriggerPoint())
}

func formatOffset(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "undefined"
	case OffsetFunc, func(*html.Node) float64:
		return "function"
	case Offset:
		if v.IsDynamic() {
			return "function"
		}
		return fmt.Sprintf("%g", v.fixed)
	}
	return fmt.Sprintf("%v", raw)
}

// LogHelpers returns a factory whose sinks log each recalculation. It is
// the default when no factory is configured.
func LogHelpers(log zerolog.Logger) DebugSinkFactory {
	return func(*Mark) DebugSink { return logHelper{log: log} }
}

type logHelper struct {
	log zerolog.Logger
}

func (h logHelper) Update(m *Mark, offset float64) {
	h.log.Info().
		Int("key", m.Key()).
		Str("offset", formatOffset(m.Offset())).
		Float64("computedOffset", offset).
		Float64("triggerPoint", m.TriggerPoint()).
		Msg("scrollmark")
}

func (logHelper) Release() {}
