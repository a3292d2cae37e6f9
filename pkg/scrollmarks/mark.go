package scrollmarks

import (
	"fmt"
	"sort"
	"strings"

	"scrollmarks/pkg/html"
)

// Direction is the direction of travel of a crossing.
type Direction int

const (
	// DirectionAny as a mark filter accepts both directions.
	DirectionAny Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return ""
}

// ParseDirection accepts "up", "down" and "" (any).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirectionAny, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return DirectionAny, InvalidOptional("direction", "'up' or 'down'", s)
}

func (d Direction) accepts(current Direction) bool {
	return d == DirectionAny || d == current
}

// Callback is invoked when a mark's trigger point is crossed.
type Callback func(dir Direction, m *Mark)

// Spec describes a mark to register.
type Spec struct {
	Element  *html.Node
	Callback Callback
	// Offset is nil, a number, a "<n>px" or "<n>%" string, an OffsetFunc or
	// an Offset. See ParseOffset.
	Offset    any
	Direction Direction
	Once      bool
	Debug     bool
}

// Mark is a registered scrollmark.
type Mark struct {
	key          int
	element      *html.Node
	callback     Callback
	rawOffset    any
	offset       Offset
	triggerPoint float64
	direction    Direction
	once         bool
	debug        bool
	helper       DebugSink
}

func (m *Mark) Key() int              { return m.key }
func (m *Mark) Element() *html.Node   { return m.element }
func (m *Mark) Offset() any           { return m.rawOffset }
func (m *Mark) TriggerPoint() float64 { return m.triggerPoint }
func (m *Mark) Direction() Direction  { return m.direction }
func (m *Mark) Once() bool            { return m.once }
func (m *Mark) Debug() bool           { return m.debug }
func (m *Mark) String() string        { return fmt.Sprintf("scrollmark %d at %gpx", m.key, m.triggerPoint) }

func (m *Mark) releaseHelper() {
	if m.helper != nil {
		m.helper.Release()
		m.helper = nil
	}
}

func newMark(spec Spec, viewportHeight func() float64) (*Mark, error) {
	if !spec.Element.IsElement() {
		var actual any
		if spec.Element != nil {
			actual = spec.Element.TagName
			if spec.Element.Type == html.TextNode {
				actual = "#text"
			}
		}
		return nil, &ParamError{Name: "element", Expected: "an HTML Element", Actual: actual, Err: ErrInvalidParameter}
	}
	if spec.Callback == nil {
		return nil, &ParamError{Name: "callback", Expected: "a function", Actual: nil, Err: ErrInvalidParameter}
	}
	if spec.Direction != DirectionAny && spec.Direction != Up && spec.Direction != Down {
		return nil, InvalidOptional("direction", "'up' or 'down'", int(spec.Direction))
	}
	offset, err := ParseOffset(spec.Offset, viewportHeight)
	if err != nil {
		return nil, err
	}
	return &Mark{
		element:   spec.Element,
		callback:  spec.Callback,
		rawOffset: spec.Offset,
		offset:    offset,
		direction: spec.Direction,
		once:      spec.Once,
		debug:     spec.Debug,
	}, nil
}

// registry owns the live marks. Keys are allocated monotonically and never
// reused.
type registry struct {
	marks map[int]*Mark
	next  int
}

func newRegistry() *registry {
	return &registry{marks: make(map[int]*Mark)}
}

func (r *registry) nextKey() int {
	k := r.next
	r.next++
	return k
}

func (r *registry) insert(m *Mark) { r.marks[m.key] = m }

func (r *registry) get(key int) (*Mark, bool) {
	m, ok := r.marks[key]
	return m, ok
}

func (r *registry) remove(key int) (*Mark, bool) {
	m, ok := r.marks[key]
	if ok {
		delete(r.marks, key)
	}
	return m, ok
}

func (r *registry) len() int { return len(r.marks) }

// ordered returns a snapshot of the live marks in key order, which is the
// order they were added in.
func (r *registry) ordered() []*Mark {
	out := make([]*Mark, 0, len(r.marks))
	for _, m := range r.marks {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
