package scrollmarks

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"scrollmarks/pkg/html"
)

// OffsetFunc computes an offset for element each time the trigger point is
// recalculated.
type OffsetFunc func(element *html.Node) float64

// Offset is the resolved form of a mark's offset: either a fixed number of
// pixels or a function of the element.
type Offset struct {
	fixed   float64
	dynamic OffsetFunc
}

func Fixed(px float64) Offset { return Offset{fixed: px} }

func Dynamic(fn OffsetFunc) Offset { return Offset{dynamic: fn} }

func (o Offset) IsDynamic() bool { return o.dynamic != nil }

// Value evaluates the offset for element.
func (o Offset) Value(element *html.Node) (float64, error) {
	if o.dynamic == nil {
		return o.fixed, nil
	}
	v := o.dynamic(element)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w, got %v", ErrBadOffset, v)
	}
	return v, nil
}

// OffsetExpectation describes the accepted offset forms in error messages.
const OffsetExpectation = "a number, px, %, or a function"

// ParseOffset resolves the raw offset of a Spec:
//
//	nil                      Fixed(0)
//	finite number            Fixed(n)
//	"<n>px"                  Fixed(n)
//	"<n>%"                   Dynamic: n% of the viewport height at call time
//	OffsetFunc, func(*Node)  Dynamic
//	Offset                   as is
//
// viewportHeight is only invoked by percentage offsets.
func ParseOffset(raw any, viewportHeight func() float64) (Offset, error) {
	switch v := raw.(type) {
	case nil:
		return Fixed(0), nil
	case Offset:
		return v, nil
	case OffsetFunc:
		if v != nil {
			return Dynamic(v), nil
		}
	case func(*html.Node) float64:
		if v != nil {
			return Dynamic(v), nil
		}
	case string:
		return parseOffsetString(v, viewportHeight)
	default:
		if n, ok := toFloat(raw); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return Fixed(n), nil
		}
	}
	return Offset{}, InvalidOptional("offset", OffsetExpectation, raw)
}

func parseOffsetString(s string, viewportHeight func() float64) (Offset, error) {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(trimmed, "%"):
		if pct, ok := parseFinite(strings.TrimSuffix(trimmed, "%")); ok {
			return Dynamic(func(*html.Node) float64 {
				return viewportHeight() * pct / 100
			}), nil
		}
	case strings.HasSuffix(trimmed, "px"):
		if px, ok := parseFinite(strings.TrimSuffix(trimmed, "px")); ok {
			return Fixed(px), nil
		}
	}
	return Offset{}, InvalidOptional("offset", OffsetExpectation, s)
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// toFloat converts Go's numeric kinds. Strings and bools are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
