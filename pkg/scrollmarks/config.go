package scrollmarks

import (
	"fmt"
	"math"
	"sort"
)

// Option keys accepted by SetConfig.
const (
	OptScrollThrottle = "scrollThrottle"
	OptResizeThrottle = "resizeThrottle"
	OptIdleTimeout    = "idleTimeout"
)

// Settings are the tuning knobs of an instance. The throttles count frames;
// IdleTimeout is in milliseconds, and 0 runs recomputation synchronously.
type Settings struct {
	ScrollThrottle int `mapstructure:"scrollThrottle" json:"scrollThrottle"`
	ResizeThrottle int `mapstructure:"resizeThrottle" json:"resizeThrottle"`
	IdleTimeout    int `mapstructure:"idleTimeout" json:"idleTimeout"`
}

func DefaultSettings() Settings {
	return Settings{ScrollThrottle: 10, ResizeThrottle: 30, IdleTimeout: 100}
}

var lowerLimits = map[string]int{
	OptScrollThrottle: 1,
	OptResizeThrottle: 1,
	OptIdleTimeout:    0,
}

// OptionNames lists the accepted keys in sorted order.
func OptionNames() []string {
	names := make([]string, 0, len(lowerLimits))
	for k := range lowerLimits {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map returns s keyed by option name.
func (s Settings) Map() map[string]any {
	return map[string]any{
		OptScrollThrottle: s.ScrollThrottle,
		OptResizeThrottle: s.ResizeThrottle,
		OptIdleTimeout:    s.IdleTimeout,
	}
}

func (s *Settings) set(key string, v int) {
	switch key {
	case OptScrollThrottle:
		s.ScrollThrottle = v
	case OptResizeThrottle:
		s.ResizeThrottle = v
	case OptIdleTimeout:
		s.IdleTimeout = v
	}
}

// Apply validates options and returns s with them merged in. Nothing is
// applied when any option is invalid.
func (s Settings) Apply(options map[string]any) (Settings, error) {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := s
	for _, key := range keys {
		v, err := validateOption(key, options[key])
		if err != nil {
			return s, err
		}
		next.set(key, v)
	}
	return next, nil
}

func validateOption(key string, raw any) (int, error) {
	limit, known := lowerLimits[key]
	if !known {
		return 0, fmt.Errorf("%w: '%s'", ErrUnknownOption, key)
	}
	f, ok := toFloat(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &ParamError{Kind: "Config", Name: key, Expected: "a number", Actual: raw, Err: ErrNotANumber}
	}
	if f < float64(limit) {
		return 0, &ParamError{Kind: "Config", Name: key, Expected: fmt.Sprintf("at least %d", limit), Actual: raw, Err: ErrOutOfRange}
	}
	return int(f), nil
}

// Config returns the current settings.
func (s *ScrollMarks) Config() Settings {
	return s.settings
}

// SetConfig updates the options present in options. Throttle counters are
// reset so a new cadence starts from zero.
func (s *ScrollMarks) SetConfig(options map[string]any) error {
	next, err := s.settings.Apply(options)
	if err != nil {
		return err
	}
	s.settings = next
	s.scrollTick, s.resizeTick = 0, 0
	s.log.Debug().
		Int(OptScrollThrottle, next.ScrollThrottle).
		Int(OptResizeThrottle, next.ResizeThrottle).
		Int(OptIdleTimeout, next.IdleTimeout).
		Msg("config updated")
	return nil
}

// Configure replaces every setting at once.
func (s *ScrollMarks) Configure(settings Settings) error {
	return s.SetConfig(settings.Map())
}
