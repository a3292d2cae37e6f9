package scrollmarks

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

// ScrollMarks watches the scroll position of a document and invokes mark
// callbacks when their trigger points are crossed.
//
// An instance is not safe for concurrent use. All methods, and every
// callback the host runs on its behalf, must execute on the host's event
// loop.
type ScrollMarks struct {
	host      Host
	caps      Capabilities
	log       zerolog.Logger
	metrics   *metrics
	newHelper DebugSinkFactory
	observe   Callback
	settings  Settings
	registry  *registry

	running        bool
	generation     int
	frame          int
	scrollListener int
	resizeListener int
	scrollFlag     frameFlag
	resizeFlag     frameFlag

	scrollTick     int
	resizeTick     int
	scrolled       bool
	resized        bool
	previousScroll float64
	previousHeight float64
	direction      Direction
}

type Option func(*options)

type options struct {
	log      zerolog.Logger
	settings Settings
	helpers  DebugSinkFactory
	observe  Callback
	provider metric.MeterProvider
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithDebugSinks sets how marks with debug enabled are visualised.
func WithDebugSinks(f DebugSinkFactory) Option {
	return func(o *options) { o.helpers = f }
}

func WithMeterProvider(p metric.MeterProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithObserver registers fn to see every dispatch, just before the mark's
// own callback runs.
func WithObserver(fn Callback) Option {
	return func(o *options) { o.observe = fn }
}

// New creates a stopped instance bound to host.
func New(host Host, opts ...Option) (*ScrollMarks, error) {
	if err := host.validate(); err != nil {
		return nil, err
	}
	o := options{log: zerolog.Nop(), settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}
	settings, err := DefaultSettings().Apply(o.settings.Map())
	if err != nil {
		return nil, err
	}
	if o.helpers == nil {
		o.helpers = LogHelpers(o.log)
	}
	s := &ScrollMarks{
		host:      host,
		caps:      ProbeCapabilities(host),
		log:       o.log,
		metrics:   newMetrics(o.provider),
		newHelper: o.helpers,
		observe:   o.observe,
		settings:  settings,
		registry:  newRegistry(),
		direction: Down,
	}
	s.log.Debug().
		Bool("passive", s.caps.PassiveListeners).
		Bool("idleCallback", s.caps.IdleCallback).
		Msg("host capabilities")
	return s, nil
}

// Capabilities returns what was detected about the host.
func (s *ScrollMarks) Capabilities() Capabilities { return s.caps }

func (s *ScrollMarks) Len() int { return s.registry.len() }

func (s *ScrollMarks) Running() bool { return s.running }

// Marks returns the live marks in key order.
func (s *ScrollMarks) Marks() []*Mark { return s.registry.ordered() }

// Mark returns the live mark registered under key.
func (s *ScrollMarks) Mark(key int) (*Mark, bool) { return s.registry.get(key) }

// Add registers a mark and returns its key. The scheduler is started if it
// was stopped. When it is already running and the mark's trigger point is
// already above the current scroll position, the callback fires right away
// with Down.
func (s *ScrollMarks) Add(spec Spec) (int, error) {
	m, err := newMark(spec, s.host.Layout.ViewportHeight)
	if err != nil {
		return 0, err
	}
	m.key = s.registry.nextKey()
	if err := s.calculateTriggerPoint(m); err != nil {
		m.releaseHelper()
		return 0, err
	}
	s.registry.insert(m)
	s.metrics.added()
	s.log.Debug().Int("key", m.key).Float64("triggerPoint", m.triggerPoint).Msg("mark added")

	if !s.running {
		s.Start()
	} else if m.direction.accepts(Down) && m.triggerPoint <= s.host.Layout.ScrollY() {
		s.trigger(m, Down)
	}
	return m.key, nil
}

// Remove deletes the mark under key and reports whether it existed. The
// scheduler stops when the last mark is removed.
func (s *ScrollMarks) Remove(key int) bool {
	m, ok := s.registry.remove(key)
	if !ok {
		return false
	}
	m.releaseHelper()
	s.metrics.removed()
	s.log.Debug().Int("key", key).Msg("mark removed")
	if s.registry.len() == 0 {
		s.Stop()
	}
	return true
}

// Start attaches the listeners and the frame loop, then scans once so marks
// already scrolled past fire. It does nothing when running or when no marks
// are registered.
func (s *ScrollMarks) Start() {
	if s.running || s.registry.len() == 0 {
		return
	}
	s.running = true
	s.generation++
	s.previousHeight = s.host.Layout.DocumentHeight()

	opts := ListenerOptions{Passive: s.caps.PassiveListeners}
	s.scrollListener = s.host.Events.AddEventListener(EventScroll, s.onScroll, opts)
	s.resizeListener = s.host.Events.AddEventListener(EventResize, s.onResize, opts)
	s.frame = s.host.Frames.RequestAnimationFrame(s.tick)
	s.log.Debug().Int("marks", s.registry.len()).Msg("started")

	s.checkMarks()
}

// Stop detaches everything and resets the scheduler state.
func (s *ScrollMarks) Stop() {
	if !s.running {
		return
	}
	s.host.Frames.CancelAnimationFrame(s.frame)
	s.scrollFlag.cancel(s.host.Frames)
	s.resizeFlag.cancel(s.host.Frames)
	s.host.Events.RemoveEventListener(EventScroll, s.scrollListener)
	s.host.Events.RemoveEventListener(EventResize, s.resizeListener)

	s.running = false
	s.scrollTick, s.resizeTick = 0, 0
	s.scrolled, s.resized = false, false
	s.previousScroll = 0
	s.direction = Down
	s.log.Debug().Msg("stopped")
}

// Refresh recomputes every trigger point when the host is idle.
func (s *ScrollMarks) Refresh() {
	s.idle(s.updateAllTriggerPoints)
}

// RefreshMark recomputes a single trigger point when the host is idle.
func (s *ScrollMarks) RefreshMark(key int) error {
	if _, ok := s.registry.get(key); !ok {
		return fmt.Errorf("%w: could not refresh scrollmark '%d'", ErrNotFound, key)
	}
	s.idle(func() {
		m, ok := s.registry.get(key)
		if !ok {
			return
		}
		if err := s.calculateTriggerPoint(m); err != nil {
			s.log.Error().Err(err).Int("key", key).Msg("refresh failed")
			return
		}
		s.metrics.recomputed(1)
	})
	return nil
}

// SetDebug switches the trigger point visualisation of a mark.
func (s *ScrollMarks) SetDebug(key int, on bool) error {
	m, ok := s.registry.get(key)
	if !ok {
		return fmt.Errorf("%w: '%d'", ErrNotFound, key)
	}
	if m.debug == on {
		return nil
	}
	m.debug = on
	if !on {
		m.releaseHelper()
		return nil
	}
	return s.calculateTriggerPoint(m)
}

// frameFlag sets a flag on the next animation frame. Events arriving before
// that frame share the one request.
type frameFlag struct {
	pending bool
	handle  int
}

func (f *frameFlag) request(frames FrameScheduler, set *bool) {
	if f.pending {
		return
	}
	f.pending = true
	f.handle = frames.RequestAnimationFrame(func() {
		f.pending = false
		*set = true
	})
}

func (f *frameFlag) cancel(frames FrameScheduler) {
	if f.pending {
		frames.CancelAnimationFrame(f.handle)
		f.pending = false
	}
}

func (s *ScrollMarks) onScroll() {
	s.scrollFlag.request(s.host.Frames, &s.scrolled)
}

func (s *ScrollMarks) onResize() {
	s.resizeFlag.request(s.host.Frames, &s.resized)
}

// tick runs once per frame while started. Both counters advance every
// frame; each does its work only when it reaches its cadence.
func (s *ScrollMarks) tick() {
	gen := s.generation

	s.resizeTick++
	if s.resizeTick >= s.settings.ResizeThrottle {
		s.resizeTick = 0
		height := s.host.Layout.DocumentHeight()
		if s.resized || height != s.previousHeight {
			s.resized = false
			s.previousHeight = height
			s.idle(s.updateAllTriggerPoints)
		}
	}

	s.scrollTick++
	if s.scrollTick >= s.settings.ScrollThrottle {
		s.scrollTick = 0
		if s.scrolled {
			s.scrolled = false
			s.checkMarks()
		}
	}

	// A callback may have stopped, or stopped and restarted, the loop.
	if s.running && s.generation == gen {
		s.frame = s.host.Frames.RequestAnimationFrame(s.tick)
	}
}

// idle runs fn on the idle scheduler, or on a zero timer when the host has
// none. An IdleTimeout of 0 runs it synchronously.
func (s *ScrollMarks) idle(fn func()) {
	timeout := s.settings.IdleTimeout
	switch {
	case timeout == 0:
		fn()
	case s.caps.IdleCallback:
		s.host.Idle.RequestIdleCallback(fn, time.Duration(timeout)*time.Millisecond)
	default:
		s.host.Timers.SetTimeout(fn, 0)
	}
}
