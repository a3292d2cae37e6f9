// Package page opens an HTML page in a headless window with its scripts
// running, and records every scrollmark dispatch. The command line tools
// are thin shells around a Session.
package page

import (
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"scrollmarks/pkg/browser"
	"scrollmarks/pkg/html"
	"scrollmarks/pkg/js"
	"scrollmarks/pkg/render"
	"scrollmarks/pkg/scrollmarks"
	"scrollmarks/pkg/visualtest"
)

// DefaultStepFrames is how many frames Replay runs after each scroll. It
// covers one resize cadence at the default settings.
const DefaultStepFrames = 30

// Event is one recorded dispatch.
type Event struct {
	At           time.Duration
	Key          int
	Direction    scrollmarks.Direction
	Element      string
	TriggerPoint float64
	ScrollY      float64
}

func (e Event) String() string {
	return fmt.Sprintf("%6dms %-4s mark %d %s trigger=%g scrollY=%g",
		e.At.Milliseconds(), e.Direction, e.Key, e.Element, e.TriggerPoint, e.ScrollY)
}

type Options struct {
	Width, Height float64
	Settings      scrollmarks.Settings
	Log           zerolog.Logger
	// Fs is where require() finds modules. Open also reads the page from it.
	Fs afero.Fs

	NoPassive bool
	NoIdle    bool
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Settings == (scrollmarks.Settings{}) {
		o.Settings = scrollmarks.DefaultSettings()
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
}

// Session is a loaded page. Like the window it wraps, it belongs to the
// window's loop.
type Session struct {
	Window *browser.Window
	Engine *js.Engine

	log     zerolog.Logger
	events  []Event
	onEvent []func(Event)
}

// Open reads path from opts.Fs and loads it.
func Open(path string, opts Options) (*Session, error) {
	opts.defaults()
	data, err := afero.ReadFile(opts.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return Load(string(data), opts)
}

// Load parses source, lays it out and runs its scripts.
func Load(source string, opts Options) (*Session, error) {
	opts.defaults()
	doc, err := html.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	winOpts := []browser.Option{browser.WithLogger(opts.Log)}
	if opts.NoPassive {
		winOpts = append(winOpts, browser.WithoutPassiveListeners())
	}
	if opts.NoIdle {
		winOpts = append(winOpts, browser.WithoutIdleCallbacks())
	}
	s := &Session{
		Window: browser.New(doc, opts.Width, opts.Height, winOpts...),
		log:    opts.Log,
	}
	s.Engine, err = js.New(s.Window,
		js.WithLogger(opts.Log),
		js.WithFs(opts.Fs),
		js.WithSettings(opts.Settings),
		js.WithObserver(s.record),
	)
	if err != nil {
		return nil, err
	}
	if err := s.Engine.Execute(); err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("scripts", len(doc.Scripts)).
		Int("marks", s.Engine.ScrollMarks().Len()).
		Float64("height", s.Window.DocumentHeight()).
		Msg("page loaded")
	return s, nil
}

func (s *Session) record(dir scrollmarks.Direction, m *scrollmarks.Mark) {
	e := Event{
		At:           s.Window.Now(),
		Key:          m.Key(),
		Direction:    dir,
		Element:      Describe(m.Element()),
		TriggerPoint: m.TriggerPoint(),
		ScrollY:      s.Window.ScrollY(),
	}
	s.events = append(s.events, e)
	s.log.Info().
		Int("key", e.Key).
		Stringer("direction", dir).
		Str("element", e.Element).
		Float64("triggerPoint", e.TriggerPoint).
		Msg("mark dispatched")
	for _, fn := range s.onEvent {
		fn(e)
	}
}

// OnEvent registers fn to see each dispatch as it is recorded.
func (s *Session) OnEvent(fn func(Event)) {
	s.onEvent = append(s.onEvent, fn)
}

// Events returns the dispatches recorded so far.
func (s *Session) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Marks returns the live marks in key order.
func (s *Session) Marks() []*scrollmarks.Mark {
	return s.Engine.ScrollMarks().Marks()
}

// Replay scrolls to each position in turn and runs frames after every
// step. frames <= 0 means DefaultStepFrames.
func (s *Session) Replay(path []float64, frames int) {
	if frames <= 0 {
		frames = DefaultStepFrames
	}
	s.Window.Frames(frames)
	for _, y := range path {
		s.Window.ScrollTo(y)
		s.Window.Frames(frames)
	}
}

// Snapshot paints the viewport at the current scroll position.
func (s *Session) Snapshot() image.Image {
	r := render.NewRenderer(int(s.Window.ViewportWidth()), int(s.Window.ViewportHeight()))
	r.Render(s.Window.Boxes(), s.Window.ScrollY())
	return r.Image()
}

// WritePNG saves a snapshot to path on fs.
func (s *Session) WritePNG(fs afero.Fs, path string) error {
	return visualtest.SavePNG(fs, path, s.Snapshot())
}

// Matches compares a snapshot with the reference PNG at path.
func (s *Session) Matches(fs afero.Fs, path string, opts visualtest.CompareOptions) (*visualtest.CompareResult, error) {
	expected, err := visualtest.LoadPNG(fs, path)
	if err != nil {
		return nil, err
	}
	return visualtest.Compare(s.Snapshot(), expected, opts)
}

// Describe names an element the way a selector would: #id when it has one,
// otherwise its tag.
func Describe(n *html.Node) string {
	if n == nil {
		return "<nil>"
	}
	if id := n.ID(); id != "" {
		return "#" + id
	}
	return strings.ToLower(n.TagName)
}

// ParseScrollPath reads a comma separated list of scroll positions such as
// "0,600,0".
func ParseScrollPath(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	path := make([]float64, 0, len(parts))
	for _, p := range parts {
		y, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("scroll position %q: %w", p, err)
		}
		path = append(path, y)
	}
	return path, nil
}
