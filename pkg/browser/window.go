// Package browser provides Window, a headless stand-in for a browser window:
// a laid-out document with a scroll position, an event loop driven by a
// virtual clock, animation frames, timers and idle callbacks.
package browser

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scrollmarks/pkg/html"
	"scrollmarks/pkg/layout"
	"scrollmarks/pkg/scrollmarks"
)

// FrameInterval is the virtual duration of one frame.
const FrameInterval = 16 * time.Millisecond

// Window owns a document and its event loop. Apart from Post, its methods
// must be called from the loop: inside Frame, or from a callback it runs.
type Window struct {
	doc    *html.Document
	engine *layout.LayoutEngine
	log    zerolog.Logger

	dirty   bool
	scrollY float64

	now        time.Duration
	nextHandle int
	frames     []task
	cancelled  map[int]bool
	timers     []timer
	idle       []idleTask
	listeners  map[string][]listener
	input      bool

	passive bool
	noIdle  bool

	afterFrame []func()

	mu     sync.Mutex
	posted []func()
}

type task struct {
	handle int
	fn     func()
}

type timer struct {
	task
	due time.Duration
}

type idleTask struct {
	fn       func()
	deadline time.Duration
}

type listener struct {
	handle  int
	fn      func()
	passive bool
}

type Option func(*Window)

func WithLogger(log zerolog.Logger) Option {
	return func(w *Window) { w.log = log }
}

// WithoutPassiveListeners makes the window reject the passive listener
// option.
func WithoutPassiveListeners() Option {
	return func(w *Window) { w.passive = false }
}

// WithoutIdleCallbacks hides the idle scheduler, forcing clients onto
// timers.
func WithoutIdleCallbacks() Option {
	return func(w *Window) { w.noIdle = true }
}

// New creates a window of the given viewport size showing doc.
func New(doc *html.Document, width, height float64, opts ...Option) *Window {
	w := &Window{
		doc:       doc,
		engine:    layout.NewLayoutEngine(width, height),
		log:       zerolog.Nop(),
		dirty:     true,
		listeners: make(map[string][]listener),
		passive:   true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Window) Document() *html.Document { return w.doc }

// Host returns the window as a scrollmarks host.
func (w *Window) Host() scrollmarks.Host { return scrollmarks.HostFor(w) }

// Now is the virtual time elapsed since the window was created.
func (w *Window) Now() time.Duration { return w.now }

// Invalidate marks the layout stale after a DOM mutation.
func (w *Window) Invalidate() { w.dirty = true }

func (w *Window) relayout() {
	if !w.dirty {
		return
	}
	w.engine.Layout(w.doc)
	w.dirty = false
	w.clampScroll()
}

// Boxes returns the current layout.
func (w *Window) Boxes() []*layout.Box {
	w.relayout()
	return w.engine.Boxes()
}

func (w *Window) ScrollY() float64 { return w.scrollY }

func (w *Window) ViewportWidth() float64 { return w.engine.ViewportWidth() }

func (w *Window) ViewportHeight() float64 { return w.engine.ViewportHeight() }

func (w *Window) DocumentHeight() float64 {
	w.relayout()
	return w.engine.DocumentHeight()
}

// MaxScroll is the largest scroll position the document allows.
func (w *Window) MaxScroll() float64 {
	if limit := w.DocumentHeight() - w.ViewportHeight(); limit > 0 {
		return limit
	}
	return 0
}

// Rect is an element's border box relative to the viewport.
type Rect struct {
	Top, Left, Width, Height float64
}

func (r Rect) Bottom() float64 { return r.Top + r.Height }
func (r Rect) Right() float64  { return r.Left + r.Width }

// BoundingRect mirrors getBoundingClientRect. Elements without a box get a
// zero rect.
func (w *Window) BoundingRect(el *html.Node) Rect {
	w.relayout()
	box, ok := w.engine.BoxFor(el)
	if !ok {
		return Rect{}
	}
	return Rect{Top: box.Y - w.scrollY, Left: box.X, Width: box.BorderBoxWidth(), Height: box.BorderBoxHeight()}
}

func (w *Window) BoundingTop(el *html.Node) float64 { return w.BoundingRect(el).Top }

// IsRendered reports whether el is attached and generates a box.
func (w *Window) IsRendered(el *html.Node) bool {
	w.relayout()
	_, ok := w.engine.BoxFor(el)
	return ok
}

// ScrollTo moves the viewport, clamped to the document, and fires scroll
// listeners if the position changed.
func (w *Window) ScrollTo(y float64) {
	w.relayout()
	prev := w.scrollY
	w.scrollY = y
	w.clampScroll()
	if w.scrollY == prev {
		return
	}
	// fixed boxes are laid out against the scroll position
	w.dirty = true
	w.input = true
	w.log.Trace().Float64("y", w.scrollY).Msg("scroll")
	w.dispatch(scrollmarks.EventScroll)
}

func (w *Window) ScrollBy(dy float64) { w.ScrollTo(w.scrollY + dy) }

func (w *Window) clampScroll() {
	limit := w.engine.DocumentHeight() - w.engine.ViewportHeight()
	if w.scrollY > limit {
		w.scrollY = limit
	}
	if w.scrollY < 0 {
		w.scrollY = 0
	}
	w.engine.SetScrollY(w.scrollY)
}

// Resize changes the viewport and fires resize listeners.
func (w *Window) Resize(width, height float64) {
	if width == w.engine.ViewportWidth() && height == w.engine.ViewportHeight() {
		return
	}
	w.engine.SetViewport(width, height)
	w.dirty = true
	w.input = true
	w.log.Debug().Float64("width", width).Float64("height", height).Msg("resize")
	w.relayout()
	w.dispatch(scrollmarks.EventResize)
}

func (w *Window) SupportsPassive() bool { return w.passive }

func (w *Window) SupportsIdleCallback() bool { return !w.noIdle }

func (w *Window) AddEventListener(event string, fn func(), opts scrollmarks.ListenerOptions) int {
	w.nextHandle++
	w.listeners[event] = append(w.listeners[event], listener{handle: w.nextHandle, fn: fn, passive: opts.Passive && w.passive})
	return w.nextHandle
}

func (w *Window) RemoveEventListener(event string, handle int) {
	ls := w.listeners[event]
	for i, l := range ls {
		if l.handle == handle {
			w.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Passive reports whether every listener attached for event is passive.
func (w *Window) Passive(event string) bool {
	for _, l := range w.listeners[event] {
		if !l.passive {
			return false
		}
	}
	return true
}

// ListenerCount returns the number of listeners attached for event.
func (w *Window) ListenerCount(event string) int { return len(w.listeners[event]) }

func (w *Window) dispatch(event string) {
	ls := append([]listener(nil), w.listeners[event]...)
	for _, l := range ls {
		l.fn()
	}
}

func (w *Window) RequestAnimationFrame(fn func()) int {
	w.nextHandle++
	w.frames = append(w.frames, task{w.nextHandle, fn})
	return w.nextHandle
}

// CancelAnimationFrame also cancels callbacks of the frame being run that
// have not been reached yet.
func (w *Window) CancelAnimationFrame(handle int) {
	if w.cancelled != nil {
		w.cancelled[handle] = true
	}
	for i, t := range w.frames {
		if t.handle == handle {
			w.frames = append(w.frames[:i:i], w.frames[i+1:]...)
			return
		}
	}
}

// PendingFrames is the number of callbacks waiting for the next frame.
func (w *Window) PendingFrames() int { return len(w.frames) }

func (w *Window) SetTimeout(fn func(), delay time.Duration) int {
	w.nextHandle++
	w.timers = append(w.timers, timer{task: task{w.nextHandle, fn}, due: w.now + delay})
	return w.nextHandle
}

func (w *Window) ClearTimeout(handle int) {
	for i, t := range w.timers {
		if t.handle == handle {
			w.timers = append(w.timers[:i:i], w.timers[i+1:]...)
			return
		}
	}
}

// RequestIdleCallback queues fn for the end of the next frame without
// input, or the end of the first frame after timeout, whichever is first.
func (w *Window) RequestIdleCallback(fn func(), timeout time.Duration) {
	w.idle = append(w.idle, idleTask{fn: fn, deadline: w.now + timeout})
}

// Post schedules fn to run at the start of the next frame. It is safe to
// call from any goroutine.
func (w *Window) Post(fn func()) {
	w.mu.Lock()
	w.posted = append(w.posted, fn)
	w.mu.Unlock()
}

// Frame advances the clock by one frame and runs, in order, posted tasks,
// due timers, animation frame callbacks and idle callbacks.
func (w *Window) Frame() {
	w.mu.Lock()
	posted := w.posted
	w.posted = nil
	w.mu.Unlock()
	for _, fn := range posted {
		fn()
	}

	w.now += FrameInterval
	w.runTimers()

	frames := w.frames
	w.frames = nil
	w.cancelled = make(map[int]bool)
	for _, t := range frames {
		if !w.cancelled[t.handle] {
			t.fn()
		}
	}
	w.cancelled = nil

	w.runIdle(!w.input)
	w.input = false

	for _, fn := range w.afterFrame {
		fn()
	}
}

// AfterFrame registers fn to run at the end of every frame, once all of
// the frame's callbacks are done. Viewers use it to repaint.
func (w *Window) AfterFrame(fn func()) {
	w.afterFrame = append(w.afterFrame, fn)
}

// Frames runs n frames.
func (w *Window) Frames(n int) {
	for i := 0; i < n; i++ {
		w.Frame()
	}
}

func (w *Window) runTimers() {
	var due []timer
	keep := w.timers[:0]
	for _, t := range w.timers {
		if t.due <= w.now {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	w.timers = keep
	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, t := range due {
		t.fn()
	}
}

func (w *Window) runIdle(quiet bool) {
	var run []idleTask
	keep := w.idle[:0]
	for _, t := range w.idle {
		if quiet || t.deadline <= w.now {
			run = append(run, t)
		} else {
			keep = append(keep, t)
		}
	}
	w.idle = keep
	for _, t := range run {
		t.fn()
	}
}

// Run drives frames at fps until ctx is cancelled.
func (w *Window) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Frame()
		}
	}
}
