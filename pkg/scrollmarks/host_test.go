package scrollmarks

import (
	"time"

	"scrollmarks/pkg/html"
)

// fakeWindow is a scriptable host. Frames, idle callbacks and timers only
// run when the test asks for them.
type fakeWindow struct {
	scrollY   float64
	viewport  float64
	docHeight float64
	tops      map[*html.Node]float64
	hidden    map[*html.Node]bool
	passive   bool

	nextHandle int
	frames     []pending
	cancelled  map[int]bool
	idleQueue  []func()
	timers     []func()
	listeners  map[string]map[int]func()
	lastOpts   ListenerOptions
}

type pending struct {
	handle int
	fn     func()
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		viewport:  800,
		docHeight: 5000,
		tops:      make(map[*html.Node]float64),
		hidden:    make(map[*html.Node]bool),
		listeners: make(map[string]map[int]func()),
	}
}

func (w *fakeWindow) ScrollY() float64                  { return w.scrollY }
func (w *fakeWindow) ViewportHeight() float64           { return w.viewport }
func (w *fakeWindow) DocumentHeight() float64           { return w.docHeight }
func (w *fakeWindow) BoundingTop(el *html.Node) float64 { return w.tops[el] - w.scrollY }
func (w *fakeWindow) IsRendered(el *html.Node) bool     { return !w.hidden[el] }
func (w *fakeWindow) SupportsPassive() bool             { return w.passive }

func (w *fakeWindow) RequestAnimationFrame(fn func()) int {
	w.nextHandle++
	w.frames = append(w.frames, pending{w.nextHandle, fn})
	return w.nextHandle
}

func (w *fakeWindow) CancelAnimationFrame(handle int) {
	if w.cancelled != nil {
		w.cancelled[handle] = true
	}
	for i, p := range w.frames {
		if p.handle == handle {
			w.frames = append(w.frames[:i], w.frames[i+1:]...)
			return
		}
	}
}

func (w *fakeWindow) SetTimeout(fn func(), _ time.Duration) int {
	w.nextHandle++
	w.timers = append(w.timers, fn)
	return w.nextHandle
}

func (w *fakeWindow) AddEventListener(event string, fn func(), opts ListenerOptions) int {
	w.nextHandle++
	if w.listeners[event] == nil {
		w.listeners[event] = make(map[int]func())
	}
	w.listeners[event][w.nextHandle] = fn
	w.lastOpts = opts
	return w.nextHandle
}

func (w *fakeWindow) RemoveEventListener(event string, handle int) {
	delete(w.listeners[event], handle)
}

func (w *fakeWindow) listenerCount() int {
	n := 0
	for _, l := range w.listeners {
		n += len(l)
	}
	return n
}

func (w *fakeWindow) dispatch(event string) {
	for _, fn := range w.listeners[event] {
		fn()
	}
}

// runFrames runs n frames. Callbacks requested during a frame run in the
// next one; callbacks cancelled during a frame are skipped.
func (w *fakeWindow) runFrames(n int) {
	for i := 0; i < n; i++ {
		batch := w.frames
		w.frames = nil
		w.cancelled = make(map[int]bool)
		for _, p := range batch {
			if !w.cancelled[p.handle] {
				p.fn()
			}
		}
		w.cancelled = nil
	}
}

func (w *fakeWindow) scrollTo(y float64) {
	w.scrollY = y
	w.dispatch(EventScroll)
}

func (w *fakeWindow) runTimers() {
	batch := w.timers
	w.timers = nil
	for _, fn := range batch {
		fn()
	}
}

// idleWindow adds an idle scheduler.
type idleWindow struct {
	*fakeWindow
}

func (w idleWindow) RequestIdleCallback(fn func(), _ time.Duration) {
	w.idleQueue = append(w.idleQueue, fn)
}

func (w idleWindow) runIdle() {
	batch := w.idleQueue
	w.idleQueue = nil
	for _, fn := range batch {
		fn()
	}
}

func element(w *fakeWindow, top float64) *html.Node {
	el := html.NewElement("div")
	w.tops[el] = top
	return el
}

type call struct {
	key int
	dir Direction
}

type recorder struct {
	calls []call
}

func (r *recorder) callback(dir Direction, m *Mark) {
	r.calls = append(r.calls, call{m.Key(), dir})
}

func (r *recorder) keys() []int {
	out := make([]int, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.key
	}
	return out
}
