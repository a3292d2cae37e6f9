package scrollmarks

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollmarks/pkg/html"
)

func newTestMarks(t *testing.T, w Window, opts ...Option) *ScrollMarks {
	t.Helper()
	sm, err := New(HostFor(w), opts...)
	require.NoError(t, err)
	return sm
}

// scrollAndScan scrolls and runs enough frames for one scan at the default
// cadence.
func scrollAndScan(w *fakeWindow, y float64) {
	w.scrollTo(y)
	w.runFrames(10)
}

func TestNew_IncompleteHost(t *testing.T) {
	w := newFakeWindow()
	_, err := New(Host{Layout: w, Frames: w})
	assert.ErrorIs(t, err, ErrIncompleteHost)

	_, err = New(Host{Layout: w, Frames: w, Events: w})
	assert.ErrorIs(t, err, ErrIncompleteHost, "no idle scheduler and no timers")
}

func TestNew_InvalidSettings(t *testing.T) {
	w := newFakeWindow()
	_, err := New(HostFor(w), WithSettings(Settings{ScrollThrottle: 0, ResizeThrottle: 30, IdleTimeout: 100}))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestAdd_KeysAreUnique(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}

	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		key, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback})
		require.NoError(t, err)
		assert.False(t, seen[key], "key %d reused", key)
		seen[key] = true
	}
	assert.Equal(t, 5, sm.Len())

	require.True(t, sm.Remove(2))
	key, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback})
	require.NoError(t, err)
	assert.Equal(t, 5, key, "removed keys are not reused")
}

func TestAdd_Validation(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	el := element(w, 100)
	noop := func(Direction, *Mark) {}
	text := &html.Node{Type: html.TextNode, Text: "hi"}

	tests := []struct {
		name string
		spec Spec
		msg  string
	}{
		{"nil element", Spec{Callback: noop}, "Parameter 'element' must be an HTML Element, got undefined instead"},
		{"text node", Spec{Element: text, Callback: noop}, "Parameter 'element' must be an HTML Element"},
		{"nil callback", Spec{Element: el}, "Parameter 'callback' must be a function"},
		{"bad unit", Spec{Element: el, Callback: noop, Offset: "10em"}, `Optional parameter 'offset' must be a number, px, %, or a function, got "10em" instead`},
		{"bare numeric string", Spec{Element: el, Callback: noop, Offset: "10"}, "Optional parameter 'offset'"},
		{"NaN", Spec{Element: el, Callback: noop, Offset: math.NaN()}, "Optional parameter 'offset'"},
		{"bool", Spec{Element: el, Callback: noop, Offset: true}, "Optional parameter 'offset'"},
		{"direction", Spec{Element: el, Callback: noop, Direction: Direction(7)}, "Optional parameter 'direction' must be 'up' or 'down'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sm.Add(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Equal(t, TypeError, Classify(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.Equal(t, 0, sm.Len())
	assert.False(t, sm.Running())
}

func TestAdd_DynamicOffsetMustBeFinite(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)

	_, err := sm.Add(Spec{
		Element:  element(w, 100),
		Callback: func(Direction, *Mark) {},
		Offset:   OffsetFunc(func(*html.Node) float64 { return math.Inf(1) }),
	})
	assert.ErrorIs(t, err, ErrBadOffset)
	assert.Equal(t, TypeError, Classify(err))
	assert.Equal(t, 0, sm.Len(), "failed add leaves nothing registered")
}

func TestAdd_OffsetForms(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	noop := func(Direction, *Mark) {}

	tests := []struct {
		offset any
		want   float64
	}{
		{nil, 1000},
		{100, 900},
		{int64(-50), 1050},
		{12.5, 987.5},
		{"100px", 900},
		{"25%", 800},
		{OffsetFunc(func(*html.Node) float64 { return 300 }), 700},
		{func(el *html.Node) float64 { return w.tops[el] / 2 }, 500},
	}
	for _, tt := range tests {
		key, err := sm.Add(Spec{Element: element(w, 1000), Callback: noop, Offset: tt.offset})
		require.NoError(t, err, "offset %v", tt.offset)
		m, ok := sm.Mark(key)
		require.True(t, ok)
		assert.Equal(t, tt.want, m.TriggerPoint(), "offset %v", tt.offset)
	}
}

func TestTriggerPoint_IncludesScroll(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	w.scrollY = 300

	key, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}, Offset: "100px"})
	require.NoError(t, err)
	m, _ := sm.Mark(key)
	assert.Equal(t, 900.0, m.TriggerPoint())
}

func TestCrossing_DownThenUp(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}

	key, err := sm.Add(Spec{Element: element(w, 500), Callback: rec.callback})
	require.NoError(t, err)
	assert.True(t, sm.Running())
	assert.Empty(t, rec.calls, "nothing crossed at scroll 0")

	scrollAndScan(w, 600)
	assert.Equal(t, []call{{key, Down}}, rec.calls)

	scrollAndScan(w, 0)
	assert.Equal(t, []call{{key, Down}, {key, Up}}, rec.calls)
}

func TestCrossing_OnlyAfterThrottle(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	_, err := sm.Add(Spec{Element: element(w, 500), Callback: rec.callback})
	require.NoError(t, err)

	w.scrollTo(600)
	w.runFrames(9)
	assert.Empty(t, rec.calls)
	w.runFrames(1)
	assert.Len(t, rec.calls, 1)
}

func TestCrossing_StayingOnOneSideDoesNotFire(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback})
	require.NoError(t, err)

	scrollAndScan(w, 400)
	scrollAndScan(w, 999)
	scrollAndScan(w, 10)
	assert.Empty(t, rec.calls)
}

func TestCrossing_BoundaryIsInclusiveOnArrival(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback})
	require.NoError(t, err)

	scrollAndScan(w, 1000)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, Down, rec.calls[0].dir)

	scrollAndScan(w, 999)
	require.Len(t, rec.calls, 2)
	assert.Equal(t, Up, rec.calls[1].dir)
}

func TestCrossing_DirectionFilter(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	key, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback, Direction: Up})
	require.NoError(t, err)

	scrollAndScan(w, 1100)
	assert.Empty(t, rec.calls)

	scrollAndScan(w, 900)
	assert.Equal(t, []call{{key, Up}}, rec.calls)
}

func TestCrossing_HiddenElementIsSkipped(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	el := element(w, 1000)
	_, err := sm.Add(Spec{Element: el, Callback: rec.callback})
	require.NoError(t, err)

	w.hidden[el] = true
	scrollAndScan(w, 1100)
	assert.Empty(t, rec.calls)

	delete(w.hidden, el)
	scrollAndScan(w, 900)
	assert.Len(t, rec.calls, 1)
}

func TestOnce_RemovesAndStops(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	key, err := sm.Add(Spec{Element: element(w, 500), Callback: rec.callback, Once: true})
	require.NoError(t, err)

	scrollAndScan(w, 600)
	assert.Len(t, rec.calls, 1)
	assert.Equal(t, 0, sm.Len())
	assert.False(t, sm.Running())
	assert.Equal(t, 0, w.listenerCount())
	assert.Empty(t, w.frames, "frame loop cancelled")
	assert.False(t, sm.Remove(key))

	scrollAndScan(w, 0)
	assert.Len(t, rec.calls, 1)
}

func TestOrdering_FollowsDirection(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	var order []float64
	cb := func(_ Direction, m *Mark) { order = append(order, m.TriggerPoint()) }

	for _, top := range []float64{300, 100, 200} {
		_, err := sm.Add(Spec{Element: element(w, top), Callback: cb})
		require.NoError(t, err)
	}

	scrollAndScan(w, 400)
	assert.Equal(t, []float64{100, 200, 300}, order)

	order = nil
	scrollAndScan(w, 0)
	assert.Equal(t, []float64{300, 200, 100}, order)
}

func TestOrdering_EqualTriggerPointsKeepInsertionOrder(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	for i := 0; i < 3; i++ {
		_, err := sm.Add(Spec{Element: element(w, 200), Callback: rec.callback})
		require.NoError(t, err)
	}
	scrollAndScan(w, 400)
	assert.Equal(t, []int{0, 1, 2}, rec.keys())
}

func TestDispatch_SkipsMarksRemovedByEarlierCallback(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	var second int
	_, err := sm.Add(Spec{Element: element(w, 100), Callback: func(d Direction, m *Mark) {
		rec.callback(d, m)
		sm.Remove(second)
	}})
	require.NoError(t, err)
	second, err = sm.Add(Spec{Element: element(w, 200), Callback: rec.callback})
	require.NoError(t, err)

	scrollAndScan(w, 300)
	assert.Equal(t, []int{0}, rec.keys())
}

func TestAdd_ImmediateDispatchWhenRunning(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	_, err := sm.Add(Spec{Element: element(w, 4000), Callback: rec.callback})
	require.NoError(t, err)
	scrollAndScan(w, 1000)
	require.Empty(t, rec.calls)

	key, err := sm.Add(Spec{Element: element(w, 500), Callback: rec.callback})
	require.NoError(t, err)
	assert.Equal(t, []call{{key, Down}}, rec.calls)

	upOnly, err := sm.Add(Spec{Element: element(w, 600), Callback: rec.callback, Direction: Up})
	require.NoError(t, err)
	assert.NotContains(t, rec.keys(), upOnly)
}

func TestAdd_StartScanFiresMarksAlreadyPassed(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	w.scrollY = 1500
	rec := &recorder{}

	key, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback})
	require.NoError(t, err)
	assert.Equal(t, []call{{key, Down}}, rec.calls)
}

func TestAdd_ImmediateOnceDispatchStops(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	w.scrollY = 1500
	rec := &recorder{}

	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: rec.callback, Once: true})
	require.NoError(t, err)
	assert.Len(t, rec.calls, 1)
	assert.False(t, sm.Running())
	assert.Equal(t, 0, w.listenerCount())
	assert.Empty(t, w.frames)
}

func TestStartStop_Idempotent(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)

	sm.Start()
	assert.False(t, sm.Running(), "start with no marks does nothing")
	assert.Equal(t, 0, w.listenerCount())

	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)
	sm.Start()
	sm.Start()
	assert.Equal(t, 2, w.listenerCount())
	assert.Len(t, w.frames, 1)

	sm.Stop()
	sm.Stop()
	assert.False(t, sm.Running())
	assert.Equal(t, 0, w.listenerCount())
	assert.Empty(t, w.frames)
	assert.Equal(t, 1, sm.Len(), "stop keeps marks")

	sm.Start()
	assert.True(t, sm.Running())
}

func TestStop_FromCallbackEndsLoop(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	_, err := sm.Add(Spec{Element: element(w, 500), Callback: func(Direction, *Mark) { sm.Stop() }})
	require.NoError(t, err)

	scrollAndScan(w, 600)
	assert.False(t, sm.Running())
	assert.Empty(t, w.frames)
}

func TestStop_FromCallbackCancelsQueuedScrollFlag(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	_, err := sm.Add(Spec{Element: element(w, 500), Callback: func(Direction, *Mark) { sm.Stop() }})
	require.NoError(t, err)

	w.scrollTo(600)
	w.runFrames(9)
	// queued behind the tick that scans and stops
	w.scrollTo(610)
	w.runFrames(1)

	assert.False(t, sm.Running())
	assert.False(t, sm.scrolled)
	assert.False(t, sm.scrollFlag.pending)
	assert.Empty(t, w.frames)
}

func TestRestart_FromCallbackKeepsSingleLoop(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	calls := 0
	_, err := sm.Add(Spec{Element: element(w, 500), Callback: func(Direction, *Mark) {
		calls++
		if calls == 1 {
			sm.Stop()
			sm.Start()
		}
	}})
	require.NoError(t, err)

	scrollAndScan(w, 600)
	assert.Equal(t, 2, calls, "restart rescans from the top")
	assert.True(t, sm.Running())
	assert.Len(t, w.frames, 1)
}

func TestScrollEvents_Coalesce(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		w.scrollTo(float64(i * 10))
	}
	assert.Len(t, w.frames, 2, "tick plus one flag callback")
}

func TestListeners_PassiveWhenSupported(t *testing.T) {
	w := newFakeWindow()
	w.passive = true
	sm := newTestMarks(t, w)
	assert.True(t, sm.Capabilities().PassiveListeners)

	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)
	assert.True(t, w.lastOpts.Passive)
}

func TestResize_RecomputesPercentageOffsets(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w, WithSettings(Settings{ScrollThrottle: 10, ResizeThrottle: 30, IdleTimeout: 0}))
	key, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}, Offset: "50%"})
	require.NoError(t, err)
	m, _ := sm.Mark(key)
	assert.Equal(t, 600.0, m.TriggerPoint())

	w.viewport = 400
	w.dispatch(EventResize)
	w.runFrames(29)
	assert.Equal(t, 600.0, m.TriggerPoint())
	w.runFrames(1)
	assert.Equal(t, 800.0, m.TriggerPoint())
}

func TestResizeEvents_DeferAndCoalesce(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	_, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		w.dispatch(EventResize)
	}
	assert.False(t, sm.resized, "flag waits for the next frame")
	assert.Len(t, w.frames, 2, "tick plus one flag callback")

	w.runFrames(1)
	assert.True(t, sm.resized)

	w.dispatch(EventResize)
	sm.Stop()
	assert.False(t, sm.resized)
	assert.Empty(t, w.frames, "stop cancels the pending flag")
}

func TestHeightChange_RecomputesOnIdle(t *testing.T) {
	fw := newFakeWindow()
	w := idleWindow{fw}
	sm := newTestMarks(t, w)
	assert.True(t, sm.Capabilities().IdleCallback)

	el := element(fw, 1000)
	key, err := sm.Add(Spec{Element: el, Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)

	fw.tops[el] = 1500
	fw.docHeight = 6000
	fw.runFrames(30)
	m, _ := sm.Mark(key)
	assert.Equal(t, 1000.0, m.TriggerPoint(), "recompute waits for idle")
	require.Len(t, fw.idleQueue, 1)

	w.runIdle()
	assert.Equal(t, 1500.0, m.TriggerPoint())

	fw.runFrames(30)
	assert.Empty(t, fw.idleQueue, "unchanged height does not recompute")
}

func TestIdle_FallsBackToTimer(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	assert.False(t, sm.Capabilities().IdleCallback)

	el := element(w, 1000)
	key, err := sm.Add(Spec{Element: el, Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)

	w.tops[el] = 1200
	sm.Refresh()
	require.Len(t, w.timers, 1)
	w.runTimers()
	m, _ := sm.Mark(key)
	assert.Equal(t, 1200.0, m.TriggerPoint())
}

func TestRefreshMark(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w, WithSettings(Settings{ScrollThrottle: 10, ResizeThrottle: 30, IdleTimeout: 0}))
	el := element(w, 1000)
	key, err := sm.Add(Spec{Element: el, Callback: func(Direction, *Mark) {}})
	require.NoError(t, err)

	w.tops[el] = 700
	require.NoError(t, sm.RefreshMark(key))
	m, _ := sm.Mark(key)
	assert.Equal(t, 700.0, m.TriggerPoint())

	err = sm.RefreshMark(99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ReferenceError, Classify(err))
}

func TestRefresh_KeepsTriggerPointWhenOffsetFails(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w, WithSettings(Settings{ScrollThrottle: 10, ResizeThrottle: 30, IdleTimeout: 0}))
	broken := false
	key, err := sm.Add(Spec{
		Element:  element(w, 1000),
		Callback: func(Direction, *Mark) {},
		Offset: OffsetFunc(func(*html.Node) float64 {
			if broken {
				return math.NaN()
			}
			return 100
		}),
	})
	require.NoError(t, err)

	broken = true
	sm.Refresh()
	m, _ := sm.Mark(key)
	assert.Equal(t, 900.0, m.TriggerPoint())
}

func TestSetDebug_DOMHelper(t *testing.T) {
	w := newFakeWindow()
	doc := html.NewDocument()
	changes := 0
	sm := newTestMarks(t, w, WithDebugSinks(DOMHelpers(doc, func() { changes++ })))

	key, err := sm.Add(Spec{Element: element(w, 1000), Callback: func(Direction, *Mark) {}, Offset: "100px", Debug: true})
	require.NoError(t, err)

	body := doc.Body()
	require.Len(t, body.Children, 1)
	helper := body.Children[0]
	assert.Equal(t, "900px", helper.Style()["top"])
	assert.Equal(t, "absolute", helper.Style()["position"])
	assert.Equal(t, "offset: 100px, computedOffset: 100, triggerPoint: 900px", helper.TextContent())
	assert.Positive(t, changes)

	require.NoError(t, sm.SetDebug(key, false))
	assert.Empty(t, body.Children)

	require.NoError(t, sm.SetDebug(key, true))
	assert.Len(t, body.Children, 1)

	require.True(t, sm.Remove(key))
	assert.Empty(t, body.Children, "helper removed with its mark")

	assert.ErrorIs(t, sm.SetDebug(key, true), ErrNotFound)
}

func TestConfig_Defaults(t *testing.T) {
	sm := newTestMarks(t, newFakeWindow())
	assert.Equal(t, Settings{ScrollThrottle: 10, ResizeThrottle: 30, IdleTimeout: 100}, sm.Config())
}

func TestSetConfig(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		class   ErrorClass
		target  error
	}{
		{"zero throttle", map[string]any{OptScrollThrottle: 0}, RangeError, ErrOutOfRange},
		{"negative idle", map[string]any{OptIdleTimeout: -1}, RangeError, ErrOutOfRange},
		{"string", map[string]any{OptResizeThrottle: "5"}, TypeError, ErrNotANumber},
		{"fraction", map[string]any{OptScrollThrottle: 2.5}, TypeError, ErrNotANumber},
		{"unknown", map[string]any{"speed": 1}, ReferenceError, ErrUnknownOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newTestMarks(t, newFakeWindow())
			err := sm.SetConfig(tt.options)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
			assert.Equal(t, tt.class, Classify(err))
			assert.Equal(t, DefaultSettings(), sm.Config())
		})
	}

	sm := newTestMarks(t, newFakeWindow())
	require.NoError(t, sm.SetConfig(map[string]any{OptScrollThrottle: 1, OptIdleTimeout: 0.0}))
	assert.Equal(t, Settings{ScrollThrottle: 1, ResizeThrottle: 30, IdleTimeout: 0}, sm.Config())

	err := sm.SetConfig(map[string]any{OptScrollThrottle: 5, OptResizeThrottle: 0})
	require.Error(t, err)
	assert.Equal(t, 1, sm.Config().ScrollThrottle, "nothing applied on error")
	assert.True(t, strings.HasPrefix(err.Error(), "Config parameter 'resizeThrottle' must be at least 1"))
}

func TestSetConfig_ThrottleChangesCadence(t *testing.T) {
	w := newFakeWindow()
	sm := newTestMarks(t, w)
	rec := &recorder{}
	_, err := sm.Add(Spec{Element: element(w, 500), Callback: rec.callback})
	require.NoError(t, err)
	require.NoError(t, sm.SetConfig(map[string]any{OptScrollThrottle: 2}))

	w.scrollTo(600)
	w.runFrames(2)
	assert.Len(t, rec.calls, 1)
}

func TestConfigure(t *testing.T) {
	sm := newTestMarks(t, newFakeWindow())
	want := Settings{ScrollThrottle: 3, ResizeThrottle: 4, IdleTimeout: 5}
	require.NoError(t, sm.Configure(want))
	assert.Equal(t, want, sm.Config())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("UP")
	require.NoError(t, err)
	assert.Equal(t, Up, d)
	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, DirectionAny, d)
	_, err = ParseDirection("left")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestObserver_SeesDispatchBeforeCallback(t *testing.T) {
	w := newFakeWindow()
	var order []string
	sm := newTestMarks(t, w, WithObserver(func(dir Direction, m *Mark) {
		order = append(order, "observe:"+dir.String())
	}))
	_, err := sm.Add(Spec{Element: element(w, 500), Callback: func(dir Direction, m *Mark) {
		order = append(order, "callback:"+dir.String())
	}})
	require.NoError(t, err)

	scrollAndScan(w, 600)
	assert.Equal(t, []string{"observe:down", "callback:down"}, order)
}
