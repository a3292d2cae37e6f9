package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollmarks/pkg/html"
	"scrollmarks/pkg/scrollmarks"
)

const page = `<body style="margin: 0">
	<div style="height: 1000px"></div>
	<div id="target" style="height: 100px"></div>
	<div id="hidden" style="display: none; height: 50px"></div>
	<div style="height: 2000px"></div>
	<div id="pinned" style="position: fixed; top: 10px; height: 20px"></div>
</body>`

func newWindow(t *testing.T, opts ...Option) *Window {
	t.Helper()
	doc, err := html.Parse(page)
	require.NoError(t, err)
	return New(doc, 800, 600, opts...)
}

func TestWindow_Geometry(t *testing.T) {
	w := newWindow(t)
	target := w.Document().GetElementById("target")

	assert.Equal(t, 3100.0, w.DocumentHeight())
	assert.Equal(t, 2500.0, w.MaxScroll())
	assert.Equal(t, 1000.0, w.BoundingTop(target))

	w.ScrollTo(400)
	r := w.BoundingRect(target)
	assert.Equal(t, 600.0, r.Top)
	assert.Equal(t, 700.0, r.Bottom())
	assert.Equal(t, 800.0, r.Width)

	pinned := w.Document().GetElementById("pinned")
	assert.Equal(t, 10.0, w.BoundingTop(pinned), "fixed boxes ignore scroll")

	assert.True(t, w.IsRendered(target))
	assert.False(t, w.IsRendered(w.Document().GetElementById("hidden")))
	assert.False(t, w.IsRendered(html.NewElement("div")), "detached")
}

func TestWindow_ScrollClampsAndNotifies(t *testing.T) {
	w := newWindow(t)
	events := 0
	w.AddEventListener(scrollmarks.EventScroll, func() { events++ }, scrollmarks.ListenerOptions{Passive: true})
	assert.True(t, w.Passive(scrollmarks.EventScroll))

	w.ScrollTo(-50)
	assert.Equal(t, 0.0, w.ScrollY())
	assert.Equal(t, 0, events, "no movement, no event")

	w.ScrollTo(10000)
	assert.Equal(t, 2500.0, w.ScrollY())
	w.ScrollBy(-500)
	assert.Equal(t, 2000.0, w.ScrollY())
	assert.Equal(t, 2, events)
}

func TestWindow_PassiveRejected(t *testing.T) {
	w := newWindow(t, WithoutPassiveListeners())
	w.AddEventListener(scrollmarks.EventScroll, func() {}, scrollmarks.ListenerOptions{Passive: true})
	assert.False(t, w.Passive(scrollmarks.EventScroll))
}

func TestWindow_ResizeRelayouts(t *testing.T) {
	w := newWindow(t)
	resized := 0
	handle := w.AddEventListener(scrollmarks.EventResize, func() { resized++ }, scrollmarks.ListenerOptions{})
	w.ScrollTo(2500)

	w.Resize(800, 1000)
	assert.Equal(t, 1, resized)
	assert.Equal(t, 2100.0, w.ScrollY(), "scroll clamped to the new limit")

	w.Resize(800, 1000)
	assert.Equal(t, 1, resized)

	w.RemoveEventListener(scrollmarks.EventResize, handle)
	w.Resize(400, 400)
	assert.Equal(t, 1, resized)
	assert.Equal(t, 0, w.ListenerCount(scrollmarks.EventResize))
}

func TestWindow_FrameOrder(t *testing.T) {
	w := newWindow(t)
	var order []string

	w.RequestIdleCallback(func() { order = append(order, "idle") }, time.Second)
	w.RequestAnimationFrame(func() {
		order = append(order, "frame")
		w.RequestAnimationFrame(func() { order = append(order, "next frame") })
	})
	w.SetTimeout(func() { order = append(order, "timer") }, 0)
	w.Post(func() { order = append(order, "posted") })
	w.AfterFrame(func() { order = append(order, "after") })

	w.Frame()
	assert.Equal(t, []string{"posted", "timer", "frame", "idle", "after"}, order)
	assert.Equal(t, FrameInterval, w.Now())

	w.Frame()
	assert.Equal(t, []string{"next frame", "after"}, order[len(order)-2:])
}

func TestWindow_CancelAndClear(t *testing.T) {
	w := newWindow(t)
	ran := false
	h := w.RequestAnimationFrame(func() { ran = true })
	w.CancelAnimationFrame(h)
	th := w.SetTimeout(func() { ran = true }, 0)
	w.ClearTimeout(th)
	w.Frames(3)
	assert.False(t, ran)
	assert.Equal(t, 0, w.PendingFrames())
}

func TestWindow_CancelLaterCallbackOfSameFrame(t *testing.T) {
	w := newWindow(t)
	var order []string
	var second int
	w.RequestAnimationFrame(func() {
		order = append(order, "first")
		w.CancelAnimationFrame(second)
	})
	second = w.RequestAnimationFrame(func() { order = append(order, "second") })
	w.RequestAnimationFrame(func() { order = append(order, "third") })

	w.Frames(2)
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestWindow_TimersWaitForDelay(t *testing.T) {
	w := newWindow(t)
	ran := false
	w.SetTimeout(func() { ran = true }, 40*time.Millisecond)
	w.Frames(2)
	assert.False(t, ran)
	w.Frame()
	assert.True(t, ran)
}

func TestWindow_IdleWaitsForQuietFrame(t *testing.T) {
	w := newWindow(t)
	ran := false
	w.RequestIdleCallback(func() { ran = true }, 100*time.Millisecond)

	for i := 0; i < 6; i++ {
		w.ScrollBy(10)
		w.Frame()
	}
	assert.False(t, ran, "busy frames before the deadline")

	w.ScrollBy(10)
	w.Frame()
	assert.True(t, ran, "deadline reached")

	ran = false
	w.RequestIdleCallback(func() { ran = true }, time.Hour)
	w.Frame()
	assert.True(t, ran, "quiet frame")
}

func TestWindow_Run(t *testing.T) {
	w := newWindow(t)
	ctx, cancel := context.WithCancel(context.Background())
	w.Post(cancel)
	err := w.Run(ctx, 1000)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, w.Now(), FrameInterval)
}

func TestWindow_DrivesScrollMarks(t *testing.T) {
	w := newWindow(t, WithoutIdleCallbacks())
	sm, err := scrollmarks.New(w.Host())
	require.NoError(t, err)
	assert.True(t, sm.Capabilities().PassiveListeners)
	assert.False(t, sm.Capabilities().IdleCallback)

	var dirs []scrollmarks.Direction
	target := w.Document().GetElementById("target")
	_, err = sm.Add(scrollmarks.Spec{
		Element:  target,
		Offset:   "50%",
		Callback: func(d scrollmarks.Direction, _ *scrollmarks.Mark) { dirs = append(dirs, d) },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, w.ListenerCount(scrollmarks.EventScroll))

	// trigger point is 1000 - 300
	w.ScrollTo(650)
	w.Frames(10)
	assert.Empty(t, dirs)

	w.ScrollTo(750)
	w.Frames(10)
	assert.Equal(t, []scrollmarks.Direction{scrollmarks.Down}, dirs)

	// a taller viewport moves the trigger point to 1000 - 450
	w.Resize(800, 900)
	w.Frames(31)
	w.ScrollTo(500)
	w.Frames(10)
	assert.Equal(t, []scrollmarks.Direction{scrollmarks.Down, scrollmarks.Up}, dirs)
}

func TestWindow_DebugHelperIsLaidOut(t *testing.T) {
	w := newWindow(t)
	sm, err := scrollmarks.New(w.Host(), scrollmarks.WithDebugSinks(scrollmarks.DOMHelpers(w.Document(), w.Invalidate)))
	require.NoError(t, err)

	_, err = sm.Add(scrollmarks.Spec{
		Element:  w.Document().GetElementById("target"),
		Offset:   100,
		Debug:    true,
		Callback: func(scrollmarks.Direction, *scrollmarks.Mark) {},
	})
	require.NoError(t, err)

	body := w.Document().Body()
	helper := body.Children[len(body.Children)-1]
	require.True(t, w.IsRendered(helper))
	assert.Equal(t, 900.0, w.BoundingTop(helper))
}
