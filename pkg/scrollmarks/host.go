package scrollmarks

import (
	"time"

	"scrollmarks/pkg/html"
)

// Native event names the scheduler subscribes to.
const (
	EventScroll = "scroll"
	EventResize = "resize"
)

// Layout answers geometry questions about the root document.
type Layout interface {
	// ScrollY is the current vertical scroll offset of the document.
	ScrollY() float64
	// ViewportHeight is the height of the visible area.
	ViewportHeight() float64
	// DocumentHeight is the total scrollable height.
	DocumentHeight() float64
	// BoundingTop is the top of el relative to the viewport.
	BoundingTop(el *html.Node) float64
	// IsRendered reports whether el currently generates a box.
	IsRendered(el *html.Node) bool
}

// FrameScheduler runs callbacks before the next repaint.
type FrameScheduler interface {
	RequestAnimationFrame(fn func()) int
	CancelAnimationFrame(handle int)
}

// IdleScheduler runs low priority work. fn must run once timeout has
// elapsed even if the host never goes idle.
type IdleScheduler interface {
	RequestIdleCallback(fn func(), timeout time.Duration)
}

// TimerScheduler is the delayed execution primitive used when the host has
// no idle scheduler.
type TimerScheduler interface {
	SetTimeout(fn func(), delay time.Duration) int
}

type ListenerOptions struct {
	Passive bool
}

// EventTarget delivers native scroll and resize notifications.
type EventTarget interface {
	AddEventListener(event string, fn func(), opts ListenerOptions) int
	RemoveEventListener(event string, handle int)
}

// Host bundles the collaborators a ScrollMarks instance runs against.
// Idle is optional; Timers is then required.
type Host struct {
	Layout Layout
	Frames FrameScheduler
	Idle   IdleScheduler
	Timers TimerScheduler
	Events EventTarget
}

// Window is a single value providing every collaborator, such as
// browser.Window.
type Window interface {
	Layout
	FrameScheduler
	TimerScheduler
	EventTarget
}

// HostFor builds a Host from w, using w as idle scheduler when it has one.
func HostFor(w Window) Host {
	h := Host{Layout: w, Frames: w, Timers: w, Events: w}
	if idle, ok := w.(IdleScheduler); ok {
		h.Idle = idle
	}
	return h
}

func (h Host) validate() error {
	switch {
	case h.Layout == nil:
		return ErrIncompleteHost
	case h.Frames == nil:
		return ErrIncompleteHost
	case h.Events == nil:
		return ErrIncompleteHost
	case h.Idle == nil && h.Timers == nil:
		return ErrIncompleteHost
	}
	return nil
}

// Capabilities records what the host supports. It is probed once, when the
// ScrollMarks instance is created.
type Capabilities struct {
	PassiveListeners bool
	IdleCallback     bool
}

// ProbeCapabilities inspects h. Collaborators may opt out of a capability
// they nominally implement through SupportsPassive or SupportsIdleCallback.
func ProbeCapabilities(h Host) Capabilities {
	var caps Capabilities
	if p, ok := h.Events.(interface{ SupportsPassive() bool }); ok {
		caps.PassiveListeners = p.SupportsPassive()
	}
	if h.Idle != nil {
		caps.IdleCallback = true
		if p, ok := h.Idle.(interface{ SupportsIdleCallback() bool }); ok {
			caps.IdleCallback = p.SupportsIdleCallback()
		}
	}
	if h.Timers == nil {
		// nothing to fall back to
		caps.IdleCallback = h.Idle != nil
	}
	return caps
}
