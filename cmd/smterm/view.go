package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"scrollmarks/pkg/layout"
	"scrollmarks/pkg/page"
	"scrollmarks/pkg/render"
)

// One terminal cell stands for a rowPx by colPx patch of the page.
const (
	rowPx = 20.0
	colPx = 10.0
)

var (
	markStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	statusStyle = tcell.StyleDefault.Reverse(true)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

type view struct {
	screen tcell.Screen
	s      *page.Session
	last   string
	dirty  bool
}

func newView(screen tcell.Screen, s *page.Session) *view {
	v := &view{screen: screen, s: s, dirty: true}
	s.OnEvent(func(e page.Event) {
		v.last = e.String()
		v.dirty = true
	})
	return v
}

// fit resizes the page viewport to the terminal, keeping the last row for
// the status line.
func (v *view) fit() {
	w, h := v.screen.Size()
	v.s.Window.Resize(float64(w)*colPx, float64(max(h-1, 1))*rowPx)
	v.dirty = true
}

// handle applies one terminal event. It returns false when the user asked
// to quit.
func (v *view) handle(ev tcell.Event) bool {
	win := v.s.Window
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyDown:
			win.ScrollBy(rowPx)
		case tcell.KeyUp:
			win.ScrollBy(-rowPx)
		case tcell.KeyPgDn:
			win.ScrollBy(win.ViewportHeight() - rowPx)
		case tcell.KeyPgUp:
			win.ScrollBy(rowPx - win.ViewportHeight())
		case tcell.KeyHome:
			win.ScrollTo(0)
		case tcell.KeyEnd:
			win.ScrollTo(win.MaxScroll())
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'j':
				win.ScrollBy(rowPx)
			case 'k':
				win.ScrollBy(-rowPx)
			case ' ':
				win.ScrollBy(win.ViewportHeight() - rowPx)
			}
		}
		v.dirty = true
	case *tcell.EventResize:
		v.fit()
		v.screen.Sync()
	}
	return true
}

// draw repaints the screen if anything changed since the last call.
func (v *view) draw() {
	if !v.dirty {
		return
	}
	v.dirty = false
	v.screen.Clear()

	w, h := v.screen.Size()
	rows := h - 1
	scrollY := v.s.Window.ScrollY()

	walk(v.s.Window.Boxes(), func(b *layout.Box) {
		top := int(math.Floor((b.Y - scrollY) / rowPx))
		left := int(b.X / colPx)
		if b.IsText() {
			v.put(left, top, rows, b.Text, textStyle)
			return
		}
		bg, ok := render.BackgroundColor(b.Style)
		if !ok {
			return
		}
		style := tcell.StyleDefault.Background(toTcell(bg))
		bottom := int(math.Ceil((b.Bottom() - scrollY) / rowPx))
		right := int(math.Ceil((b.X + b.BorderBoxWidth()) / colPx))
		for y := max(top, 0); y < min(bottom, rows); y++ {
			for x := max(left, 0); x < min(right, w); x++ {
				v.screen.SetContent(x, y, ' ', nil, style)
			}
		}
	})

	for _, m := range v.s.Marks() {
		y := int(math.Floor((m.TriggerPoint() - scrollY) / rowPx))
		if y < 0 || y >= rows {
			continue
		}
		for x := 0; x < w; x++ {
			v.screen.SetContent(x, y, tcell.RuneHLine, nil, markStyle)
		}
		v.put(2, y, rows, fmt.Sprintf(" mark %d %s ", m.Key(), page.Describe(m.Element())), markStyle)
	}

	status := fmt.Sprintf(" scrollY %g/%g  %d marks  %d dispatches  %s",
		scrollY, v.s.Window.MaxScroll(), len(v.s.Marks()), len(v.s.Events()), v.last)
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, h-1, ' ', nil, statusStyle)
	}
	v.put(0, h-1, h, status, statusStyle)
	v.screen.Show()
}

func (v *view) put(x, y, rows int, s string, style tcell.Style) {
	if y < 0 || y >= rows {
		return
	}
	w, _ := v.screen.Size()
	for _, r := range s {
		if x >= w {
			return
		}
		if x >= 0 {
			v.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

func walk(boxes []*layout.Box, fn func(*layout.Box)) {
	for _, b := range boxes {
		fn(b)
		walk(b.Children, fn)
	}
}

func toTcell(c color.Color) tcell.Color {
	r, g, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}
