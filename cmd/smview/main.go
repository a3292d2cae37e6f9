// smview opens a page in a window and shows scrollmark dispatches live as
// you scroll it.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/afero"

	"scrollmarks/pkg/config"
	"scrollmarks/pkg/logging"
	"scrollmarks/pkg/page"
	"scrollmarks/pkg/scrollmarks"
)

const (
	fps        = 60
	logLines   = 8
	wheelSpeed = 40.0
)

func main() {
	width := flag.Int("w", 800, "viewport width in pixels")
	height := flag.Int("h", 600, "viewport height in pixels")
	cfgPath := flag.String("config", "", "config file or directory")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smview [flags] <page.html>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := view(flag.Arg(0), float64(*width), float64(*height), *cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "smview:", err)
		os.Exit(1)
	}
}

func view(path string, width, height float64, cfgPath string) error {
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, cfgPath)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings(scrollmarks.DefaultSettings())
	if err != nil {
		return err
	}
	log, err := logging.Stderr(cfg.LogLevel)
	if err != nil {
		return err
	}
	s, err := page.Open(path, page.Options{Width: width, Height: height, Settings: settings, Log: log, Fs: fs})
	if err != nil {
		return err
	}

	a := app.New()
	w := a.NewWindow("smview - " + path)
	w.Resize(fyne.NewSize(float32(width)+40, float32(height)+160))

	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, int(width), int(height))))
	img.FillMode = canvas.ImageFillOriginal
	status := widget.NewLabel("")
	events := widget.NewLabel("no dispatches yet")
	events.TextStyle = fyne.TextStyle{Monospace: true}

	win := s.Window
	slider := widget.NewSlider(0, max(win.MaxScroll(), 1))
	slider.Orientation = widget.Vertical
	slider.OnChanged = func(v float64) {
		// vertical sliders grow upwards
		y := slider.Max - v
		win.Post(func() { win.ScrollTo(y) })
	}
	slider.SetValue(slider.Max)

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		var dy float64
		switch ev.Name {
		case fyne.KeyDown:
			dy = wheelSpeed
		case fyne.KeyUp:
			dy = -wheelSpeed
		case fyne.KeyPageDown, fyne.KeySpace:
			dy = height * 0.9
		case fyne.KeyPageUp:
			dy = -height * 0.9
		case fyne.KeyHome:
			dy = -win.MaxScroll()
		case fyne.KeyEnd:
			dy = win.MaxScroll()
		default:
			return
		}
		slider.SetValue(slider.Value - dy)
	})

	var recent []string
	s.OnEvent(func(e page.Event) {
		recent = append(recent, e.String())
		if len(recent) > logLines {
			recent = recent[len(recent)-logLines:]
		}
	})

	lastY, lastEvents := -1.0, -1
	win.AfterFrame(func() {
		n := len(s.Events())
		if win.ScrollY() == lastY && n == lastEvents {
			return
		}
		lastY, lastEvents = win.ScrollY(), n
		snap := s.Snapshot()
		text := fmt.Sprintf("scrollY %g of %g, %d marks, %d dispatches",
			win.ScrollY(), win.MaxScroll(), s.Engine.ScrollMarks().Len(), n)
		lines := strings.Join(recent, "\n")
		fyne.Do(func() {
			img.Image = snap
			img.Refresh()
			status.SetText(text)
			if lines != "" {
				events.SetText(lines)
			}
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go win.Run(ctx, fps)

	bottom := container.NewVBox(status, events)
	w.SetContent(container.NewBorder(nil, bottom, nil, slider, img))
	w.ShowAndRun()
	return nil
}
