// smterm shows a page in the terminal, one cell per 10x20 pixels, with
// each scrollmark's trigger point drawn as a red line.
//
// Keys: arrows or j/k scroll a row, PgUp/PgDn/space a screen, Home/End jump,
// q or Esc quits.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"scrollmarks/pkg/config"
	"scrollmarks/pkg/logging"
	"scrollmarks/pkg/page"
	"scrollmarks/pkg/scrollmarks"
)

const fps = 60

func main() {
	cfgPath := flag.String("config", "", "config file or directory")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smterm [flags] <page.html>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0), *cfgPath, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, "smterm:", err)
		os.Exit(1)
	}
}

func run(path, cfgPath, logFile string) error {
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, cfgPath)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings(scrollmarks.DefaultSettings())
	if err != nil {
		return err
	}
	// the terminal belongs to the view, so logs only go to a file
	log := zerolog.Nop()
	if logFile != "" {
		f, err := fs.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		if log, err = logging.New(f, logging.Options{Level: cfg.LogLevel, NoColor: true}); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	w, h := screen.Size()
	s, err := page.Open(path, page.Options{
		Width:    float64(w) * colPx,
		Height:   float64(max(h-1, 1)) * rowPx,
		Settings: settings,
		Log:      log,
		Fs:       fs,
	})
	if err != nil {
		return err
	}
	v := newView(screen, s)
	s.Window.AfterFrame(v.draw)

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / fps)
	defer ticker.Stop()
	for {
		select {
		case ev := <-events:
			if !v.handle(ev) {
				return nil
			}
		case <-ticker.C:
			s.Window.Frame()
		}
	}
}
