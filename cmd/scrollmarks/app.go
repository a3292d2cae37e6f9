package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"scrollmarks/pkg/config"
	"scrollmarks/pkg/logging"
	"scrollmarks/pkg/page"
	"scrollmarks/pkg/scrollmarks"
	"scrollmarks/pkg/visualtest"
)

const runDescription = `Loads an HTML page, runs its scripts, then scrolls through the given
positions one by one, printing every scrollmark dispatch as it happens.

Example:
   scrollmarks run --scroll 0,1200,0 --png end.png page.html`

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "config file, or a directory holding scrollmarks.{yaml,json,toml}",
		EnvVar: "SCROLLMARKS_CONFIG",
	},
	cli.StringFlag{
		Name:  "log-level, l",
		Usage: "trace, debug, info, warn, error or off (overrides the config file)",
	},
	cli.BoolFlag{
		Name:  "log-json",
		Usage: "write logs as JSON",
	},
}

var runFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "scroll, s",
		Usage: "comma separated scroll positions to visit, e.g. 0,600,0",
	},
	cli.IntFlag{
		Name:  "frames, f",
		Usage: "frames to run after each scroll step",
		Value: page.DefaultStepFrames,
	},
	cli.Float64Flag{
		Name:  "width",
		Usage: "viewport width in pixels",
		Value: 800,
	},
	cli.Float64Flag{
		Name:  "height",
		Usage: "viewport height in pixels",
		Value: 600,
	},
	cli.StringFlag{
		Name:  "png, o",
		Usage: "save a snapshot of the final viewport to this file",
	},
	cli.StringFlag{
		Name:  "expect, e",
		Usage: "fail unless the final viewport matches this reference PNG",
	},
	cli.IntFlag{
		Name:  "tolerance",
		Usage: "per channel difference still treated as equal when comparing with --expect",
		Value: visualtest.DefaultOptions().Tolerance,
	},
	cli.StringFlag{
		Name:  "diff",
		Usage: "write a diff image here when --expect does not match",
	},
	cli.BoolFlag{
		Name:  "no-idle",
		Usage: "hide requestIdleCallback so recomputation falls back to timers",
	},
	cli.BoolFlag{
		Name:  "no-passive",
		Usage: "reject passive event listeners",
	},
}

// newApp builds the command tree. fs backs every file the commands touch.
func newApp(fs afero.Fs, stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "scrollmarks"
	app.HelpName = "scrollmarks"
	app.Usage = "watch scroll positions cross element trigger points"
	app.UsageText = "scrollmarks [global options] <command> [arguments...]"
	app.Version = version
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		{
			Name:        "run",
			Aliases:     []string{"r"},
			Usage:       "load a page and replay a scroll path",
			ArgsUsage:   "<page.html>",
			Description: runDescription,
			Flags:       runFlags,
			Action: func(ctx *cli.Context) error {
				return runPage(ctx, fs)
			},
		},
		{
			Name:  "config",
			Usage: "print the effective settings",
			Action: func(ctx *cli.Context) error {
				return printConfig(ctx, fs)
			},
		},
	}
	return app
}

// setup loads configuration and builds the logger from the global flags.
func setup(ctx *cli.Context, fs afero.Fs) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(fs, ctx.GlobalString("config"))
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level := cfg.LogLevel
	if ctx.GlobalIsSet("log-level") {
		level = ctx.GlobalString("log-level")
	}
	log, err := logging.New(ctx.App.ErrWriter, logging.Options{
		Level:   level,
		JSON:    ctx.GlobalBool("log-json"),
		NoColor: true,
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if cfg.File != "" {
		log.Debug().Str("file", cfg.File).Strs("options", cfg.Keys()).Msg("config loaded")
	}
	return cfg, log, nil
}

func runPage(ctx *cli.Context, fs afero.Fs) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one page, see 'scrollmarks help run'")
	}
	cfg, log, err := setup(ctx, fs)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings(scrollmarks.DefaultSettings())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	path, err := page.ParseScrollPath(ctx.String("scroll"))
	if err != nil {
		return err
	}

	s, err := page.Open(ctx.Args().First(), page.Options{
		Width:     ctx.Float64("width"),
		Height:    ctx.Float64("height"),
		Settings:  settings,
		Log:       log,
		Fs:        fs,
		NoIdle:    ctx.Bool("no-idle"),
		NoPassive: ctx.Bool("no-passive"),
	})
	if err != nil {
		return err
	}

	out := ctx.App.Writer
	fmt.Fprintf(out, "loaded %s: %d marks, document height %g\n",
		ctx.Args().First(), len(s.Marks()), s.Window.DocumentHeight())
	for _, m := range s.Marks() {
		fmt.Fprintf(out, "  %s\n", describeMark(m))
	}
	s.OnEvent(func(e page.Event) { fmt.Fprintln(out, e) })
	s.Replay(path, ctx.Int("frames"))
	fmt.Fprintf(out, "%d dispatches, final scrollY %g\n", len(s.Events()), s.Window.ScrollY())

	if dst := ctx.String("png"); dst != "" {
		if err := s.WritePNG(fs, dst); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		log.Info().Str("file", dst).Msg("snapshot saved")
	}
	if ref := ctx.String("expect"); ref != "" {
		return expect(ctx, fs, s, ref)
	}
	return nil
}

func expect(ctx *cli.Context, fs afero.Fs, s *page.Session, ref string) error {
	opts := visualtest.CompareOptions{
		Tolerance: ctx.Int("tolerance"),
		Diff:      ctx.String("diff") != "",
	}
	res, err := s.Matches(fs, ref, opts)
	if err != nil {
		return err
	}
	if res.Match {
		fmt.Fprintf(ctx.App.Writer, "snapshot matches %s\n", ref)
		return nil
	}
	if res.Diff != nil {
		if err := visualtest.SavePNG(fs, ctx.String("diff"), res.Diff); err != nil {
			return fmt.Errorf("writing diff: %w", err)
		}
	}
	return fmt.Errorf("snapshot differs from %s: %d of %d pixels (%.2f%%), max channel difference %d",
		ref, res.DifferentPixels, res.TotalPixels, res.DifferentPercent(), res.MaxDifference)
}

func describeMark(m *scrollmarks.Mark) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mark %d %s trigger=%g", m.Key(), page.Describe(m.Element()), m.TriggerPoint())
	if d := m.Direction(); d != scrollmarks.DirectionAny {
		fmt.Fprintf(&b, " direction=%s", d)
	}
	if m.Once() {
		b.WriteString(" once")
	}
	return b.String()
}

func printConfig(ctx *cli.Context, fs afero.Fs) error {
	cfg, _, err := setup(ctx, fs)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings(scrollmarks.DefaultSettings())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	out := ctx.App.Writer
	file := cfg.File
	if file == "" {
		file = "(none)"
	}
	fmt.Fprintf(out, "file = %s\n", file)
	fmt.Fprintf(out, "%s = %s\n", config.KeyLogLevel, cfg.LogLevel)
	values := settings.Map()
	for _, name := range scrollmarks.OptionNames() {
		source := "default"
		if _, ok := cfg.Options[name]; ok {
			source = "set"
		}
		fmt.Fprintf(out, "%s = %v (%s)\n", name, values[name], source)
	}
	return nil
}
