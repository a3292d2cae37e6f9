package js

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/metric"

	"scrollmarks/pkg/browser"
	"scrollmarks/pkg/scrollmarks"
)

// Engine executes page scripts against a browser.Window. Scripts see
// window, document, console, require and ScrollMarks globals.
//
// Like the window it drives, an Engine is single threaded: call it from the
// window's loop only.
type Engine struct {
	vm    *goja.Runtime
	win   *browser.Window
	log   zerolog.Logger
	dom   *domContext
	marks *scrollmarks.ScrollMarks
}

type Option func(*config)

type config struct {
	log      zerolog.Logger
	fs       afero.Fs
	settings scrollmarks.Settings
	provider metric.MeterProvider
	observe  scrollmarks.Callback
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithFs sets the filesystem require() loads modules from.
func WithFs(fs afero.Fs) Option {
	return func(c *config) { c.fs = fs }
}

func WithSettings(s scrollmarks.Settings) Option {
	return func(c *config) { c.settings = s }
}

func WithMeterProvider(p metric.MeterProvider) Option {
	return func(c *config) { c.provider = p }
}

// WithObserver sees every mark dispatch, including marks added by scripts.
func WithObserver(fn scrollmarks.Callback) Option {
	return func(c *config) { c.observe = fn }
}

// New creates a JS engine bound to win.
func New(win *browser.Window, opts ...Option) (*Engine, error) {
	c := config{
		log:      zerolog.Nop(),
		fs:       afero.NewOsFs(),
		settings: scrollmarks.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	marks, err := scrollmarks.New(win.Host(),
		scrollmarks.WithLogger(c.log),
		scrollmarks.WithSettings(c.settings),
		scrollmarks.WithDebugSinks(scrollmarks.DOMHelpers(win.Document(), win.Invalidate)),
		scrollmarks.WithMeterProvider(c.provider),
		scrollmarks.WithObserver(c.observe),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scrollmarks: %w", err)
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	registry := require.NewRegistry(require.WithLoader(moduleLoader(c.fs)))
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(&consolePrinter{log: c.log}))
	registry.Enable(vm)
	console.Enable(vm)

	e := &Engine{vm: vm, win: win, log: c.log, marks: marks}
	e.dom = registerDocument(vm, win, c.log)
	registerWindow(vm, win, e.dom)
	registerScrollMarks(e.dom, marks)
	return e, nil
}

// ScrollMarks returns the instance page scripts talk to.
func (e *Engine) ScrollMarks() *scrollmarks.ScrollMarks { return e.marks }

// Runtime exposes the underlying goja runtime.
func (e *Engine) Runtime() *goja.Runtime { return e.vm }

// Execute runs the document's inline scripts in order. It stops at the
// first script that throws.
func (e *Engine) Execute() error {
	for i, script := range e.win.Document().Scripts {
		if _, err := e.vm.RunScript(fmt.Sprintf("script%d.js", i), script); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
	}
	return nil
}

// Eval runs a single piece of source.
func (e *Engine) Eval(src string) (goja.Value, error) {
	return e.vm.RunString(src)
}

func moduleLoader(fsys afero.Fs) require.SourceLoader {
	return func(path string) ([]byte, error) {
		data, err := afero.ReadFile(fsys, path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, require.ModuleFileDoesNotExistError
		}
		return data, err
	}
}
