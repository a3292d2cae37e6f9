package js

import (
	"time"

	"github.com/dop251/goja"

	"scrollmarks/pkg/browser"
	"scrollmarks/pkg/scrollmarks"
)

// registerWindow installs the window API on the global object, which also
// serves as `window`.
func registerWindow(vm *goja.Runtime, win *browser.Window, ctx *domContext) {
	global := vm.GlobalObject()
	vm.Set("window", global)

	getter := func(fn func() float64) goja.Value {
		return vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(fn()) })
	}
	for name, fn := range map[string]func() float64{
		"pageYOffset": win.ScrollY,
		"scrollY":     win.ScrollY,
		"innerHeight": win.ViewportHeight,
		"innerWidth":  win.ViewportWidth,
	} {
		global.DefineAccessorProperty(name, getter(fn), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}

	global.Set("scrollTo", func(call goja.FunctionCall) goja.Value {
		win.ScrollTo(scrollTarget(vm, call, win.ScrollY()))
		return goja.Undefined()
	})
	global.Set("scrollBy", func(call goja.FunctionCall) goja.Value {
		win.ScrollBy(scrollTarget(vm, call, 0))
		return goja.Undefined()
	})

	global.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		fn := callable(vm, call.Argument(0), "requestAnimationFrame")
		return vm.ToValue(win.RequestAnimationFrame(func() {
			invoke(ctx, fn, "requestAnimationFrame", vm.ToValue(win.Now().Milliseconds()))
		}))
	})
	global.Set("cancelAnimationFrame", func(call goja.FunctionCall) goja.Value {
		win.CancelAnimationFrame(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	global.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn := callable(vm, call.Argument(0), "setTimeout")
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		return vm.ToValue(win.SetTimeout(func() { invoke(ctx, fn, "setTimeout") }, delay))
	})
	global.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		win.ClearTimeout(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	if win.SupportsIdleCallback() {
		global.Set("requestIdleCallback", func(call goja.FunctionCall) goja.Value {
			fn := callable(vm, call.Argument(0), "requestIdleCallback")
			var timeout time.Duration
			if opts, ok := call.Argument(1).(*goja.Object); ok {
				if v := opts.Get("timeout"); v != nil {
					timeout = time.Duration(v.ToInteger()) * time.Millisecond
				}
			}
			win.RequestIdleCallback(func() { invoke(ctx, fn, "requestIdleCallback") }, timeout)
			return goja.Undefined()
		})
	}

	listeners := make(map[goja.Value]int)
	global.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0).String()
		fn := callable(vm, call.Argument(1), "addEventListener")
		var opts scrollmarks.ListenerOptions
		if o, ok := call.Argument(2).(*goja.Object); ok {
			if v := o.Get("passive"); v != nil {
				opts.Passive = v.ToBoolean()
			}
		}
		listeners[call.Argument(1)] = win.AddEventListener(event, func() { invoke(ctx, fn, event) }, opts)
		return goja.Undefined()
	})
	global.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		if handle, ok := listeners[call.Argument(1)]; ok {
			win.RemoveEventListener(call.Argument(0).String(), handle)
			delete(listeners, call.Argument(1))
		}
		return goja.Undefined()
	})
}

// scrollTarget reads scrollTo(x, y), scrollTo({top}) and their scrollBy
// counterparts. fallback is used when no vertical coordinate is given.
func scrollTarget(vm *goja.Runtime, call goja.FunctionCall, fallback float64) float64 {
	if opts, ok := call.Argument(0).(*goja.Object); ok && len(call.Arguments) == 1 {
		if v := opts.Get("top"); v != nil && !goja.IsUndefined(v) {
			return v.ToFloat()
		}
		return fallback
	}
	if len(call.Arguments) < 2 {
		return fallback
	}
	return call.Argument(1).ToFloat()
}

func callable(vm *goja.Runtime, v goja.Value, api string) goja.Callable {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		panic(vm.NewTypeError("Failed to execute '" + api + "': parameter 1 is not a function"))
	}
	return fn
}

// invoke runs a callback scheduled from script. Exceptions are logged so
// one failing callback does not take the event loop down.
func invoke(ctx *domContext, fn goja.Callable, source string, args ...goja.Value) {
	if _, err := fn(goja.Undefined(), args...); err != nil {
		ctx.log.Error().Err(err).Str("callback", source).Msg("uncaught exception")
	}
}
