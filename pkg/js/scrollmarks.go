package js

import (
	"fmt"
	"math"

	"github.com/dop251/goja"

	"scrollmarks/pkg/html"
	"scrollmarks/pkg/scrollmarks"
)

// marksBinding exposes a ScrollMarks instance to scripts as the global
// ScrollMarks object.
type marksBinding struct {
	ctx   *domContext
	marks *scrollmarks.ScrollMarks
}

func registerScrollMarks(ctx *domContext, marks *scrollmarks.ScrollMarks) {
	b := &marksBinding{ctx: ctx, marks: marks}
	vm := ctx.vm

	obj := vm.NewObject()
	obj.Set("add", b.add)
	obj.Set("remove", func(call goja.FunctionCall) goja.Value {
		key, ok := markKey(call.Argument(0))
		return vm.ToValue(ok && marks.Remove(key))
	})
	obj.Set("start", func(goja.FunctionCall) goja.Value {
		marks.Start()
		return goja.Undefined()
	})
	obj.Set("stop", func(goja.FunctionCall) goja.Value {
		marks.Stop()
		return goja.Undefined()
	})
	obj.Set("refresh", func(call goja.FunctionCall) goja.Value {
		if isMissing(call.Argument(0)) {
			marks.Refresh()
			return goja.Undefined()
		}
		key, ok := markKey(call.Argument(0))
		if !ok {
			b.throw(fmt.Errorf("%w: could not refresh scrollmark '%s'", scrollmarks.ErrNotFound, call.Argument(0)))
		}
		if err := marks.RefreshMark(key); err != nil {
			b.throw(err)
		}
		return goja.Undefined()
	})
	obj.Set("config", b.config)
	obj.Set("debug", func(call goja.FunctionCall) goja.Value {
		key, ok := markKey(call.Argument(0))
		if !ok {
			b.throw(fmt.Errorf("%w: '%s'", scrollmarks.ErrNotFound, call.Argument(0)))
		}
		on := len(call.Arguments) < 2 || call.Argument(1).ToBoolean()
		if err := marks.SetDebug(key, on); err != nil {
			b.throw(err)
		}
		return goja.Undefined()
	})
	vm.Set("ScrollMarks", obj)
}

func (b *marksBinding) add(call goja.FunctionCall) goja.Value {
	vm := b.ctx.vm
	params, ok := call.Argument(0).(*goja.Object)
	if !ok {
		b.throw(&scrollmarks.ParamError{Name: "params", Expected: "an object", Actual: call.Argument(0).Export(), Err: scrollmarks.ErrInvalidParameter})
	}

	elementVal := params.Get("element")
	element := b.ctx.unwrapNode(elementVal)
	if !element.IsElement() {
		b.throw(&scrollmarks.ParamError{Name: "element", Expected: "an HTML Element", Actual: exported(elementVal), Err: scrollmarks.ErrInvalidParameter})
	}
	callbackVal := params.Get("callback")
	fn, ok := goja.AssertFunction(callbackVal)
	if !ok {
		b.throw(&scrollmarks.ParamError{Name: "callback", Expected: "a function", Actual: exported(callbackVal), Err: scrollmarks.ErrInvalidParameter})
	}

	dir := scrollmarks.DirectionAny
	if v := params.Get("direction"); !isMissing(v) {
		s, isString := v.Export().(string)
		if !isString {
			b.throw(scrollmarks.InvalidOptional("direction", "'up' or 'down'", v.Export()))
		}
		var err error
		if dir, err = scrollmarks.ParseDirection(s); err != nil {
			b.throw(err)
		}
	}

	offsetVal := params.Get("offset")
	spec := scrollmarks.Spec{
		Element:   element,
		Offset:    b.offset(offsetVal),
		Direction: dir,
		Once:      b.flag(params, "once"),
		Debug:     b.flag(params, "debug"),
		Callback: func(d scrollmarks.Direction, m *scrollmarks.Mark) {
			if _, err := fn(goja.Undefined(), vm.ToValue(d.String()), b.markObject(m, offsetVal)); err != nil {
				b.ctx.log.Error().Err(err).Int("key", m.Key()).Msg("scrollmark callback threw")
			}
		},
	}
	key, err := b.marks.Add(spec)
	if err != nil {
		b.throw(err)
	}
	return vm.ToValue(key)
}

// offset converts a script value into a Spec offset. Functions are called
// with the element proxy on every recalculation.
func (b *marksBinding) offset(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	if goja.IsNull(v) {
		b.throw(scrollmarks.InvalidOptional("offset", scrollmarks.OffsetExpectation, jsLiteral("null")))
	}
	if fn, ok := goja.AssertFunction(v); ok {
		return scrollmarks.OffsetFunc(func(el *html.Node) float64 {
			res, err := fn(goja.Undefined(), b.ctx.elementProxy(el))
			if err != nil {
				b.ctx.log.Error().Err(err).Msg("offset function threw")
				return math.NaN()
			}
			return res.ToFloat()
		})
	}
	return v.Export()
}

func (b *marksBinding) markObject(m *scrollmarks.Mark, offset goja.Value) goja.Value {
	vm := b.ctx.vm
	obj := vm.NewObject()
	obj.Set("key", m.Key())
	obj.Set("element", b.ctx.elementProxy(m.Element()))
	if offset == nil {
		offset = goja.Undefined()
	}
	obj.Set("offset", offset)
	obj.Set("triggerPoint", m.TriggerPoint())
	if d := m.Direction(); d != scrollmarks.DirectionAny {
		obj.Set("direction", d.String())
	}
	obj.Set("once", m.Once())
	obj.Set("debug", m.Debug())
	return obj
}

// config returns the current settings when called without arguments and
// applies an options object otherwise.
func (b *marksBinding) config(call goja.FunctionCall) goja.Value {
	vm := b.ctx.vm
	if isMissing(call.Argument(0)) {
		return vm.ToValue(b.marks.Config().Map())
	}
	opts, ok := call.Argument(0).(*goja.Object)
	if !ok {
		b.throw(&scrollmarks.ParamError{Name: "options", Expected: "an object", Actual: call.Argument(0).Export(), Err: scrollmarks.ErrInvalidParameter})
	}
	values := make(map[string]any)
	for _, k := range opts.Keys() {
		values[k] = opts.Get(k).Export()
	}
	if err := b.marks.SetConfig(values); err != nil {
		b.throw(err)
	}
	return goja.Undefined()
}

// throw raises err in the script as the matching JS error class.
func (b *marksBinding) throw(err error) {
	vm := b.ctx.vm
	class := scrollmarks.Classify(err)
	if class == scrollmarks.TypeError {
		panic(vm.NewTypeError(err.Error()))
	}
	ctor, ok := goja.AssertConstructor(vm.Get(class.String()))
	if !ok {
		panic(vm.NewGoError(err))
	}
	obj, cerr := ctor(nil, vm.ToValue(err.Error()))
	if cerr != nil {
		panic(vm.NewGoError(err))
	}
	panic(obj)
}

func isMissing(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// flag reads an optional boolean parameter.
func (b *marksBinding) flag(params *goja.Object, name string) bool {
	v := params.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return false
	}
	on, ok := v.Export().(bool)
	if !ok {
		b.throw(scrollmarks.InvalidOptional(name, "a boolean", exportedOrNull(v)))
	}
	return on
}

// markKey accepts integral numbers only. Anything else names no mark.
func markKey(v goja.Value) (int, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v.Export().(type) {
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	}
	return 0, false
}

// jsLiteral prints unquoted in parameter errors.
type jsLiteral string

func exportedOrNull(v goja.Value) any {
	if goja.IsNull(v) {
		return jsLiteral("null")
	}
	return v.Export()
}

func exported(v goja.Value) any {
	if isMissing(v) {
		return nil
	}
	return v.String()
}
