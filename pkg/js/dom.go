package js

import (
	"strings"
	"unicode"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"scrollmarks/pkg/browser"
	"scrollmarks/pkg/html"
)

// domContext holds shared state for DOM bindings. It keeps a node to proxy
// cache so the same JS object is returned for the same *html.Node, which
// page scripts rely on for === checks.
type domContext struct {
	vm      *goja.Runtime
	win     *browser.Window
	log     zerolog.Logger
	doc     *html.Document
	cache   map[*html.Node]*goja.Object
	objects map[*goja.Object]*html.Node
}

func newDOMContext(vm *goja.Runtime, win *browser.Window, log zerolog.Logger) *domContext {
	return &domContext{
		vm:      vm,
		win:     win,
		log:     log,
		doc:     win.Document(),
		cache:   make(map[*html.Node]*goja.Object),
		objects: make(map[*goja.Object]*html.Node),
	}
}

// changed invalidates the layout after a mutation made from script.
func (ctx *domContext) changed() { ctx.win.Invalidate() }

// registerDocument sets up the global `document` object.
func registerDocument(vm *goja.Runtime, win *browser.Window, log zerolog.Logger) *domContext {
	ctx := newDOMContext(vm, win, log)
	doc := ctx.doc

	docObj := vm.NewObject()
	docObj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		node := doc.GetElementById(call.Arguments[0].String())
		if node == nil {
			return goja.Null()
		}
		return ctx.elementProxy(node)
	})
	docObj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(findAll(doc.Root, tagSelector(strings.ToLower(call.Arguments[0].String()))))
	})
	docObj.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		classes := strings.Fields(call.Arguments[0].String())
		if len(classes) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(findAll(doc.Root, simpleSelector{classes: classes}))
	})
	docObj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return ctx.elementProxy(html.NewElement(call.Arguments[0].String()))
	})
	docObj.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		text := ""
		if len(call.Arguments) > 0 {
			text = call.Arguments[0].String()
		}
		return ctx.elementProxy(&html.Node{Type: html.TextNode, Text: text})
	})
	docObj.Set("querySelector", querySelectorFn(ctx, doc.Root))
	docObj.Set("querySelectorAll", querySelectorAllFn(ctx, doc.Root))
	docObj.DefineAccessorProperty("body", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return ctx.elementProxy(doc.Body())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	docObj.DefineAccessorProperty("documentElement", vm.ToValue(func(goja.FunctionCall) goja.Value {
		if root := doc.Root.FindTag("html"); root != nil {
			return ctx.elementProxy(root)
		}
		return goja.Null()
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	vm.Set("document", docObj)
	return ctx
}

// elementArray creates a JS array of element proxies.
func (ctx *domContext) elementArray(nodes []*html.Node) goja.Value {
	values := make([]interface{}, len(nodes))
	for i, n := range nodes {
		values[i] = ctx.elementProxy(n)
	}
	return ctx.vm.NewArray(values...)
}

// elementProxy creates (or retrieves from cache) a DynamicObject wrapping
// node.
func (ctx *domContext) elementProxy(node *html.Node) *goja.Object {
	if v, ok := ctx.cache[node]; ok {
		return v
	}
	v := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.cache[node] = v
	ctx.objects[v] = node
	return v
}

// unwrapNode returns the node behind a proxy, or nil for anything else.
func (ctx *domContext) unwrapNode(val goja.Value) *html.Node {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.objects[obj]
}

// elementAccessor implements goja.DynamicObject to intercept property
// access on element proxies.
type elementAccessor struct {
	ctx  *domContext
	node *html.Node
}

var elementKeys = []string{
	"nodeType", "nodeName", "tagName", "id", "className", "textContent",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"children", "parentElement", "style",
	"appendChild", "removeChild", "insertBefore", "remove", "contains",
	"querySelector", "querySelectorAll",
	"getBoundingClientRect", "offsetParent", "offsetTop", "offsetHeight", "offsetWidth",
	"scrollHeight", "clientHeight",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm
	n := e.node

	switch key {
	case "nodeType":
		if n.Type == html.TextNode {
			return vm.ToValue(3)
		}
		return vm.ToValue(1)
	case "nodeName":
		if n.Type == html.TextNode {
			return vm.ToValue("#text")
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "tagName":
		if n.Type == html.TextNode {
			return goja.Undefined()
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "id":
		return vm.ToValue(n.ID())
	case "className":
		cls, _ := n.GetAttribute("class")
		return vm.ToValue(cls)
	case "textContent":
		return vm.ToValue(n.TextContent())
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			val, ok := n.GetAttribute(call.Arguments[0].String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				return goja.Undefined()
			}
			n.SetAttribute(call.Arguments[0].String(), call.Arguments[1].String())
			e.ctx.changed()
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			_, ok := n.GetAttribute(call.Arguments[0].String())
			return vm.ToValue(ok)
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 && n.Attributes != nil {
				delete(n.Attributes, call.Arguments[0].String())
				e.ctx.changed()
			}
			return goja.Undefined()
		})
	case "children":
		var elChildren []*html.Node
		for _, child := range n.Children {
			if child.Type == html.ElementNode {
				elChildren = append(elChildren, child)
			}
		}
		return e.ctx.elementArray(elChildren)
	case "parentElement":
		if n.Parent.IsElement() {
			return e.ctx.elementProxy(n.Parent)
		}
		return goja.Null()
	case "style":
		return vm.NewDynamicObject(&styleAccessor{ctx: e.ctx, node: n})
	case "appendChild":
		return vm.ToValue(e.appendChild)
	case "removeChild":
		return vm.ToValue(e.removeChild)
	case "insertBefore":
		return vm.ToValue(e.insertBefore)
	case "remove":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
				e.ctx.changed()
			}
			return goja.Undefined()
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			other := e.ctx.unwrapNode(call.Arguments[0])
			return vm.ToValue(other != nil && n.Contains(other))
		})
	case "querySelector":
		return vm.ToValue(querySelectorFn(e.ctx, n))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(e.ctx, n))
	case "getBoundingClientRect":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return e.ctx.rectObject(e.ctx.win.BoundingRect(n))
		})
	case "offsetParent":
		if parent := e.ctx.offsetParent(n); parent != nil {
			return e.ctx.elementProxy(parent)
		}
		return goja.Null()
	case "offsetTop":
		top := e.ctx.win.BoundingTop(n)
		if parent := e.ctx.offsetParent(n); parent != nil && parent.TagName != "body" {
			top -= e.ctx.win.BoundingTop(parent)
		} else {
			top += e.ctx.win.ScrollY()
		}
		return vm.ToValue(top)
	case "offsetHeight":
		return vm.ToValue(e.ctx.win.BoundingRect(n).Height)
	case "offsetWidth":
		return vm.ToValue(e.ctx.win.BoundingRect(n).Width)
	case "scrollHeight":
		if n.TagName == "html" {
			return vm.ToValue(e.ctx.win.DocumentHeight())
		}
		return vm.ToValue(e.ctx.win.BoundingRect(n).Height)
	case "clientHeight":
		if n.TagName == "html" {
			return vm.ToValue(e.ctx.win.ViewportHeight())
		}
		return vm.ToValue(e.ctx.win.BoundingRect(n).Height)
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "textContent":
		e.node.SetTextContent(val.String())
	case "className":
		e.node.SetAttribute("class", val.String())
	case "id":
		e.node.SetAttribute("id", val.String())
	default:
		return false
	}
	e.ctx.changed()
	return true
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(key string) bool {
	return false
}

func (e *elementAccessor) Keys() []string {
	return elementKeys
}

func (e *elementAccessor) appendChild(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(e.ctx.vm.NewTypeError("Failed to execute 'appendChild' on 'Node': 1 argument required"))
	}
	child := e.ctx.unwrapNode(call.Arguments[0])
	if child == nil {
		panic(e.ctx.vm.NewTypeError("Failed to execute 'appendChild' on 'Node': parameter 1 is not of type 'Node'"))
	}
	e.node.AddChild(child)
	e.ctx.changed()
	return call.Arguments[0]
}

func (e *elementAccessor) removeChild(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(e.ctx.vm.NewTypeError("Failed to execute 'removeChild' on 'Node': 1 argument required"))
	}
	child := e.ctx.unwrapNode(call.Arguments[0])
	if child == nil || e.node.RemoveChild(child) == nil {
		panic(e.ctx.vm.NewTypeError("Failed to execute 'removeChild' on 'Node': the node is not a child of this node"))
	}
	e.ctx.changed()
	return call.Arguments[0]
}

func (e *elementAccessor) insertBefore(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 2 {
		panic(e.ctx.vm.NewTypeError("Failed to execute 'insertBefore' on 'Node': 2 arguments required"))
	}
	child := e.ctx.unwrapNode(call.Arguments[0])
	if child == nil {
		panic(e.ctx.vm.NewTypeError("Failed to execute 'insertBefore' on 'Node': parameter 1 is not of type 'Node'"))
	}
	ref := e.ctx.unwrapNode(call.Arguments[1])
	if ref == nil {
		e.node.AddChild(child)
	} else {
		e.node.InsertBefore(child, ref)
	}
	e.ctx.changed()
	return call.Arguments[0]
}

// offsetParent follows the offsetParent rules that matter for scrolling:
// unrendered and fixed elements have none, otherwise it is the nearest
// positioned ancestor or the body.
func (ctx *domContext) offsetParent(n *html.Node) *html.Node {
	if !ctx.win.IsRendered(n) || n.TagName == "body" || n.Style()["position"] == "fixed" {
		return nil
	}
	for p := n.Parent; p.IsElement(); p = p.Parent {
		if p.TagName == "body" {
			return p
		}
		if pos := p.Style()["position"]; pos != "" && pos != "static" {
			return p
		}
	}
	return ctx.doc.Body()
}

func (ctx *domContext) rectObject(r browser.Rect) goja.Value {
	obj := ctx.vm.NewObject()
	obj.Set("top", r.Top)
	obj.Set("y", r.Top)
	obj.Set("left", r.Left)
	obj.Set("x", r.Left)
	obj.Set("width", r.Width)
	obj.Set("height", r.Height)
	obj.Set("bottom", r.Bottom())
	obj.Set("right", r.Right())
	return obj
}

// styleAccessor maps camelCase property access to the kebab-case
// properties of the node's inline style attribute.
type styleAccessor struct {
	ctx  *domContext
	node *html.Node
}

func (s *styleAccessor) Get(key string) goja.Value {
	return s.ctx.vm.ToValue(s.node.Style()[camelToKebab(key)])
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	s.node.SetStyle(camelToKebab(key), val.String())
	s.ctx.changed()
	return true
}

func (s *styleAccessor) Has(key string) bool {
	return true
}

func (s *styleAccessor) Delete(key string) bool {
	s.node.SetStyle(camelToKebab(key), "")
	s.ctx.changed()
	return true
}

func (s *styleAccessor) Keys() []string {
	styles := s.node.Style()
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	return keys
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	if s == "cssFloat" {
		return "float"
	}
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
