package js

import (
	"strings"

	"github.com/dop251/goja"

	"scrollmarks/pkg/html"
)

// simpleSelector is a compound selector of the form tag#id.class.class.
// Combinators and attribute selectors are not supported.
type simpleSelector struct {
	tag     string
	id      string
	classes []string
}

func tagSelector(tag string) simpleSelector { return simpleSelector{tag: tag} }

func parseSelector(s string) (simpleSelector, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " >+~[:") {
		return simpleSelector{}, false
	}
	var sel simpleSelector
	for len(s) > 0 {
		kind := byte(0)
		if s[0] == '#' || s[0] == '.' {
			kind = s[0]
			s = s[1:]
		}
		end := strings.IndexAny(s, "#.")
		if end < 0 {
			end = len(s)
		}
		part := s[:end]
		s = s[end:]
		if part == "" && kind != 0 {
			return simpleSelector{}, false
		}
		switch kind {
		case '#':
			sel.id = part
		case '.':
			sel.classes = append(sel.classes, part)
		default:
			if part != "*" {
				sel.tag = strings.ToLower(part)
			}
		}
	}
	return sel, true
}

func (sel simpleSelector) matches(n *html.Node) bool {
	if !n.IsElement() {
		return false
	}
	if sel.tag != "" && n.TagName != sel.tag {
		return false
	}
	if sel.id != "" && n.ID() != sel.id {
		return false
	}
	if len(sel.classes) > 0 {
		attr, _ := n.GetAttribute("class")
		have := strings.Fields(attr)
		for _, want := range sel.classes {
			if !containsToken(have, want) {
				return false
			}
		}
	}
	return true
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// parseSelectorGroup splits a comma separated group and throws for
// selectors it cannot handle.
func parseSelectorGroup(vm *goja.Runtime, group string) []simpleSelector {
	var out []simpleSelector
	for _, part := range strings.Split(group, ",") {
		sel, ok := parseSelector(part)
		if !ok {
			panic(vm.NewGoError(&selectorError{group}))
		}
		out = append(out, sel)
	}
	return out
}

type selectorError struct{ selector string }

func (e *selectorError) Error() string {
	return "'" + e.selector + "' is not a valid selector"
}

func findAll(root *html.Node, sels ...simpleSelector) []*html.Node {
	var results []*html.Node
	walkTree(root, func(n *html.Node) bool {
		if n == root {
			return false
		}
		for _, sel := range sels {
			if sel.matches(n) {
				results = append(results, n)
				break
			}
		}
		return false
	})
	return results
}

func querySelectorFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelector': 1 argument required"))
		}
		sels := parseSelectorGroup(ctx.vm, call.Arguments[0].String())

		var result *html.Node
		walkTree(root, func(n *html.Node) bool {
			if n == root {
				return false
			}
			for _, sel := range sels {
				if sel.matches(n) {
					result = n
					return true
				}
			}
			return false
		})
		if result == nil {
			return goja.Null()
		}
		return ctx.elementProxy(result)
	}
}

func querySelectorAllFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelectorAll': 1 argument required"))
		}
		return ctx.elementArray(findAll(root, parseSelectorGroup(ctx.vm, call.Arguments[0].String())...))
	}
}

// walkTree performs a DFS walk over the element tree. The callback returns
// true to stop.
func walkTree(node *html.Node, fn func(*html.Node) bool) bool {
	if node.Type == html.ElementNode {
		if fn(node) {
			return true
		}
	}
	for _, child := range node.Children {
		if walkTree(child, fn) {
			return true
		}
	}
	return false
}
