package html

import (
	"sort"
	"strings"
)

type Node struct {
	Type       NodeType
	TagName    string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node
}

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

type Document struct {
	Root        *Node
	Stylesheets []string // CSS from <style> tags
	Scripts     []string // JavaScript from <script> tags
}

func NewDocument() *Document {
	return &Document{
		Root: &Node{
			Type:     ElementNode,
			TagName:  "document",
			Children: make([]*Node, 0),
		},
		Stylesheets: make([]string, 0),
		Scripts:     make([]string, 0),
	}
}

// NewElement creates a detached element node.
func NewElement(tag string) *Node {
	return &Node{
		Type:       ElementNode,
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
		Children:   make([]*Node, 0),
	}
}

// IsElement reports whether n is a non-nil element node other than the
// synthetic document root.
func (n *Node) IsElement() bool {
	return n != nil && n.Type == ElementNode && n.TagName != "document"
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

func (n *Node) SetAttribute(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	n.Attributes[name] = value
}

// ID returns the id attribute, or "" when absent.
func (n *Node) ID() string {
	id, _ := n.GetAttribute("id")
	return id
}

// AddChild adds a child node and sets up the parent relationship.
// A child that already has a parent is detached from it first.
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendText creates a text node and adds it as a child
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.Children = append(n.Children, &Node{
		Type:   TextNode,
		Text:   text,
		Parent: n,
	})
}

// RemoveChild removes the given child from this node's children list,
// clears its parent pointer, and returns the removed child.
// Returns nil if child is not found.
func (n *Node) RemoveChild(child *Node) *Node {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return child
		}
	}
	return nil
}

// InsertBefore inserts newChild before refChild in this node's children.
// If refChild is nil or not a child of n, newChild is appended.
func (n *Node) InsertBefore(newChild, refChild *Node) *Node {
	if newChild.Parent != nil {
		newChild.Parent.RemoveChild(newChild)
	}
	for i, c := range n.Children {
		if refChild != nil && c == refChild {
			n.Children = append(n.Children, nil)
			copy(n.Children[i+1:], n.Children[i:])
			n.Children[i] = newChild
			newChild.Parent = n
			return newChild
		}
	}
	n.AddChild(newChild)
	return newChild
}

// Contains returns true if other is a descendant of n (or n itself).
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var sb strings.Builder
	for _, child := range n.Children {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// SetTextContent replaces all children with a single text node.
func (n *Node) SetTextContent(text string) {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	n.AppendText(text)
}

// Style returns the parsed inline style attribute.
func (n *Node) Style() map[string]string {
	s, _ := n.GetAttribute("style")
	return ParseInlineStyle(s)
}

// SetStyle sets a single inline style property. An empty value removes it.
func (n *Node) SetStyle(prop, value string) {
	styles := n.Style()
	if value == "" {
		delete(styles, prop)
	} else {
		styles[prop] = value
	}
	n.SetAttribute("style", SerializeInlineStyle(styles))
}

// GetElementById walks the tree rooted at n and returns the first element
// with a matching id.
func (n *Node) GetElementById(id string) *Node {
	if n.Type == ElementNode && n.ID() == id {
		return n
	}
	for _, child := range n.Children {
		if found := child.GetElementById(id); found != nil {
			return found
		}
	}
	return nil
}

// FindTag returns the first element with the given tag in document order.
func (n *Node) FindTag(tag string) *Node {
	if n.Type == ElementNode && n.TagName == tag {
		return n
	}
	for _, child := range n.Children {
		if found := child.FindTag(tag); found != nil {
			return found
		}
	}
	return nil
}

func (d *Document) GetElementById(id string) *Node {
	return d.Root.GetElementById(id)
}

// Body returns the <body> element, creating one under the root when the
// document has none.
func (d *Document) Body() *Node {
	if body := d.Root.FindTag("body"); body != nil {
		return body
	}
	body := NewElement("body")
	d.Root.AddChild(body)
	return body
}

// ParseInlineStyle parses a CSS inline style string into a map.
func ParseInlineStyle(s string) map[string]string {
	result := make(map[string]string)
	s = strings.TrimSpace(s)
	if s == "" {
		return result
	}
	for _, decl := range strings.Split(s, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		idx := strings.IndexByte(decl, ':')
		if idx < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:idx]))
		result[prop] = strings.TrimSpace(decl[idx+1:])
	}
	return result
}

// SerializeInlineStyle converts a map back to a CSS inline style string.
// Properties are sorted for deterministic output.
func SerializeInlineStyle(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(m))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}
