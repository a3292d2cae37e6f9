package html

import (
	"fmt"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a Document from HTML source. The tree below Document.Root
// mirrors what a browser constructs (html, head, body are always present).
// <script> and <style> contents are collected into Document.Scripts and
// Document.Stylesheets and kept out of the element tree.
func Parse(source string) (*Document, error) {
	root, err := xhtml.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	doc := NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		convert(doc, doc.Root, c)
	}
	return doc, nil
}

func convert(doc *Document, parent *Node, src *xhtml.Node) {
	switch src.Type {
	case xhtml.TextNode:
		parent.AppendText(src.Data)
	case xhtml.ElementNode:
		switch src.DataAtom {
		case atom.Script:
			if _, external := attr(src, "src"); !external {
				doc.Scripts = append(doc.Scripts, innerText(src))
			}
			return
		case atom.Style:
			doc.Stylesheets = append(doc.Stylesheets, innerText(src))
			return
		}
		node := NewElement(src.Data)
		for _, a := range src.Attr {
			node.Attributes[a.Key] = a.Val
		}
		parent.AddChild(node)
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			convert(doc, node, c)
		}
	}
	// Comments and doctype nodes are dropped.
}

func attr(n *xhtml.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func innerText(n *xhtml.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
