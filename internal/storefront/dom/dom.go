// Package dom holds small helpers over golang.org/x/net/html trees: lookup by
// id, tag or class, attribute edits and subtree replacement.
package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

func Render(w io.Writer, doc *html.Node) error {
	return html.Render(w, doc)
}

func RenderString(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// Find returns the first node in document order, n included, for which
// match is true.
func Find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every matching node in document order.
func FindAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func ByID(n *html.Node, id string) *html.Node {
	return Find(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == id
	})
}

func ByTag(n *html.Node, tag atom.Atom) *html.Node {
	return Find(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == tag
	})
}

func Body(doc *html.Node) *html.Node {
	return ByTag(doc, atom.Body)
}

func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	classes := append(strings.Fields(Attr(n, "class")), class)
	SetAttr(n, "class", strings.Join(classes, " "))
}

func RemoveClass(n *html.Node, class string) {
	if !HasClass(n, class) {
		return
	}
	var kept []string
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Fragment parses markup as children of a <body> element.
func Fragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}

func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// ReplaceChildren swaps the content of n for nodes.
func ReplaceChildren(n *html.Node, nodes []*html.Node) {
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
}

// SetHTML parses markup and makes it the content of n.
func SetHTML(n *html.Node, markup string) error {
	nodes, err := Fragment(markup)
	if err != nil {
		return err
	}
	ReplaceChildren(n, nodes)
	return nil
}

func SetText(n *html.Node, text string) {
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func Prepend(parent *html.Node, nodes []*html.Node) {
	first := parent.FirstChild
	for _, c := range nodes {
		parent.InsertBefore(c, first)
	}
}

func Append(parent *html.Node, nodes []*html.Node) {
	for _, c := range nodes {
		parent.AppendChild(c)
	}
}
