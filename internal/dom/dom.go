// Package dom wraps a parsed HTML tree with the read operations the
// interpreter needs, plus the one permitted mutation: toggling marker
// classes. Pages arrive as serialized HTML snapshots, so the same code
// path serves browser snapshots, fixtures, and tests.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed page snapshot tied to the route it was taken on.
type Document struct {
	root  *html.Node
	route string
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{root: root, route: "/"}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// SetRoute records the route the snapshot was taken on.
func (d *Document) SetRoute(route string) {
	d.route = route
}

// Route returns the route the snapshot was taken on.
func (d *Document) Route() string {
	return d.route
}

// Title returns the text of the document's title element, trimmed.
func (d *Document) Title() string {
	if el := d.firstByTag(d.root, "title"); el != nil {
		return el.Text()
	}
	return ""
}

// Body returns the body element, or nil for a headless fragment.
func (d *Document) Body() *Element {
	return d.firstByTag(d.root, "body")
}

// ElementsByTag returns all elements with any of the given tags, in
// document order.
func (d *Document) ElementsByTag(tags ...string) []*Element {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}
	var out []*Element
	walk(d.root, func(n *html.Node) {
		if want[n.Data] {
			out = append(out, &Element{node: n, doc: d})
		}
	})
	return out
}

// Element is a handle on one element node.
type Element struct {
	node *html.Node
	doc  *Document
}

// Tag returns the element's lowercase tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of the named attribute, or "".
func (e *Element) Attr(name string) string {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces the named attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// Text returns the element's trimmed text content, with whitespace
// runs collapsed. Script, style and hidden subtrees are skipped.
func (e *Element) Text() string {
	var b strings.Builder
	collectText(e.node, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Descendants returns descendant elements with any of the given tags,
// in document order.
func (e *Element) Descendants(tags ...string) []*Element {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}
	var out []*Element
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, func(n *html.Node) {
			if want[n.Data] {
				out = append(out, &Element{node: n, doc: e.doc})
			}
		})
	}
	return out
}

// Classes returns the element's class tokens.
func (e *Element) Classes() []string {
	return strings.Fields(e.Attr("class"))
}

// HasClass reports whether the element carries the given class token.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class token if not already present.
func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	classes := append(e.Classes(), class)
	e.SetAttr("class", strings.Join(classes, " "))
}

// RemoveClass removes a class token if present.
func (e *Element) RemoveClass(class string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// Hidden reports whether the element is hidden from presentation: the
// hidden attribute, aria-hidden, display:none inline style, or a
// hidden input type.
func (e *Element) Hidden() bool {
	if e.HasAttr("hidden") {
		return true
	}
	if e.Attr("aria-hidden") == "true" {
		return true
	}
	style := strings.ReplaceAll(e.Attr("style"), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return true
	}
	return e.node.Data == "input" && e.Attr("type") == "hidden"
}

// Selector returns a stable way to re-locate this element: an id
// selector when the element has one, else a tag positional selector
// resolvable by Query.
func (e *Element) Selector() string {
	if id := e.Attr("id"); id != "" {
		return "#" + id
	}
	tag := e.node.Data
	index := 0
	position := 0
	walk(e.doc.root, func(n *html.Node) {
		if n.Data == tag {
			index++
			if n == e.node {
				position = index
			}
		}
	})
	if position == 0 {
		return tag
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, position)
}

// walk visits every element node in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

// collectText gathers text nodes, skipping non-presentational and
// hidden subtrees.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
		el := Element{node: n}
		if el.Hidden() {
			return
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(text)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}

// firstByTag returns the first element with the given tag.
func (d *Document) firstByTag(n *html.Node, tag string) *Element {
	var found *html.Node
	walk(n, func(node *html.Node) {
		if found == nil && node.Data == tag {
			found = node
		}
	})
	if found == nil {
		return nil
	}
	return &Element{node: found, doc: d}
}
