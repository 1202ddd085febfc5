package mdplugin

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Root is a document tree that can be searched for marked elements.
type Root interface {
	// FindByMarker returns all descendants whose class list contains marker,
	// in document order. The slice must not change when the tree is mutated.
	FindByMarker(marker string) ([]Element, error)
}

// Element is a marked element whose inner content can be replaced.
type Element interface {
	InnerContent() (string, error)
	// SetInnerContent replaces all children. On error the element is unchanged.
	SetInnerContent(markup string) error
}

// Document adapts a golang.org/x/net/html tree to Root.
type Document struct {
	root     *html.Node
	fragment bool
}

// NewDocument wraps an already parsed node. The node is searched, never the
// caller's parents of it.
func NewDocument(root *html.Node) *Document {
	return &Document{root: root}
}

// ParseDocument parses a complete HTML document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseFragment parses HTML in <body> context. Render writes it back without
// the html, head and body wrapper.
func ParseFragment(r io.Reader) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{root: root, fragment: true}, nil
}

// Node returns the wrapped root node.
func (d *Document) Node() *html.Node {
	return d.root
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	if !d.fragment {
		return html.Render(w, d.root)
	}
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// String renders the document, ignoring write errors.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// FindByMarker implements Root.
func (d *Document) FindByMarker(marker string) ([]Element, error) {
	if d == nil || d.root == nil {
		return nil, ErrInvalidRoot
	}
	var found []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && HasClass(c, marker) {
				found = append(found, &HTMLElement{Node: c})
			}
			walk(c)
		}
	}
	walk(d.root)
	return found, nil
}

// HasClass reports whether the class attribute of n contains class.
func HasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// HTMLElement is an element of a Document.
type HTMLElement struct {
	Node *html.Node
}

// InnerContent serializes the children like innerHTML, but text is only
// escaped for '&', '<' and non-breaking spaces so that markdown syntax such
// as "> quote" and straight quotes survive.
func (e *HTMLElement) InnerContent() (string, error) {
	var buf bytes.Buffer
	for c := e.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && !isRawText(e.Node) {
			buf.WriteString(textEscaper.Replace(c.Data))
			continue
		}
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "\u00a0", "&nbsp;")

func isRawText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Xmp, atom.Iframe, atom.Noembed, atom.Noframes, atom.Plaintext:
		return true
	}
	return false
}

// SetInnerContent parses markup in the context of the element and swaps the
// children only after parsing succeeded.
func (e *HTMLElement) SetInnerContent(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.Node)
	if err != nil {
		return fmt.Errorf("parsing rendered markup: %w", err)
	}
	for c := e.Node.FirstChild; c != nil; {
		next := c.NextSibling
		e.Node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		e.Node.AppendChild(n)
	}
	return nil
}

// String returns the start tag, e.g. `<div class="markdown" id="intro">`.
func (e *HTMLElement) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.Node.Data)
	for _, a := range e.Node.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		fmt.Fprintf(&b, " %s=%q", key, a.Val)
	}
	b.WriteString(">")
	return b.String()
}

// HasMarker reports whether the element carries the class marker.
func (e *HTMLElement) HasMarker(marker string) bool {
	return HasClass(e.Node, marker)
}
