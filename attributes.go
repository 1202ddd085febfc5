package mdplugin

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// attributes adds trailing {#id .class key=value} annotations to goldmark.
//
//	A paragraph {.lead}      -> <p class="lead">
//	- item {.x}              -> <li class="x">
//	*em*{.hl}                -> <em class="hl">
//	[l](http://a){target=_blank}
//
// Inline annotations must follow the element without a space. Heading
// annotations are left to parser.WithAttribute.
type attributes struct {
	// blocks enables annotations at the end of paragraphs and list items.
	blocks bool
}

func (a attributes) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&attributeTransformer{blocks: a.blocks}, 500),
	))
}

type attributeTransformer struct {
	blocks bool
}

func (t *attributeTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var containers, blocks []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.FirstChild() == nil || n.FirstChild().Type() != ast.TypeInline {
			return ast.WalkContinue, nil
		}
		containers = append(containers, n)
		if n.Type() == ast.TypeBlock {
			blocks = append(blocks, n)
		}
		return ast.WalkContinue, nil
	})

	for _, n := range containers {
		mergeTexts(n)
		applyInlineAttributes(n, source)
	}
	if !t.blocks {
		return
	}
	for _, n := range blocks {
		applyBlockAttributes(n, source)
	}
}

// mergeTexts joins adjacent text nodes that cover contiguous source, which
// the inline parser leaves split at characters like '_' or '.'.
func mergeTexts(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; {
		t, ok := c.(*ast.Text)
		if !ok {
			c = c.NextSibling()
			continue
		}
		next, ok := c.NextSibling().(*ast.Text)
		if !ok || t.SoftLineBreak() || t.HardLineBreak() || t.IsRaw() || next.IsRaw() ||
			t.Segment.Stop != next.Segment.Start {
			c = c.NextSibling()
			continue
		}
		t.Segment = t.Segment.WithStop(next.Segment.Stop)
		t.SetSoftLineBreak(next.SoftLineBreak())
		t.SetHardLineBreak(next.HardLineBreak())
		parent.RemoveChild(parent, next)
	}
}

func isAttributable(n ast.Node) bool {
	switch n.(type) {
	case *ast.Emphasis, *ast.Link, *ast.Image, *ast.CodeSpan, *ast.AutoLink, *east.Strikethrough:
		return true
	}
	return false
}

// applyInlineAttributes moves "{...}" directly after an inline element onto
// that element.
func applyInlineAttributes(parent ast.Node, source []byte) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if !isAttributable(c) {
			continue
		}
		t, ok := c.NextSibling().(*ast.Text)
		if !ok || t.IsRaw() {
			continue
		}
		value := t.Segment.Value(source)
		if len(value) == 0 || value[0] != '{' {
			continue
		}
		attrs, n, ok := parseAttributes(value)
		if !ok {
			continue
		}
		setAttributes(c, attrs)
		t.Segment = t.Segment.WithStart(t.Segment.Start + n)
		if t.Segment.Len() == 0 && !t.SoftLineBreak() && !t.HardLineBreak() {
			parent.RemoveChild(parent, t)
		}
	}
}

// applyBlockAttributes moves a trailing "{...}" of the last line onto the
// paragraph, or onto the list item of a tight list.
func applyBlockAttributes(block ast.Node, source []byte) {
	var target ast.Node
	switch block.(type) {
	case *ast.Paragraph:
		target = block
	case *ast.TextBlock:
		if _, ok := block.Parent().(*ast.ListItem); ok {
			target = block.Parent()
		}
	}
	if target == nil {
		return
	}
	t, ok := block.LastChild().(*ast.Text)
	if !ok || t.IsRaw() {
		return
	}
	value := t.Segment.Value(source)
	open := bytes.LastIndexByte(value, '{')
	if open < 0 {
		return
	}
	annotation := bytes.TrimRight(value[open:], " \t")
	attrs, n, ok := parseAttributes(annotation)
	if !ok || n != len(annotation) {
		return
	}
	setAttributes(target, attrs)
	stop := t.Segment.Start + open
	for stop > t.Segment.Start && (source[stop-1] == ' ' || source[stop-1] == '\t') {
		stop--
	}
	t.Segment = t.Segment.WithStop(stop)
}

// parseAttributes parses an annotation starting at src[0] and returns the
// number of bytes consumed.
func parseAttributes(src []byte) (parser.Attributes, int, bool) {
	r := text.NewReader(src)
	attrs, ok := parser.ParseAttributes(r)
	if !ok {
		return nil, 0, false
	}
	_, pos := r.Position()
	return attrs, pos.Start, true
}

func setAttributes(n ast.Node, attrs parser.Attributes) {
	for _, a := range attrs {
		if bytes.Equal(a.Name, []byte("class")) {
			if old, ok := n.AttributeString("class"); ok {
				if b, ok := old.([]byte); ok {
					if add, ok := a.Value.([]byte); ok {
						n.SetAttribute(a.Name, append(append(append([]byte{}, b...), ' '), add...))
						continue
					}
				}
			}
		}
		n.SetAttribute(a.Name, a.Value)
	}
}

// headingIDs assigns slug ids to headings without an explicit id. Explicit
// ids are reserved first, so "# A" before "# A {#a}" becomes "a-1".
type headingIDs struct{}

func (headingIDs) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	ids := newAnchorIDs()

	var auto []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				ids.Put(b)
			}
		} else {
			auto = append(auto, h)
		}
		return ast.WalkSkipChildren, nil
	})

	for _, h := range auto {
		var buf bytes.Buffer
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			if i > 0 {
				buf.WriteByte(' ')
			}
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		h.SetAttributeString("id", ids.Generate(buf.Bytes(), ast.KindHeading))
	}
}
