package mdplugin

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	blackfriday "github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

const blackfridayExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.FencedCode |
	blackfriday.Strikethrough | blackfriday.SpaceHeadings | blackfriday.HeadingIDs |
	blackfriday.BackslashLineBreak | blackfriday.DefinitionLists

// blackfridayInlineExtensions leaves out every extension that only adds blocks.
const blackfridayInlineExtensions = blackfriday.NoIntraEmphasis | blackfriday.Strikethrough |
	blackfriday.SpaceHeadings | blackfriday.BackslashLineBreak

// BlackfridayEngine renders markdown with blackfriday. Attribute annotations
// are limited to explicit heading ids ({#id}); other annotations on headings
// are dropped and every heading without an id gets a slug.
type BlackfridayEngine struct {
	extensions       blackfriday.Extensions
	inlineExtensions blackfriday.Extensions
	flags            blackfriday.HTMLFlags
}

// NewBlackfridayEngine creates a blackfriday backed Engine.
func NewBlackfridayEngine(opts EngineOptions) *BlackfridayEngine {
	var ext blackfriday.Extensions
	if opts.Linkify {
		ext |= blackfriday.Autolink
	}
	if opts.Breaks {
		ext |= blackfriday.HardLineBreak
	}

	flags := blackfriday.HTMLFlagsNone
	if !opts.HTML {
		flags |= blackfriday.SkipHTML
	}
	if opts.XHTMLOut {
		flags |= blackfriday.UseXHTML
	}
	if opts.Typographer {
		flags |= blackfriday.Smartypants | blackfriday.SmartypantsFractions | blackfriday.SmartypantsDashes
	}

	return &BlackfridayEngine{
		extensions:       blackfridayExtensions | ext,
		inlineExtensions: blackfridayInlineExtensions | ext,
		flags:            flags,
	}
}

// parse builds the AST and assigns heading anchors.
func (e *BlackfridayEngine) parse(src string) *blackfriday.Node {
	doc := blackfriday.New(blackfriday.WithExtensions(e.extensions)).Parse([]byte(src))

	ids := newAnchorIDs()
	var headings []*blackfriday.Node
	doc.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && node.Type == blackfriday.Heading {
			stripHeadingAttributes(node)
			if node.HeadingID != "" {
				ids.Put([]byte(node.HeadingID))
			} else {
				headings = append(headings, node)
			}
		}
		return blackfriday.GoToNext
	})
	for _, h := range headings {
		h.HeadingID = ids.generate(plainText(h))
	}
	return doc
}

var trailingAttributes = regexp.MustCompile(`[ \t]*\{([^{}]*)\}[ \t]*$`)

// stripHeadingAttributes removes a trailing {...} annotation blackfriday does
// not understand. A #id inside it still becomes the heading id.
func stripHeadingAttributes(h *blackfriday.Node) {
	// HeadingIDs takes everything between "{#" and "}", classes included.
	if fields := strings.Fields(h.HeadingID); len(fields) > 0 {
		h.HeadingID = fields[0]
	}

	last := h.LastChild
	if last == nil || last.Type != blackfriday.Text {
		return
	}
	m := trailingAttributes.FindSubmatchIndex(last.Literal)
	if m == nil {
		return
	}
	for _, f := range strings.Fields(string(last.Literal[m[2]:m[3]])) {
		if strings.HasPrefix(f, "#") && len(f) > 1 && h.HeadingID == "" {
			h.HeadingID = f[1:]
		}
	}
	last.Literal = last.Literal[:m[0]]
}

// renderer is created per call; it tracks heading ids and quote state.
func (e *BlackfridayEngine) renderer() *blackfriday.HTMLRenderer {
	return blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: e.flags})
}

// Render renders src as a sequence of blocks.
func (e *BlackfridayEngine) Render(src string) (string, error) {
	doc := e.parse(src)
	r := e.renderer()

	var buf bytes.Buffer
	r.RenderHeader(&buf, doc)
	renderNode(&buf, r, doc)
	r.RenderFooter(&buf, doc)
	return buf.String(), nil
}

// RenderInline renders src as inline content only. Block syntax at the start
// of a line is kept as literal text, so "# x" or "- x" never become headings
// or lists. Paragraphs are joined with a newline.
func (e *BlackfridayEngine) RenderInline(src string) (string, error) {
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = escapeLineStart(l)
	}
	md := blackfriday.New(blackfriday.WithExtensions(e.inlineExtensions))
	doc := md.Parse([]byte(strings.Join(lines, "\n")))

	var buf bytes.Buffer
	e.renderInlines(&buf, e.renderer(), doc)
	return buf.String(), nil
}

// renderInlines renders the inline nodes below parent, dropping the markup of
// any block in between.
func (e *BlackfridayEngine) renderInlines(w io.Writer, r *blackfriday.HTMLRenderer, parent *blackfriday.Node) {
	for n := parent.FirstChild; n != nil; n = n.Next {
		switch {
		case n.Type == blackfriday.HTMLBlock:
			if e.flags&blackfriday.SkipHTML == 0 {
				_, _ = w.Write(bytes.TrimSpace(n.Literal))
			}
		case n.Type == blackfriday.CodeBlock:
			_, _ = io.WriteString(w, html.EscapeString(strings.TrimSuffix(string(n.Literal), "\n")))
		case isBlock(n.Type):
			e.renderInlines(w, r, n)
		default:
			renderNode(w, r, n)
		}
		if isBlock(n.Type) && n.Next != nil {
			_, _ = io.WriteString(w, "\n")
		}
	}
}

func isBlock(t blackfriday.NodeType) bool {
	switch t {
	case blackfriday.BlockQuote, blackfriday.List, blackfriday.Item, blackfriday.Paragraph,
		blackfriday.Heading, blackfriday.HorizontalRule, blackfriday.CodeBlock, blackfriday.HTMLBlock,
		blackfriday.Table, blackfriday.TableHead, blackfriday.TableBody, blackfriday.TableRow,
		blackfriday.TableCell:
		return true
	}
	return false
}

// escapeLineStart backslash escapes whatever would open a block on line.
// Leading indentation is dropped so no line becomes an indented code block.
func escapeLineStart(line string) string {
	s := strings.TrimLeft(line, " \t")
	if s == "" {
		return s
	}
	switch c := s[0]; {
	case c == '#' || c == '>':
		return `\` + s
	case c == '-' || c == '+' || c == '*':
		if len(s) == 1 || s[1] == ' ' || s[1] == '\t' || isRule(s, c) {
			return `\` + s
		}
	case c == '_':
		if isRule(s, c) {
			return `\` + s
		}
	case c == '`' || c == '~':
		if strings.HasPrefix(s, strings.Repeat(string(c), 3)) {
			return `\` + s
		}
	case c == '=':
		// '=' has no backslash escape; an entity breaks the setext underline.
		if strings.Trim(s, "= \t") == "" {
			return "&#61;" + s[1:]
		}
	case c >= '0' && c <= '9':
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i < len(s) && (s[i] == '.' || s[i] == ')') && (i+1 == len(s) || s[i+1] == ' ' || s[i+1] == '\t') {
			return s[:i] + `\` + s[i:]
		}
	}
	return s
}

// isRule reports whether s consists of three or more c, optionally spaced.
func isRule(s string, c byte) bool {
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case c:
			n++
		case ' ', '\t':
		default:
			return false
		}
	}
	return n >= 3
}

func renderNode(w io.Writer, r *blackfriday.HTMLRenderer, n *blackfriday.Node) {
	n.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		return r.RenderNode(w, node, entering)
	})
}

// plainText concatenates the text literals below n.
func plainText(n *blackfriday.Node) string {
	var buf bytes.Buffer
	n.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && (node.Type == blackfriday.Text || node.Type == blackfriday.Code) {
			buf.Write(node.Literal)
		}
		return blackfriday.GoToNext
	})
	return buf.String()
}
