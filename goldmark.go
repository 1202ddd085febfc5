package mdplugin

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// GoldmarkEngine renders markdown with goldmark. Attributes ({#id .class})
// on headings, paragraphs, list items and inline elements and slug based
// heading anchors are always enabled.
type GoldmarkEngine struct {
	block  goldmark.Markdown
	inline goldmark.Markdown
}

// NewGoldmarkEngine creates a goldmark backed Engine.
func NewGoldmarkEngine(opts EngineOptions) *GoldmarkEngine {
	block := goldmark.New(
		goldmark.WithExtensions(goldmarkExtensions(opts, true)...),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
			parser.WithASTTransformers(util.Prioritized(headingIDs{}, 100)),
		),
		goldmark.WithRendererOptions(rendererOptions(opts)...),
	)

	// Only paragraphs exist for inline rendering, so "# x" or "- x" stay text.
	inlineParser := parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	)
	inline := goldmark.New(
		goldmark.WithParser(inlineParser),
		goldmark.WithExtensions(goldmarkExtensions(opts, false)...),
		goldmark.WithRendererOptions(rendererOptions(opts)...),
	)

	return &GoldmarkEngine{block: block, inline: inline}
}

func goldmarkExtensions(opts EngineOptions, block bool) []goldmark.Extender {
	exts := []goldmark.Extender{extension.Strikethrough, attributes{blocks: block}}
	if block {
		exts = append(exts, extension.Table)
		if opts.Highlight != "" {
			exts = append(exts, highlighting.NewHighlighting(
				highlighting.WithStyle(opts.Highlight),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // fragments carry no stylesheet
				),
			))
		}
	}
	if opts.Linkify {
		exts = append(exts, extension.Linkify)
	}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}
	return exts
}

func rendererOptions(opts EngineOptions) []renderer.Option {
	var ro []renderer.Option
	if opts.HTML {
		ro = append(ro, html.WithUnsafe())
	}
	if opts.XHTMLOut {
		ro = append(ro, html.WithXHTML())
	}
	if opts.Breaks {
		ro = append(ro, html.WithHardWraps())
	}
	return ro
}

// Render renders src as a sequence of blocks.
func (e *GoldmarkEngine) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := e.block.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// RenderInline renders src without wrapping it in <p>. Paragraphs separated by
// blank lines are joined with a newline.
func (e *GoldmarkEngine) RenderInline(src string) (string, error) {
	source := []byte(src)
	doc := e.inline.Parser().Parse(text.NewReader(source))

	for n := doc.FirstChild(); n != nil; {
		next := n.NextSibling()
		if p, ok := n.(*ast.Paragraph); ok {
			tb := ast.NewTextBlock()
			for c := p.FirstChild(); c != nil; {
				cn := c.NextSibling()
				tb.AppendChild(tb, c)
				c = cn
			}
			doc.ReplaceChild(doc, p, tb)
		}
		n = next
	}

	var buf bytes.Buffer
	if err := e.inline.Renderer().Render(&buf, source, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}
