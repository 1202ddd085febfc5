package mdplugin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseFragment(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseFragment(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestFindByMarker(t *testing.T) {
	doc := parseFragment(t, `<div class="markdown">a</div>`+
		`<section><p><span class="note md">b</span></p><div class=" markdown  wide">c</div></section>`+
		`<div class="markdown-alt">d</div>`)

	blocks, err := doc.FindByMarker(BlockMarker)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, `<div class="markdown">`, blocks[0].(*HTMLElement).String())
	assert.Equal(t, `<div class=" markdown  wide">`, blocks[1].(*HTMLElement).String())

	inline, err := doc.FindByMarker(InlineMarker)
	require.NoError(t, err)
	require.Len(t, inline, 1)
	content, err := inline[0].InnerContent()
	require.NoError(t, err)
	assert.Equal(t, "b", content)
}

func TestFindByMarkerSkipsRoot(t *testing.T) {
	root := &html.Node{Type: html.ElementNode, Data: "div", Attr: []html.Attribute{{Key: "class", Val: "markdown"}}}
	child := &html.Node{Type: html.ElementNode, Data: "p", Attr: []html.Attribute{{Key: "class", Val: "markdown"}}}
	root.AppendChild(child)

	found, err := NewDocument(root).FindByMarker(BlockMarker)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Same(t, child, found[0].(*HTMLElement).Node)
}

func TestFindByMarkerInvalidRoot(t *testing.T) {
	var doc *Document
	_, err := doc.FindByMarker(BlockMarker)
	assert.ErrorIs(t, err, ErrInvalidRoot)

	_, err = NewDocument(nil).FindByMarker(BlockMarker)
	assert.ErrorIs(t, err, ErrInvalidRoot)
}

func TestInnerContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quote marker", `<div class="markdown">&gt; quote</div>`, "> quote"},
		{"ampersand", `<div class="markdown">Tom &amp; Jerry</div>`, "Tom &amp; Jerry"},
		{"less than", `<div class="markdown">a &lt; b</div>`, "a &lt; b"},
		{"straight quotes", `<div class="markdown">"x" 'y'</div>`, `"x" 'y'`},
		{"nbsp", `<div class="markdown">a&nbsp;b</div>`, "a&nbsp;b"},
		{"child elements", `<div class="markdown">a <b title="t">b</b></div>`, `a <b title="t">b</b>`},
		{"comment", `<div class="markdown">a<!-- c --></div>`, "a<!-- c -->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := parseFragment(t, tt.in).FindByMarker(BlockMarker)
			require.NoError(t, err)
			require.Len(t, elements, 1)
			content, err := elements[0].InnerContent()
			require.NoError(t, err)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestSetInnerContent(t *testing.T) {
	doc := parseFragment(t, `<div class="markdown">*x*</div><p>after</p>`)
	elements, err := doc.FindByMarker(BlockMarker)
	require.NoError(t, err)
	require.Len(t, elements, 1)

	require.NoError(t, elements[0].SetInnerContent("<p><em>x</em></p>\n"))
	assert.Equal(t, "<div class=\"markdown\"><p><em>x</em></p>\n</div><p>after</p>", doc.String())
}

func TestParseDocumentRender(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<p class="md">hi</p>`))
	require.NoError(t, err)
	assert.Equal(t, `<html><head></head><body><p class="md">hi</p></body></html>`, doc.String())
	assert.Equal(t, html.DocumentNode, doc.Node().Type)
}

func TestHTMLElementHasMarker(t *testing.T) {
	elements, err := parseFragment(t, `<div class="markdown md">x</div>`).FindByMarker(InlineMarker)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	el := elements[0].(*HTMLElement)
	assert.True(t, el.HasMarker(BlockMarker))
	assert.False(t, el.HasMarker("other"))
}
