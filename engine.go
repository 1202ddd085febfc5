package mdplugin

import (
	"fmt"

	"github.com/yuin/goldmark/ast"

	"github.com/connctd/mdplugin/internal/slug"
)

// Engine renders markdown fragments to HTML.
type Engine interface {
	// Render renders src as block content (paragraphs, lists, headings).
	Render(src string) (string, error)
	// RenderInline renders src as inline content without a block wrapper.
	RenderInline(src string) (string, error)
}

// NewEngine creates the named engine backend configured with opts. Both
// backends always generate heading anchors from slugs.
func NewEngine(name string, opts EngineOptions) (Engine, error) {
	switch name {
	case "", EngineGoldmark:
		return NewGoldmarkEngine(opts), nil
	case EngineBlackfriday:
		return NewBlackfridayEngine(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// anchorIDs hands out unique heading ids for a single rendered fragment. It
// satisfies goldmark's parser.IDs and is reused by the blackfriday backend.
type anchorIDs struct {
	used map[string]bool
}

func newAnchorIDs() *anchorIDs {
	return &anchorIDs{used: map[string]bool{}}
}

func (a *anchorIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(a.generate(string(value)))
}

func (a *anchorIDs) Put(value []byte) {
	a.used[string(value)] = true
}

func (a *anchorIDs) generate(text string) string {
	base := slug.Slugify(text)
	if base == "" {
		base = "heading"
	}
	id := base
	for i := 1; a.used[id]; i++ {
		id = fmt.Sprintf("%s-%d", base, i)
	}
	a.used[id] = true
	return id
}
