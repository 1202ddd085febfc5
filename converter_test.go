package mdplugin

import (
	"errors"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStub = errors.New("stub failure")

// stubEngine records its inputs and fails or panics for configured sources.
type stubEngine struct {
	failOn  string
	panicOn string
	block   []string
	inline  []string
}

func (s *stubEngine) Render(src string) (string, error) {
	s.block = append(s.block, src)
	return s.render("<p>block:"+src+"</p>", src)
}

func (s *stubEngine) RenderInline(src string) (string, error) {
	s.inline = append(s.inline, src)
	return s.render("inline:"+src, src)
}

func (s *stubEngine) render(out, src string) (string, error) {
	if s.panicOn != "" && src == s.panicOn {
		panic("stub panic")
	}
	if s.failOn != "" && src == s.failOn {
		return "", errStub
	}
	return out, nil
}

func newTestConverter(engine Engine) (*Converter, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewConverterWithEngine(engine, WithLogger(logger)), hook
}

func TestNewConverterDefaults(t *testing.T) {
	conv, err := NewConverter(nil)
	require.NoError(t, err)

	cfg := conv.Config()
	assert.Nil(t, cfg.EngineOptions)
	assert.Equal(t, DefaultEngineOptions(), cfg.engineOptions())
	require.IsType(t, &GoldmarkEngine{}, conv.Engine())

	// raw HTML, linkify and typographer are on
	out, err := conv.Engine().RenderInline(`<b>x</b> "y" https://example.com`)
	require.NoError(t, err)
	assert.Contains(t, out, "<b>")
	assert.Contains(t, out, "&ldquo;")
	assert.Contains(t, out, `<a href="https://example.com">`)
}

func TestNewConverterCopiesConfig(t *testing.T) {
	cfg := &Config{EngineOptions: &EngineOptions{HTML: true}}
	conv, err := NewConverter(cfg)
	require.NoError(t, err)

	cfg.Engine = EngineBlackfriday
	cfg.EngineOptions.HTML = false

	got := conv.Config()
	assert.Equal(t, "", got.Engine)
	require.NotNil(t, got.EngineOptions)
	assert.True(t, got.EngineOptions.HTML)

	got.EngineOptions.Linkify = true
	assert.False(t, conv.Config().EngineOptions.Linkify)
}

func TestNewConverterUnknownEngine(t *testing.T) {
	_, err := NewConverter(&Config{Engine: "pandoc"})
	assert.ErrorIs(t, err, ErrUnknownEngine)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewConverterValidatesConfig(t *testing.T) {
	_, err := NewConverter(&Config{EngineOptions: &EngineOptions{Highlight: "no-such-style"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_HIGHLIGHT_STYLE", oopsErr.Code())
}

func TestPreprocessBlock(t *testing.T) {
	conv, err := NewConverter(nil)
	require.NoError(t, err)
	doc := parseFragment(t, "<div class=\"markdown\">  \n  # Title\n  Text\n  </div>")

	require.NoError(t, conv.Preprocess(doc))

	want, err := conv.Engine().Render("# Title\nText")
	require.NoError(t, err)
	assert.Equal(t, `<div class="markdown">`+want+`</div>`, doc.String())
}

func TestPreprocessBlockDedentsInput(t *testing.T) {
	engine := &stubEngine{}
	conv, _ := newTestConverter(engine)
	doc := parseFragment(t, "<div class=\"markdown\">  \n  # Title\n  Text\n  </div>")

	require.NoError(t, conv.Preprocess(doc))
	assert.Equal(t, []string{"# Title\nText"}, engine.block)
	assert.Equal(t, `<div class="markdown"><p>block:# Title
Text</p></div>`, doc.String())
}

func TestPreprocessInline(t *testing.T) {
	conv, err := NewConverter(nil)
	require.NoError(t, err)
	doc := parseFragment(t, `<p>An <span class="md">*em*</span> word</p>`)

	require.NoError(t, conv.Preprocess(doc))
	assert.Equal(t, `<p>An <span class="md"><em>em</em></span> word</p>`, doc.String())
}

func TestPreprocessIsolatesFailures(t *testing.T) {
	engine := &stubEngine{failOn: "broken"}
	conv, hook := newTestConverter(engine)
	doc := parseFragment(t, `<div class="markdown">broken</div><div class="markdown">fine</div>`)

	report, err := conv.Process(doc)
	require.NoError(t, err)

	assert.Equal(t, `<div class="markdown">broken</div><div class="markdown"><p>block:fine</p></div>`, doc.String())
	assert.Equal(t, 1, report.Rendered())
	require.Len(t, report.Failed(), 1)

	failed := report.Failed()[0]
	assert.Equal(t, BlockMarker, failed.Marker)
	assert.Equal(t, 0, failed.Index)
	assert.ErrorIs(t, failed.Err, errStub)
	var nodeErr *NodeError
	require.ErrorAs(t, report.Err(), &nodeErr)
	assert.Equal(t, `<div class="markdown">`, nodeErr.Element)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "markdown", entry.Data["plugin"])
	assert.Equal(t, BlockMarker, entry.Data["marker"])
	assert.Equal(t, `<div class="markdown">`, entry.Data["element"])
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), errStub)
}

func TestPreprocessRecoversPanics(t *testing.T) {
	engine := &stubEngine{panicOn: "explode"}
	conv, hook := newTestConverter(engine)
	doc := parseFragment(t, `<span class="md">explode</span><span class="md">ok</span>`)

	report, err := conv.Process(doc)
	require.NoError(t, err)
	assert.Equal(t, `<span class="md">explode</span><span class="md">inline:ok</span>`, doc.String())
	require.Len(t, report.Failed(), 1)
	assert.ErrorIs(t, report.Failed()[0].Err, ErrRender)
	assert.Len(t, hook.Entries, 1)
}

func TestPreprocessPassesAreDisjoint(t *testing.T) {
	engine := &stubEngine{}
	conv, _ := newTestConverter(engine)
	doc := parseFragment(t, `<span class="md">a</span><div class="markdown">b</div>`)

	require.NoError(t, conv.Preprocess(doc))
	assert.Equal(t, []string{"b"}, engine.block)
	assert.Equal(t, []string{"a"}, engine.inline)
}

func TestPreprocessWithoutMarkers(t *testing.T) {
	engine := &stubEngine{}
	conv, hook := newTestConverter(engine)
	src := `<div class="slide"><p class="note">*not markdown*</p></div>`
	doc := parseFragment(t, src)

	report, err := conv.Process(doc)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, src, doc.String())
	assert.Empty(t, engine.block)
	assert.Empty(t, engine.inline)
	assert.Empty(t, hook.Entries)
}

func TestPreprocessSecondCallWithoutMarkers(t *testing.T) {
	engine := &stubEngine{}
	conv, _ := newTestConverter(engine)
	doc := parseFragment(t, `<div class="markdown">a</div>`)
	require.NoError(t, conv.Preprocess(doc))

	// the host drops the marker classes once the content is rendered
	elements, err := doc.FindByMarker(BlockMarker)
	require.NoError(t, err)
	for _, el := range elements {
		el.(*HTMLElement).Node.Attr = nil
	}
	rendered := doc.String()

	report, err := conv.Process(doc)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, rendered, doc.String())
	assert.Len(t, engine.block, 1)
}

func TestPreprocessBothMarkersIsFlagged(t *testing.T) {
	engine := &stubEngine{}
	conv, hook := newTestConverter(engine)
	doc := parseFragment(t, `<div class="markdown md">x</div>`)

	require.NoError(t, conv.Preprocess(doc))
	require.NotEmpty(t, hook.Entries)
	assert.Contains(t, hook.LastEntry().Message, "block and inline")
}

func TestPreprocessNestedMarkers(t *testing.T) {
	engine := &stubEngine{}
	conv, _ := newTestConverter(engine)
	doc := parseFragment(t, `<div class="markdown">outer <span class="md">inner</span></div>`)

	report, err := conv.Process(doc)
	require.NoError(t, err)
	// the inline pass queries the tree after the block pass, so it finds the
	// span that came out of the rendered block
	assert.Equal(t, `<div class="markdown"><p>block:outer <span class="md">inline:inner</span></p></div>`, doc.String())
	assert.Equal(t, 2, report.Rendered())
	assert.Equal(t, []string{"inner"}, engine.inline)
}

type errRoot struct{}

func (errRoot) FindByMarker(string) ([]Element, error) {
	return nil, errors.New("not a tree")
}

func TestPreprocessTraversalErrors(t *testing.T) {
	conv, _ := newTestConverter(&stubEngine{})

	assert.ErrorIs(t, conv.Preprocess(nil), ErrInvalidRoot)

	var doc *Document
	assert.ErrorIs(t, conv.Preprocess(doc), ErrInvalidRoot)

	err := conv.Preprocess(errRoot{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not a tree"))
}
