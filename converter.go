package mdplugin

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Class names marking elements whose content is markdown.
const (
	BlockMarker  = "markdown"
	InlineMarker = "md"
)

// Converter renders the markdown content of marked elements in place.
type Converter struct {
	cfg    Config
	engine Engine
	log    logrus.FieldLogger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for per-element diagnostics.
// Default: logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

// NewConverter creates a Converter and its engine from cfg. A nil cfg is the
// same as an empty one. The configuration is copied and validated.
func NewConverter(cfg *Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := cfg.clone()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	engine, err := NewEngine(c.engineName(), c.engineOptions())
	if err != nil {
		return nil, err
	}
	conv := NewConverterWithEngine(engine, opts...)
	conv.cfg = c
	return conv, nil
}

// NewConverterWithEngine creates a Converter around an existing engine.
func NewConverterWithEngine(engine Engine, opts ...Option) *Converter {
	c := &Converter{
		engine: engine,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns a copy of the configuration the Converter was built from.
func (c *Converter) Config() Config {
	return c.cfg.clone()
}

// Engine returns the rendering engine.
func (c *Converter) Engine() Engine {
	return c.engine
}

// Preprocess renders every element marked with BlockMarker as block markdown
// and every element marked with InlineMarker as inline markdown. An element
// that fails keeps its content and is logged; only an unusable root is
// returned as error.
func (c *Converter) Preprocess(root Root) error {
	_, err := c.Process(root)
	return err
}

// Process is Preprocess returning the result of each element.
func (c *Converter) Process(root Root) (Report, error) {
	if root == nil {
		return Report{}, ErrInvalidRoot
	}

	passes := []struct {
		marker string
		render func(string) (string, error)
	}{
		{BlockMarker, c.engine.Render},
		{InlineMarker, c.engine.RenderInline},
	}

	var report Report
	for _, pass := range passes {
		elements, err := root.FindByMarker(pass.marker)
		if err != nil {
			return report, fmt.Errorf("finding %q elements: %w", pass.marker, err)
		}
		for i, el := range elements {
			if pass.marker == InlineMarker && hasMarker(el, BlockMarker) {
				c.log.WithFields(c.fields(pass.marker, i, el)).
					Warn("element is marked as block and inline markdown, the inline result wins")
			}
			res := c.renderElement(pass.marker, i, el, pass.render)
			if res.Err != nil {
				c.log.WithFields(c.fields(pass.marker, i, el)).
					WithError(res.Err).
					Warn("rendering markdown failed, keeping original content")
			}
			report.Results = append(report.Results, res)
		}
	}
	return report, nil
}

// renderElement runs extract, dedent, render and replace for one element.
// Panics of the engine or the element are turned into errors.
func (c *Converter) renderElement(marker string, index int, el Element, render func(string) (string, error)) (res NodeResult) {
	res = NodeResult{Marker: marker, Index: index, Element: el}
	defer func() {
		if r := recover(); r != nil {
			res.Output = ""
			res.Err = c.nodeError(marker, index, el, fmt.Errorf("%w: panic: %v", ErrRender, r))
		}
	}()

	content, err := el.InnerContent()
	if err != nil {
		res.Err = c.nodeError(marker, index, el, fmt.Errorf("reading content: %w", err))
		return res
	}
	out, err := render(Dedent(content))
	if err != nil {
		res.Err = c.nodeError(marker, index, el, err)
		return res
	}
	if err := el.SetInnerContent(out); err != nil {
		res.Err = c.nodeError(marker, index, el, fmt.Errorf("replacing content: %w", err))
		return res
	}
	res.Output = out
	return res
}

func (c *Converter) nodeError(marker string, index int, el Element, err error) *NodeError {
	return &NodeError{Marker: marker, Index: index, Element: describe(el), Err: err}
}

func (c *Converter) fields(marker string, index int, el Element) logrus.Fields {
	f := logrus.Fields{
		"plugin": "markdown",
		"marker": marker,
		"index":  index,
	}
	if d := describe(el); d != "" {
		f["element"] = d
	}
	return f
}

func describe(el Element) string {
	if s, ok := el.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

func hasMarker(el Element, marker string) bool {
	if m, ok := el.(interface{ HasMarker(string) bool }); ok {
		return m.HasMarker(marker)
	}
	return false
}
