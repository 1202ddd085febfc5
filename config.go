package mdplugin

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v2"
)

// Engine backend names accepted by Config.Engine.
const (
	EngineGoldmark    = "goldmark"
	EngineBlackfriday = "blackfriday"
)

// Config is the plugin configuration. The zero value selects the goldmark
// engine with DefaultEngineOptions.
type Config struct {
	// Engine names the rendering backend. Empty means goldmark.
	Engine string `yaml:"engine" validate:"omitempty,oneof=goldmark blackfriday"`
	// EngineOptions are forwarded to the engine. A nil value means
	// DefaultEngineOptions; a non-nil value replaces the defaults as a whole.
	EngineOptions *EngineOptions `yaml:"engineOptions"`
}

// EngineOptions configure the rendering engine.
type EngineOptions struct {
	HTML        bool   `yaml:"html"`
	XHTMLOut    bool   `yaml:"xhtmlOut"`
	Breaks      bool   `yaml:"breaks"`
	Linkify     bool   `yaml:"linkify"`
	Typographer bool   `yaml:"typographer"`
	Highlight   string `yaml:"highlight" validate:"omitempty,chromastyle"`
}

// DefaultEngineOptions enables raw HTML passthrough, linkification of bare URLs
// and typographic replacements.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		HTML:        true,
		Linkify:     true,
		Typographer: true,
	}
}

// engineName returns the backend name with the default applied.
func (c Config) engineName() string {
	if c.Engine == "" {
		return EngineGoldmark
	}
	return c.Engine
}

// engineOptions returns the options to forward with the default applied.
func (c Config) engineOptions() EngineOptions {
	if c.EngineOptions == nil {
		return DefaultEngineOptions()
	}
	return *c.EngineOptions
}

// clone returns a deep copy so the caller can't mutate a Converter's config.
func (c Config) clone() Config {
	if c.EngineOptions != nil {
		opts := *c.EngineOptions
		c.EngineOptions = &opts
	}
	return c
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("chromastyle", func(fl validator.FieldLevel) bool {
		_, ok := styles.Registry[fl.Field().String()]
		return ok
	})
	return v
}

// Validate checks the engine name and the highlight style.
func (c Config) Validate() error {
	valErr := validate.Struct(c)
	if valErr == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(valErr, &validationErrors) || len(validationErrors) == 0 {
		return oops.
			Code("CONFIG_INVALID").
			Wrapf(fmt.Errorf("%w: %v", ErrInvalidConfig, valErr), "validating configuration")
	}
	return mapValidationError(validationErrors[0])
}

func mapValidationError(fe validator.FieldError) error {
	switch fe.Field() {
	case "engine":
		return oops.
			Code("UNKNOWN_ENGINE").
			With("engine", fe.Value()).
			Hint("Supported engines: goldmark, blackfriday").
			Wrapf(fmt.Errorf("%w: %w", ErrInvalidConfig, ErrUnknownEngine), "unknown engine %q", fe.Value())
	case "highlight":
		return oops.
			Code("UNKNOWN_HIGHLIGHT_STYLE").
			With("highlight", fe.Value()).
			Hint("Use a chroma style name such as monokai or github").
			Wrapf(ErrInvalidConfig, "unknown highlight style %q", fe.Value())
	default:
		return oops.
			Code("CONFIG_INVALID").
			With("field", fe.Namespace()).
			Wrapf(ErrInvalidConfig, "invalid value for %s", fe.Namespace())
	}
}

// ParseConfig decodes a YAML configuration document and validates it.
//
//	engine: goldmark
//	engineOptions:
//	  html: true
//	  linkify: true
//	  typographer: true
//	  highlight: monokai
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			Hint("Fix YAML syntax and use only the engine and engineOptions keys").
			Wrapf(fmt.Errorf("%w: %v", ErrInvalidConfig, err), "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
