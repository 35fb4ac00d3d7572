package effects

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"hotghost/internal/templates"
)

// Settings holds the effect parameters of one media slot.
//
// Gradient and PositionY only affect the metropoles template; other templates
// ignore them.
type Settings struct {
	Enabled    bool `json:"enabled" yaml:"enabled"`
	Blur       int  `json:"blur" yaml:"blur"`
	Noise      int  `json:"noise" yaml:"noise"`
	Brightness int  `json:"brightness" yaml:"brightness"`
	Contrast   int  `json:"contrast" yaml:"contrast"`
	Gradient   int  `json:"gradient" yaml:"gradient"`
	PositionY  int  `json:"positionY" yaml:"positionY"`
}

// DefaultGradient is the gradient intensity used when none is given.
const DefaultGradient = 70

// Defaults returns neutral settings with the default gradient.
func Defaults() Settings {
	return Settings{Gradient: DefaultGradient}
}

// Active reports whether Apply would modify a buffer.
func (s Settings) Active() bool {
	if !s.Enabled {
		return false
	}
	return s.Blur > 0 || s.Brightness != 0 || s.Contrast != 0 || s.Noise > 0
}

// Param describes one adjustable parameter for the UI catalog.
type Param struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Min            int    `json:"min"`
	Max            int    `json:"max"`
	Default        int    `json:"default"`
	MetropolesOnly bool   `json:"metropolesOnly,omitempty"`
}

// Limits returns the parameter catalog of a template family. The video
// family has tighter noise, brightness and contrast ranges because the
// transcoder filters saturate faster.
func Limits(f templates.Family) []Param {
	span := 100
	noise := 100
	if f == templates.Video {
		span = 50
		noise = 50
	}
	return []Param{
		{ID: "blur", Label: "Blur", Min: 0, Max: 20},
		{ID: "noise", Label: "Ruído", Min: 0, Max: noise},
		{ID: "brightness", Label: "Brilho", Min: -span, Max: span},
		{ID: "contrast", Label: "Contraste", Min: -span, Max: span},
		{ID: "gradient", Label: "Intensidade Gradiente", Min: 0, Max: 100, Default: DefaultGradient, MetropolesOnly: true},
		{ID: "positionY", Label: "Posição Vertical", Min: -50, Max: 50, MetropolesOnly: true},
	}
}

type imageBounds struct {
	Blur       int `validate:"min=0,max=20"`
	Noise      int `validate:"min=0,max=100"`
	Brightness int `validate:"min=-100,max=100"`
	Contrast   int `validate:"min=-100,max=100"`
	Gradient   int `validate:"min=0,max=100"`
	PositionY  int `validate:"min=-50,max=50"`
}

type videoBounds struct {
	Blur       int `validate:"min=0,max=20"`
	Noise      int `validate:"min=0,max=50"`
	Brightness int `validate:"min=-50,max=50"`
	Contrast   int `validate:"min=-50,max=50"`
	Gradient   int `validate:"min=0,max=100"`
	PositionY  int `validate:"min=-50,max=50"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError lists the out-of-range fields of a Settings value.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is one rejected parameter.
type FieldError struct {
	Field string
	Value int
	Rule  string
	Limit string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%d violates %s=%s", f.Field, f.Value, f.Rule, f.Limit))
	}
	return "invalid effect settings: " + strings.Join(parts, ", ")
}

// Validate checks s against the ranges of family f. Disabled settings are
// still checked since gradient and positionY apply regardless of Enabled.
func Validate(s Settings, f templates.Family) error {
	var target any
	if f == templates.Video {
		target = videoBounds(fields(s))
	} else {
		target = imageBounds(fields(s))
	}

	err := validatorInstance().Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate effect settings: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		v, _ := fe.Value().(int)
		out.Fields = append(out.Fields, FieldError{
			Field: lowerFirst(fe.Field()),
			Value: v,
			Rule:  fe.Tag(),
			Limit: fe.Param(),
		})
	}
	return out
}

type boundFields struct {
	Blur       int
	Noise      int
	Brightness int
	Contrast   int
	Gradient   int
	PositionY  int
}

func fields(s Settings) boundFields {
	return boundFields{
		Blur:       s.Blur,
		Noise:      s.Noise,
		Brightness: s.Brightness,
		Contrast:   s.Contrast,
		Gradient:   s.Gradient,
		PositionY:  s.PositionY,
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
