package audobject

import (
	"fmt"
	"reflect"

	"github.com/blang/semver/v4"
	"github.com/samber/lo"
)

// Parameter is a serializable description of one configurable value:
// its name, type, documentation, current and default value, the
// choices it may take and the version range it applies to.
type Parameter struct {
	Base
	Name         string       `arg:"name"`
	Type         reflect.Type `arg:"value_type"`
	Description  string       `arg:"description"`
	Value        any          `arg:"value"`
	DefaultValue any          `arg:"default_value"`
	Choices      []any        `arg:"choices"`
	Version      string       `arg:"version"`
}

// ParameterOption adjusts a Parameter under construction.
type ParameterOption func(*Parameter)

// ParamValue sets the initial value.
func ParamValue(v any) ParameterOption {
	return func(p *Parameter) {
		p.Value = v
	}
}

// ParamDefault sets the value used when none is given.
func ParamDefault(v any) ParameterOption {
	return func(p *Parameter) {
		p.DefaultValue = v
	}
}

// ParamChoices restricts the value to a fixed set.
func ParamChoices(choices ...any) ParameterOption {
	return func(p *Parameter) {
		p.Choices = choices
	}
}

// ParamVersion restricts the parameter to a semantic version range,
// e.g. ">=1.0.0 <2.0.0".
func ParamVersion(versions string) ParameterOption {
	return func(p *Parameter) {
		p.Version = versions
	}
}

// NewParameter builds a parameter and checks its initial value. When
// no value is given the default applies.
func NewParameter(name string, valueType reflect.Type, description string, opts ...ParameterOption) (*Parameter, error) {
	p := &Parameter{
		Name:        name,
		Type:        valueType,
		Description: description,
	}
	for _, opt := range opts {
		opt(p)
	}
	value := p.Value
	if value == nil {
		value = p.DefaultValue
	}
	p.Value = nil
	if err := p.Set(value); err != nil {
		return nil, err
	}
	return p, nil
}

// Set assigns a value after checking it against the declared type and
// the registered choices. A nil value clears the parameter. Scalars
// parsed from documents arrive as int or float64 and widen to the
// declared type when they fit.
func (p *Parameter) Set(value any) error {
	if value == nil {
		p.Value = nil
		return nil
	}
	coerced, ok := coerceValue(value, p.Type)
	if !ok {
		return fmt.Errorf("parameter %q expects %s, got %s",
			p.Name, p.Type, typeNameOf(value))
	}
	value = coerced
	if len(p.Choices) > 0 {
		ok := lo.ContainsBy(p.Choices, func(c any) bool {
			if cc, ok := coerceValue(c, p.Type); ok {
				c = cc
			}
			return reflect.DeepEqual(c, value)
		})
		if !ok {
			return fmt.Errorf("invalid value %v for parameter %q, expected one of %v",
				value, p.Name, p.Choices)
		}
	}
	p.Value = value
	return nil
}

// Validate implements Validator, so reconstructed parameters re-check
// their stored value.
func (p *Parameter) Validate() error {
	if p.Value == nil {
		return nil
	}
	return p.Set(p.Value)
}

func coerceValue(value any, rt reflect.Type) (any, bool) {
	if value == nil || rt == nil {
		return value, true
	}
	if reflect.TypeOf(value).AssignableTo(rt) {
		return value, true
	}
	out := reflect.New(rt).Elem()
	if err := assignValue(out, value); err != nil {
		return value, false
	}
	return out.Interface(), true
}

// InVersion reports whether the parameter applies to version v. A
// parameter without a version range applies everywhere.
func (p *Parameter) InVersion(v string) (bool, error) {
	if p.Version == "" {
		return true, nil
	}
	r, err := semver.ParseRange(p.Version)
	if err != nil {
		return false, fmt.Errorf("invalid version range %q: %w", p.Version, err)
	}
	sv, err := semver.ParseTolerant(v)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return r(sv), nil
}
