package audobject

import (
	"flag"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Parameters is an ordered, serializable collection of Parameter
// objects keyed by name. It round-trips through the extras sink, so
// collections can grow without schema changes.
type Parameters struct {
	Base
	Entries *Dict `arg:",extras"`
}

// NewParameters builds a collection from the given parameters.
func NewParameters(params ...*Parameter) *Parameters {
	ps := &Parameters{}
	for _, p := range params {
		ps.Add(p)
	}
	return ps
}

func (ps *Parameters) ensure() *Dict {
	if ps.Entries == nil {
		ps.Entries = NewDict()
	}
	return ps.Entries
}

// Add stores p under its name and returns the collection for
// chaining.
func (ps *Parameters) Add(p *Parameter) *Parameters {
	ps.ensure().Set(p.Name, p)
	return ps
}

// Get returns the parameter stored under name.
func (ps *Parameters) Get(name string) (*Parameter, bool) {
	v, ok := ps.ensure().Get(name)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Parameter)
	return p, ok
}

// Value returns the current value of the named parameter, or nil when
// it does not exist.
func (ps *Parameters) Value(name string) any {
	p, ok := ps.Get(name)
	if !ok {
		return nil
	}
	return p.Value
}

// SetValue assigns a value to the named parameter.
func (ps *Parameters) SetValue(name string, value any) error {
	p, ok := ps.Get(name)
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	return p.Set(value)
}

// Names returns the parameter names in insertion order.
func (ps *Parameters) Names() []string {
	return lo.Map(ps.ensure().Keys(), func(k any, _ int) string {
		return k.(string)
	})
}

// Len returns the number of parameters.
func (ps *Parameters) Len() int {
	return ps.ensure().Len()
}

// FilterByVersion returns the parameters that apply to version v.
func (ps *Parameters) FilterByVersion(v string) (*Parameters, error) {
	out := NewParameters()
	for _, name := range ps.Names() {
		p, ok := ps.Get(name)
		if !ok {
			continue
		}
		in, err := p.InVersion(v)
		if err != nil {
			return nil, err
		}
		if in {
			out.Add(p)
		}
	}
	return out, nil
}

// ToPath renders the collection as a path-like string of
// "name[value]" segments joined by delimiter. Include and exclude
// filter by name; sortNames orders segments alphabetically instead of
// by insertion.
func (ps *Parameters) ToPath(delimiter string, include, exclude []string, sortNames bool) string {
	names := ps.Names()
	if len(include) > 0 {
		names = lo.Filter(names, func(name string, _ int) bool {
			return lo.Contains(include, name)
		})
	}
	if len(exclude) > 0 {
		names = lo.Filter(names, func(name string, _ int) bool {
			return !lo.Contains(exclude, name)
		})
	}
	if sortNames {
		sort.Strings(names)
	}
	segments := lo.Map(names, func(name string, _ int) string {
		return fmt.Sprintf("%s[%v]", name, ps.Value(name))
	})
	return strings.Join(segments, delimiter)
}

// AddFlags defines one command line flag per parameter on fs, typed
// after the parameter's declared type and defaulting to its current
// value.
func (ps *Parameters) AddFlags(fs *flag.FlagSet) {
	for _, name := range ps.Names() {
		p, ok := ps.Get(name)
		if !ok {
			continue
		}
		usage := p.Description
		if len(p.Choices) > 0 {
			usage += fmt.Sprintf(" (one of %v)", p.Choices)
		}
		if p.Version != "" {
			usage += fmt.Sprintf(" (versions %s)", p.Version)
		}
		if p.Type == nil {
			fs.String(name, fmt.Sprint(valueOr(p.Value, "")), usage)
			continue
		}
		switch p.Type.Kind() {
		case reflect.Bool:
			b, _ := p.Value.(bool)
			fs.Bool(name, b, usage)
		case reflect.Int:
			i, _ := p.Value.(int)
			fs.Int(name, i, usage)
		case reflect.Float64:
			f, _ := p.Value.(float64)
			fs.Float64(name, f, usage)
		case reflect.String:
			s, _ := p.Value.(string)
			fs.String(name, s, usage)
		default:
			fs.String(name, fmt.Sprint(valueOr(p.Value, "")), usage)
		}
	}
}

// FromFlags copies the values of all flags set on the command line
// back into their parameters, running the usual value checks.
func (ps *Parameters) FromFlags(fs *flag.FlagSet) error {
	var firstErr error
	fs.Visit(func(f *flag.Flag) {
		p, ok := ps.Get(f.Name)
		if !ok {
			return
		}
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		if err := p.Set(getter.Get()); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
