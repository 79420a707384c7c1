package audobject

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// The registry maps Go types and dotted names to descriptors, and
// package names to versions. Registration normally happens in init
// functions; lookups during serialization take the read lock only.
var (
	regMu           sync.RWMutex
	byType          = make(map[reflect.Type]*descriptor)
	byName          = make(map[string]*descriptor)
	packageVersions = make(map[string]string)
)

// RegisterOption adjusts how a type is registered.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	pkg       string
	borrowed  []borrowDecl
	defaults  map[string]any
	resolvers map[string]Resolver
}

type borrowDecl struct {
	name   string
	source string
}

// WithDefault records the value assigned to an argument when the
// serialized mapping lacks it. Arguments without a default are
// mandatory when decoding.
func WithDefault(name string, value any) RegisterOption {
	return func(o *registerOptions) {
		if o.defaults == nil {
			o.defaults = make(map[string]any)
		}
		o.defaults[name] = value
	}
}

// WithBorrowed declares an argument whose value lives on another
// field. When encoding, the value is read from sourceField; when
// decoding, it is written back into it. The source must be a struct,
// a pointer to struct, a string-keyed map or a *Dict.
func WithBorrowed(name, sourceField string) RegisterOption {
	return func(o *registerOptions) {
		o.borrowed = append(o.borrowed, borrowDecl{name: name, source: sourceField})
	}
}

// WithResolver installs a value translator for one argument.
func WithResolver(name string, r Resolver) RegisterOption {
	return func(o *registerOptions) {
		if o.resolvers == nil {
			o.resolvers = make(map[string]Resolver)
		}
		o.resolvers[name] = r
	}
}

// WithPackage binds the type to a package other than the first
// component of its dotted name, for version lookups and tag prefixes.
func WithPackage(pkg string) RegisterOption {
	return func(o *registerOptions) {
		o.pkg = pkg
	}
}

// Register stores the serialization descriptor for T under a dotted
// name like "audsp.Tuner". The name becomes the type's class tag and
// must be unique. Registering the same type again replaces its
// previous registration.
func Register[T any](name string, opts ...RegisterOption) error {
	o := &registerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	desc, err := buildDescriptor[T](name, o)
	if err != nil {
		return err
	}

	regMu.Lock()
	defer regMu.Unlock()
	if existing, ok := byName[name]; ok && existing.typ != desc.typ {
		return fmt.Errorf("%w: name %q already registered to %s",
			ErrBadDescriptor, name, existing.typ)
	}
	if prev, ok := byType[desc.typ]; ok && prev.name != name {
		delete(byName, prev.name)
	}
	byType[desc.typ] = desc
	byName[name] = desc

	emitRegistered(context.Background(), desc.tag(""), desc.typ.String())
	return nil
}

// MustRegister is Register that panics on error, for init functions.
func MustRegister[T any](name string, opts ...RegisterOption) {
	if err := Register[T](name, opts...); err != nil {
		panic(fmt.Sprintf("audobject: %v", err))
	}
}

// RegisterPackage records the version written into class tags of
// types belonging to pkg. Types without a registered package version
// serialize unversioned, with a warning.
func RegisterPackage(pkg, version string) {
	regMu.Lock()
	defer regMu.Unlock()
	packageVersions[pkg] = version
}

// PackageVersion returns the registered version for pkg.
func PackageVersion(pkg string) (string, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	v, ok := packageVersions[pkg]
	return v, ok
}

// Registered reports whether a dotted name has a descriptor.
func Registered(name string) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	_, ok := byName[name]
	return ok
}

func lookupByType(rt reflect.Type) (*descriptor, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	d, ok := byType[rt]
	return d, ok
}

func lookupByName(name string) (*descriptor, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	d, ok := byName[name]
	return d, ok
}

// Reset clears all registrations and restores the built-in types.
// Intended for tests.
func Reset() {
	regMu.Lock()
	byType = make(map[reflect.Type]*descriptor)
	byName = make(map[string]*descriptor)
	packageVersions = make(map[string]string)
	regMu.Unlock()
	registerBuiltins()
}

func init() {
	registerBuiltins()
}

// registerBuiltins installs the package's own serializable types.
// Idempotent, so Reset can restore them.
func registerBuiltins() {
	MustRegister[Dictionary]("audobject.Dictionary")
	MustRegister[Parameter]("audobject.Parameter",
		WithResolver("value_type", NewTypeResolver()),
		WithDefault("value", nil),
		WithDefault("default_value", nil),
		WithDefault("choices", nil),
		WithDefault("version", ""),
	)
	MustRegister[Parameters]("audobject.Parameters")
	RegisterPackage("audobject", Version)
}
