package audobject

import "context"

// Option adjusts a single serialization call. Options compose left to
// right; later options win on conflicts.
type Option func(*options)

type options struct {
	includeVersion bool
	flatten        bool
	root           string
	overrides      map[string]any
	provisioner    Provisioner
	handler        func(Warning)
}

func newOptions(opts []Option) *options {
	o := &options{
		includeVersion: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithoutVersion omits version suffixes from class tags. Identity
// fingerprints always serialize this way, so equal configurations
// match across releases.
func WithoutVersion() Option {
	return func(o *options) {
		o.includeVersion = false
	}
}

// WithFlatten collapses the serialized mapping into a single level
// with dotted keys. Class tags disappear and sequence elements become
// index segments, so the result is for inspection, not decoding.
func WithFlatten() Option {
	return func(o *options) {
		o.flatten = true
	}
}

// WithRoot sets the reference directory handed to RootAware objects
// and resolvers. SaveYAML and LoadYAML set it from the file path.
func WithRoot(dir string) Option {
	return func(o *options) {
		o.root = dir
	}
}

// WithOverride replaces the serialized value of one top-level argument
// before the object is constructed. Unknown names are ignored; nested
// objects are not affected.
func WithOverride(name string, value any) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]any)
		}
		o.overrides[name] = value
	}
}

// WithOverrides replaces the serialized values of several top-level
// arguments at once.
func WithOverrides(values map[string]any) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]any, len(values))
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// WithProvisioner installs a fallback consulted when a class tag names
// an unregistered type. The provisioner runs at most once per tag and
// the registry is checked again afterwards.
func WithProvisioner(p Provisioner) Option {
	return func(o *options) {
		o.provisioner = p
	}
}

// WithWarningHandler installs a callback receiving every drift
// diagnostic the call raises. Warnings are also emitted as signals
// regardless of the handler.
func WithWarningHandler(fn func(Warning)) Option {
	return func(o *options) {
		o.handler = fn
	}
}

// Provisioner supplies missing registrations on demand, typically by
// loading a plugin or fetching a package. Provision returns nil when
// the package for the given tag should now be registered.
type Provisioner interface {
	Provision(ctx context.Context, pkg, version string) error
}
