package audobject

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

var tagOnce sync.Once

// ensureTagRegistered makes the scanner extract arg tags. It must run
// before the first sentinel scan, including the built-in
// registrations during package init.
func ensureTagRegistered() {
	tagOnce.Do(func() {
		sentinel.Tag("arg")
	})
}

// argSpec describes one field-backed argument.
type argSpec struct {
	name   string
	index  []int // field index path from the registered struct
	typ    reflect.Type
	hidden bool
}

// borrowSpec describes an argument read from and written to another
// field instead of its own.
type borrowSpec struct {
	name        string // argument name in the serialized mapping
	sourceField string // Go field name on the registered type
	sourceIndex []int
	sourceType  reflect.Type
}

// descriptor is the cached serialization plan for a registered type.
// Built once at registration, read-only afterwards.
type descriptor struct {
	typ    reflect.Type // struct type, without pointer
	name   string       // dotted registered name, e.g. "audsp.Tuner"
	pkg    string       // owning package for version lookups
	args   []*argSpec   // declaration order, visible and hidden
	byName map[string]*argSpec

	borrowed    []*borrowSpec
	extrasIndex []int // index of the *Dict sink, nil when absent

	resolvers map[string]Resolver
	defaults  map[string]any

	wantsRoot bool // *T implements RootAware
	validates bool // *T implements Validator
}

// tag renders the class tag for this descriptor.
func (d *descriptor) tag(version string) string {
	return formatTag(d.pkg, d.name, version)
}

// hasArgument reports whether name is accepted by this type, either
// as a field-backed or a borrowed argument.
func (d *descriptor) hasArgument(name string) bool {
	if _, ok := d.byName[name]; ok {
		return true
	}
	for _, b := range d.borrowed {
		if b.name == name {
			return true
		}
	}
	return false
}

// defaultOf returns the registered default for an argument name.
func (d *descriptor) defaultOf(name string) (any, bool) {
	v, ok := d.defaults[name]
	return v, ok
}

var (
	argNameRE     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	objectType    = reflect.TypeFor[Object]()
	rootAwareType = reflect.TypeFor[RootAware]()
	validatorType = reflect.TypeFor[Validator]()
	baseType      = reflect.TypeFor[Base]()
	dictType      = reflect.TypeFor[*Dict]()
)

// buildDescriptor scans T's fields and combines them with the
// registration options into a descriptor. All structural problems are
// collected and reported in a single error.
func buildDescriptor[T any](name string, o *registerOptions) (*descriptor, error) {
	ensureTagRegistered()
	typ := reflect.TypeFor[T]()
	typeName := typ.String()
	var problems []string

	if typ.Kind() != reflect.Struct {
		problems = append(problems, fmt.Sprintf("%s is not a struct type", typeName))
		return nil, newStructuralError(typeName, problems)
	}
	if !reflect.PointerTo(typ).Implements(objectType) {
		problems = append(problems, "type does not embed audobject.Base")
	}
	if _, err := parseTag(tagMarker + name); err != nil {
		problems = append(problems,
			fmt.Sprintf("registered name %q is not a dotted path", name))
	}

	d := &descriptor{
		typ:       typ,
		name:      name,
		pkg:       firstComponent(name),
		byName:    make(map[string]*argSpec),
		resolvers: make(map[string]Resolver),
		defaults:  make(map[string]any),
	}
	if o.pkg != "" {
		d.pkg = o.pkg
	}

	meta := sentinel.Scan[T]()
	problems = append(problems, collectArgs(d, typ, meta, nil)...)
	problems = append(problems, collectHiddenTags(typ)...)

	for _, b := range o.borrowed {
		problems = append(problems, bindBorrow(d, b.name, b.source)...)
	}

	// A field serving as a borrow source is not an argument itself.
	for _, b := range d.borrowed {
		if spec, ok := d.byName[b.name]; ok {
			problems = append(problems,
				fmt.Sprintf("borrowed argument %q collides with field %s", b.name, fieldName(d.typ, spec.index)))
		}
		for _, spec := range d.args {
			if slices.Equal(spec.index, b.sourceIndex) {
				delete(d.byName, spec.name)
				d.args = removeArg(d.args, spec)
				break
			}
		}
	}

	for name, value := range o.defaults {
		if !d.hasArgument(name) {
			problems = append(problems, fmt.Sprintf("default for unknown argument %q", name))
			continue
		}
		d.defaults[name] = value
	}
	for name, r := range o.resolvers {
		if !d.hasArgument(name) {
			problems = append(problems, fmt.Sprintf("resolver for unknown argument %q", name))
			continue
		}
		d.resolvers[name] = r
	}

	for _, spec := range d.args {
		if spec.hidden {
			if _, ok := d.defaults[spec.name]; !ok {
				problems = append(problems,
					fmt.Sprintf("hidden argument %q has no default", spec.name))
			}
		}
	}

	if len(problems) > 0 {
		return nil, newStructuralError(typeName, problems)
	}

	probe := reflect.New(typ).Interface()
	_, d.wantsRoot = probe.(RootAware)
	_, d.validates = probe.(Validator)
	return d, nil
}

// collectArgs walks the scanned fields, descending into embedded
// structs so promoted arguments participate like local ones.
func collectArgs(d *descriptor, rt reflect.Type, meta sentinel.Metadata, parentIndex []int) []string {
	var problems []string
	for _, field := range meta.Fields {
		fullIndex := append(append([]int{}, parentIndex...), field.Index...)
		sf := rt.FieldByIndex(field.Index)
		tag, tagged := field.Tags["arg"]

		if sf.Anonymous {
			if sf.Type == baseType || tag == "-" {
				continue
			}
			if !tagged && field.Kind == sentinel.KindStruct {
				if nested := scanEmbedded(field.ReflectType); nested != nil {
					problems = append(problems,
						collectArgs(d, field.ReflectType, *nested, fullIndex)...)
				}
				continue
			}
		}

		if !tagged || tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		hidden := false
		extras := false
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "hidden":
				hidden = true
			case "extras":
				extras = true
			case "":
			default:
				problems = append(problems,
					fmt.Sprintf("field %s has unknown tag option %q", sf.Name, opt))
			}
		}

		if extras {
			if name != "" {
				problems = append(problems,
					fmt.Sprintf("extras field %s must not carry a name", sf.Name))
			}
			if hidden {
				problems = append(problems,
					fmt.Sprintf("extras field %s cannot be hidden", sf.Name))
			}
			if sf.Type != dictType {
				problems = append(problems,
					fmt.Sprintf("extras field %s must have type *audobject.Dict", sf.Name))
			}
			if d.extrasIndex != nil {
				problems = append(problems,
					fmt.Sprintf("field %s declares a second extras sink", sf.Name))
			}
			d.extrasIndex = fullIndex
			continue
		}

		if !argNameRE.MatchString(name) {
			problems = append(problems,
				fmt.Sprintf("field %s has invalid argument name %q", sf.Name, name))
			continue
		}
		if _, dup := d.byName[name]; dup {
			problems = append(problems,
				fmt.Sprintf("argument name %q bound to more than one field", name))
			continue
		}

		spec := &argSpec{
			name:   name,
			index:  fullIndex,
			typ:    sf.Type,
			hidden: hidden,
		}
		d.args = append(d.args, spec)
		d.byName[name] = spec
	}
	return problems
}

// collectHiddenTags reports arg tags on unexported fields, which the
// scan cannot see and serialization cannot reach.
func collectHiddenTags(rt reflect.Type) []string {
	var problems []string
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("arg"); ok && tag != "-" {
			problems = append(problems,
				fmt.Sprintf("unexported field %s cannot be an argument", sf.Name))
		}
	}
	return problems
}

// bindBorrow resolves a borrowed argument's source field on the
// registered type.
func bindBorrow(d *descriptor, name, sourceField string) []string {
	if !argNameRE.MatchString(name) {
		return []string{fmt.Sprintf("invalid borrowed argument name %q", name)}
	}
	for _, b := range d.borrowed {
		if b.name == name {
			return []string{fmt.Sprintf("borrowed argument %q declared twice", name)}
		}
	}
	sf, ok := d.typ.FieldByName(sourceField)
	if !ok || sf.PkgPath != "" {
		return []string{fmt.Sprintf(
			"borrowed argument %q names missing or unexported source field %s", name, sourceField)}
	}
	if !borrowableSource(sf.Type) {
		return []string{fmt.Sprintf(
			"borrow source %s must be a struct, struct pointer or string-keyed map, not %s",
			sourceField, sf.Type)}
	}
	d.borrowed = append(d.borrowed, &borrowSpec{
		name:        name,
		sourceField: sourceField,
		sourceIndex: sf.Index,
		sourceType:  sf.Type,
	})
	return nil
}

func borrowableSource(rt reflect.Type) bool {
	if rt == dictType {
		return true
	}
	switch rt.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer:
		return rt.Elem().Kind() == reflect.Struct
	case reflect.Map:
		return rt.Key().Kind() == reflect.String
	default:
		return false
	}
}

// scanEmbedded returns metadata for an embedded struct type, from the
// sentinel cache when available and by direct reflection otherwise.
func scanEmbedded(rt reflect.Type) *sentinel.Metadata {
	if spec, ok := sentinel.Lookup(rt.String()); ok {
		return &spec
	}

	if rt.Kind() != reflect.Struct {
		return nil
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        parseArgTags(sf.Tag),
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return &spec
}

// parseArgTags extracts arg tags from a struct tag.
func parseArgTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	if val, ok := tag.Lookup("arg"); ok {
		tags["arg"] = val
	}
	return tags
}

func fieldName(rt reflect.Type, index []int) string {
	return rt.FieldByIndex(index).Name
}

func removeArg(args []*argSpec, spec *argSpec) []*argSpec {
	out := args[:0]
	for _, a := range args {
		if a != spec {
			out = append(out, a)
		}
	}
	return out
}

func typeNameOf(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
