package audobject

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// codecState carries the options and bookkeeping of one serialization
// call. A fresh state is built per call, so calls never share
// warning handlers, roots or cycle tracking.
type codecState struct {
	ctx         context.Context
	opts        *options
	visiting    map[Object]bool
	provisioned map[string]bool
}

func newCodecState(ctx context.Context, opts []Option) *codecState {
	return &codecState{
		ctx:         ctx,
		opts:        newOptions(opts),
		visiting:    make(map[Object]bool),
		provisioned: make(map[string]bool),
	}
}

func (st *codecState) warn(kind WarningKind, tag, message string, names []string) {
	w := Warning{
		Kind:    kind,
		Message: message,
		Tag:     tag,
		Names:   names,
	}
	if st.opts.handler != nil {
		st.opts.handler(w)
	}
	emitWarning(st.ctx, w)
}

// ToDict converts obj into its serialized mapping: a single entry
// whose key is the class tag and whose value maps argument names to
// encoded values. With WithFlatten the result is collapsed into
// dotted keys instead.
func ToDict(ctx context.Context, obj Object, opts ...Option) (d *Dict, err error) {
	start := time.Now()
	defer func() {
		emitEncoded(ctx, typeNameOf(obj), time.Since(start), err)
	}()

	st := newCodecState(ctx, opts)
	d, err = st.encodeObject(obj)
	if err != nil {
		return nil, err
	}
	if st.opts.flatten {
		return flattenDict(d), nil
	}
	return d, nil
}

func (st *codecState) encodeObject(obj Object) (*Dict, error) {
	if st.visiting[obj] {
		return nil, fmt.Errorf("%w: %s references itself", ErrCycle, typeNameOf(obj))
	}
	st.visiting[obj] = true
	defer delete(st.visiting, obj)

	desc, _, err := descriptorOf(obj)
	if err != nil {
		return nil, err
	}
	args, err := Arguments(obj)
	if err != nil {
		return nil, err
	}

	version, known := PackageVersion(desc.pkg)
	if !known {
		st.warn(WarningMissingVersion, desc.tag(""),
			fmt.Sprintf("could not determine a version for package %q", desc.pkg),
			nil)
	}
	tagVersion := ""
	if st.opts.includeVersion && known {
		tagVersion = version
	}

	body := NewDict()
	for i := 0; i < args.Len(); i++ {
		k, value := args.At(i)
		name := k.(string)
		encoded, err := st.encodeArgument(desc, name, value)
		if err != nil {
			return nil, err
		}
		body.Set(name, encoded)
	}

	out := NewDict()
	out.Set(desc.tag(tagVersion), body)
	return out, nil
}

func (st *codecState) encodeArgument(desc *descriptor, name string, value any) (any, error) {
	if r, ok := desc.resolvers[name]; ok && value != nil {
		if ra, ok := r.(RootAware); ok {
			ra.SetRoot(st.opts.root)
		}
		encoded, err := r.Encode(value)
		if err != nil {
			return nil, newValueError(ErrEncode, name, typeNameOf(value), err)
		}
		return st.normalizeResolved(name, encoded)
	}
	return st.encodeValue(name, value)
}

// encodeValue converts a runtime value to the serializable set: nil,
// bool, int, float64, string, time.Time, []any and *Dict. Nested
// objects become tagged mappings, callables fail hard, and anything
// else degrades to its debug representation with a warning.
func (st *codecState) encodeValue(name string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if obj, ok := v.(Object); ok {
		return st.encodeObject(obj)
	}
	switch val := v.(type) {
	case *Dict:
		out := NewDict()
		for i := 0; i < val.Len(); i++ {
			k, item := val.At(i)
			ek, err := st.encodeValue(name, k)
			if err != nil {
				return nil, err
			}
			ev, err := st.encodeValue(name, item)
			if err != nil {
				return nil, err
			}
			out.Set(ek, ev)
		}
		return out, nil
	case time.Time:
		return val, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u), nil
		}
		return int(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice:
		if rv.IsNil() {
			return []any{}, nil
		}
		return st.encodeSequence(name, rv)
	case reflect.Array:
		return st.encodeSequence(name, rv)
	case reflect.Map:
		return st.encodeMap(name, rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return st.encodeValue(name, rv.Elem().Interface())
	case reflect.Struct:
		if reflect.PointerTo(rv.Type()).Implements(objectType) {
			boxed := reflect.New(rv.Type())
			boxed.Elem().Set(rv)
			return st.encodeObject(boxed.Interface().(Object))
		}
		return st.fallbackValue(name, v), nil
	case reflect.Func, reflect.Chan:
		return nil, newValueError(ErrUnsupportedType, name, typeNameOf(v),
			fmt.Errorf("%s values cannot be serialized", rv.Kind()))
	default:
		return st.fallbackValue(name, v), nil
	}
}

func (st *codecState) encodeSequence(name string, rv reflect.Value) ([]any, error) {
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev, err := st.encodeValue(name, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// encodeMap serializes a plain Go map with sorted keys, since map
// iteration order would otherwise leak into the output and break
// identity fingerprints.
func (st *codecState) encodeMap(name string, rv reflect.Value) (*Dict, error) {
	out := NewDict()
	if rv.IsNil() {
		return out, nil
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})
	for _, key := range keys {
		ek, err := st.encodeValue(name, key.Interface())
		if err != nil {
			return nil, err
		}
		ev, err := st.encodeValue(name, rv.MapIndex(key).Interface())
		if err != nil {
			return nil, err
		}
		out.Set(ek, ev)
	}
	return out, nil
}

func lessKey(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.String:
		if b.Kind() == reflect.String {
			return a.String() < b.String()
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch b.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		}
	}
	return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
}

func (st *codecState) fallbackValue(name string, v any) string {
	st.warn(WarningValueFallback, "",
		fmt.Sprintf("no default encoding exists for type %q, consider to register a custom resolver",
			typeNameOf(v)),
		[]string{name})
	return fmt.Sprintf("%v", v)
}

// normalizeResolved checks resolver output against the serializable
// set, widening scalars and container shells on the way. Resolver
// output is final: nested objects are rejected rather than encoded.
func (st *codecState) normalizeResolved(name string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if _, ok := v.(Object); ok {
		return nil, newValueError(ErrEncode, name, typeNameOf(v),
			fmt.Errorf("resolver output may not contain objects"))
	}
	switch val := v.(type) {
	case *Dict:
		out := NewDict()
		for i := 0; i < val.Len(); i++ {
			k, item := val.At(i)
			nk, err := st.normalizeResolved(name, k)
			if err != nil {
				return nil, err
			}
			nv, err := st.normalizeResolved(name, item)
			if err != nil {
				return nil, err
			}
			out.Set(nk, nv)
		}
		return out, nil
	case time.Time:
		return val, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u), nil
		}
		return int(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := st.normalizeResolved(name, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return lessKey(keys[i], keys[j])
		})
		out := NewDict()
		for _, key := range keys {
			nk, err := st.normalizeResolved(name, key.Interface())
			if err != nil {
				return nil, err
			}
			nv, err := st.normalizeResolved(name, rv.MapIndex(key).Interface())
			if err != nil {
				return nil, err
			}
			out.Set(nk, nv)
		}
		return out, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return st.normalizeResolved(name, rv.Elem().Interface())
	default:
		return nil, newValueError(ErrEncode, name, typeNameOf(v),
			fmt.Errorf("resolver output is not serializable"))
	}
}

// flattenDict collapses a serialized mapping into a single level.
// Class tags vanish, nested mappings contribute dotted segments and
// sequence elements their index. The transformation is one way.
func flattenDict(d *Dict) *Dict {
	out := NewDict()
	flattenInto(out, d, "")
	return out
}

func flattenInto(out *Dict, d *Dict, prefix string) {
	for i := 0; i < d.Len(); i++ {
		k, v := d.At(i)
		if isClassTag(k) {
			if inner, ok := v.(*Dict); ok {
				flattenInto(out, inner, prefix)
				continue
			}
		}
		key := fmt.Sprint(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		flattenEntry(out, key, v)
	}
}

func flattenEntry(out *Dict, key string, v any) {
	switch val := v.(type) {
	case *Dict:
		flattenInto(out, val, key)
	case []any:
		for i, item := range val {
			flattenEntry(out, fmt.Sprintf("%s.%d", key, i), item)
		}
	default:
		out.Set(key, val)
	}
}
