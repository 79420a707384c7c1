package audobject

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/samber/lo"
)

// FromDict reconstructs an object from its serialized mapping. The
// mapping's single entry names the registered type; unknown tags are
// offered to the provisioner before failing.
func FromDict(ctx context.Context, d *Dict, opts ...Option) (obj Object, err error) {
	start := time.Now()
	defer func() {
		emitDecoded(ctx, tagOf(d), time.Since(start), err)
	}()

	st := newCodecState(ctx, opts)
	return st.decodeObject(d, true)
}

func tagOf(d *Dict) string {
	if d == nil || d.Len() == 0 {
		return ""
	}
	if k, _ := d.At(0); isClassTag(k) {
		return k.(string)
	}
	return ""
}

func (st *codecState) decodeObject(d *Dict, topLevel bool) (Object, error) {
	if d.Len() == 0 {
		return nil, newValueError(ErrDecode, "", "*audobject.Dict",
			fmt.Errorf("mapping carries no class tag"))
	}
	key, rawBody := d.At(0)
	if !isClassTag(key) {
		return nil, newValueError(ErrDecode, "", "*audobject.Dict",
			fmt.Errorf("mapping carries no class tag"))
	}
	tag := key.(string)
	info, err := parseTag(tag)
	if err != nil {
		return nil, err
	}

	desc, err := st.resolveDescriptor(info, tag)
	if err != nil {
		return nil, err
	}

	available, _ := PackageVersion(desc.pkg)
	if packageDrift(info.Version, available) {
		st.warn(WarningPackageMismatch, tag,
			driftMessage(tag, info.Version, available), nil)
	}

	body := NewDict()
	if rawBody != nil {
		var ok bool
		body, ok = rawBody.(*Dict)
		if !ok {
			return nil, newValueError(ErrDecode, tag, typeNameOf(rawBody),
				fmt.Errorf("arguments must be a mapping"))
		}
	}

	params := NewDict()
	for i := 0; i < body.Len(); i++ {
		k, raw := body.At(i)
		name := fmt.Sprint(k)
		decoded, err := st.decodeArgument(desc, name, raw)
		if err != nil {
			return nil, err
		}
		params.Set(name, decoded)
	}

	return st.construct(desc, tag, info.Version, available, params, topLevel)
}

// resolveDescriptor looks a tag up in the registry, consulting the
// provisioner at most once per tag when the lookup misses.
func (st *codecState) resolveDescriptor(info tagInfo, tag string) (*descriptor, error) {
	if desc, ok := lookupByName(info.Name); ok {
		return desc, nil
	}
	if st.opts.provisioner != nil && !st.provisioned[info.Name] {
		st.provisioned[info.Name] = true
		if err := st.opts.provisioner.Provision(st.ctx, info.Pkg, info.Version); err != nil {
			return nil, fmt.Errorf("provisioning %q for %s: %w", info.Pkg, tag, err)
		}
		if desc, ok := lookupByName(info.Name); ok {
			return desc, nil
		}
	}
	return nil, newTagError(ErrUnknownTag, tag)
}

// decodeArgument converts one raw serialized value. When the argument
// has a resolver and the raw value carries the resolver's declared
// type, the resolver runs instead of the generic decoder.
func (st *codecState) decodeArgument(desc *descriptor, name string, raw any) (any, error) {
	if r, ok := desc.resolvers[name]; ok && raw != nil && reflect.TypeOf(raw) == r.EncodedType() {
		if ra, ok := r.(RootAware); ok {
			ra.SetRoot(st.opts.root)
		}
		decoded, err := r.Decode(raw)
		if err != nil {
			return nil, newValueError(ErrDecode, name, typeNameOf(raw), err)
		}
		return decoded, nil
	}
	return st.decodeValue(name, raw)
}

// decodeValue walks a raw serialized value, turning tagged mappings
// into objects and leaving scalars alone. Coercion to field types
// happens at assignment.
func (st *codecState) decodeValue(name string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch val := raw.(type) {
	case *Dict:
		if val.Len() > 0 {
			if k, _ := val.At(0); isClassTag(k) {
				return st.decodeObject(val, false)
			}
		}
		out := NewDict()
		for i := 0; i < val.Len(); i++ {
			k, item := val.At(i)
			dk, err := st.decodeValue(name, k)
			if err != nil {
				return nil, err
			}
			dv, err := st.decodeValue(name, item)
			if err != nil {
				return nil, err
			}
			out.Set(dk, dv)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			dv, err := st.decodeValue(name, item)
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	case time.Time:
		return val, nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return lessKey(keys[i], keys[j])
		})
		out := NewDict()
		for _, key := range keys {
			dk, err := st.decodeValue(name, key.Interface())
			if err != nil {
				return nil, err
			}
			dv, err := st.decodeValue(name, rv.MapIndex(key).Interface())
			if err != nil {
				return nil, err
			}
			out.Set(dk, dv)
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			dv, err := st.decodeValue(name, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	default:
		return raw, nil
	}
}

// construct builds the object: partition arguments into assigned,
// defaulted and ignored, fail on missing mandatory ones, then assign
// fields, extras and borrowed values.
func (st *codecState) construct(desc *descriptor, tag, recorded, available string, params *Dict, topLevel bool) (Object, error) {
	if topLevel && len(st.opts.overrides) > 0 {
		names := lo.Keys(st.opts.overrides)
		sort.Strings(names)
		for _, name := range names {
			if desc.hasArgument(name) {
				params.Set(name, st.opts.overrides[name])
			}
		}
	}

	var missingMandatory, missingOptional, ignored []string

	known := make(map[string]bool, len(desc.byName)+len(desc.borrowed))
	for _, spec := range desc.args {
		known[spec.name] = true
		if params.Has(spec.name) {
			continue
		}
		if _, ok := desc.defaultOf(spec.name); ok || spec.hidden {
			missingOptional = append(missingOptional, spec.name)
			continue
		}
		missingMandatory = append(missingMandatory, spec.name)
	}
	for _, spec := range desc.borrowed {
		known[spec.name] = true
		if params.Has(spec.name) {
			continue
		}
		if _, ok := desc.defaultOf(spec.name); ok {
			missingOptional = append(missingOptional, spec.name)
			continue
		}
		missingMandatory = append(missingMandatory, spec.name)
	}

	extras := NewDict()
	for i := 0; i < params.Len(); i++ {
		k, v := params.At(i)
		name := k.(string)
		if known[name] {
			continue
		}
		if desc.extrasIndex != nil {
			extras.Set(name, v)
			continue
		}
		ignored = append(ignored, name)
	}

	if len(missingMandatory) > 0 {
		return nil, newConstructError(tag, missingMandatory, recorded, available)
	}
	if len(missingOptional) > 0 && Config.SignatureMismatch > WarnStandard {
		st.warn(WarningMissingDefaults, tag,
			fmt.Sprintf("missing optional arguments %v while instantiating %s from version %q when using version %q",
				missingOptional, tag, recorded, available),
			missingOptional)
	}
	if len(ignored) > 0 && Config.SignatureMismatch > WarnSilent {
		st.warn(WarningIgnoredArguments, tag,
			fmt.Sprintf("ignoring arguments %v while instantiating %s from version %q when using version %q",
				ignored, tag, recorded, available),
			ignored)
	}

	pv := reflect.New(desc.typ)
	obj := pv.Interface().(Object)
	state := obj.objectState()
	state.reconstructed = true
	state.root = st.opts.root
	elem := pv.Elem()

	for _, spec := range desc.args {
		value, ok := params.Get(spec.name)
		if !ok {
			value, _ = desc.defaultOf(spec.name)
		}
		if err := assignValue(elem.FieldByIndex(spec.index), value); err != nil {
			return nil, newValueError(ErrDecode, spec.name, typeNameOf(value), err)
		}
	}

	if desc.extrasIndex != nil && extras.Len() > 0 {
		if err := assignValue(elem.FieldByIndex(desc.extrasIndex), extras); err != nil {
			return nil, newValueError(ErrDecode, "extras", "*audobject.Dict", err)
		}
	}

	for _, spec := range desc.borrowed {
		value, ok := params.Get(spec.name)
		if !ok {
			value, ok = desc.defaultOf(spec.name)
		}
		if !ok {
			continue
		}
		if err := borrowInto(elem.FieldByIndex(spec.sourceIndex), spec.name, value); err != nil {
			return nil, newBorrowError(desc.typ.String(), []string{spec.name}, err.Error())
		}
	}

	if desc.wantsRoot {
		obj.(RootAware).SetRoot(st.opts.root)
	}
	if desc.validates {
		if err := obj.(Validator).Validate(); err != nil {
			return nil, fmt.Errorf("validating %s: %w", tag, err)
		}
	}
	return obj, nil
}

// assignValue coerces a decoded value onto a struct field. Sequences
// fill slices and arrays, mappings fill maps and *Dict fields, and
// scalars convert between compatible kinds.
func assignValue(fv reflect.Value, value any) error {
	if value == nil {
		fv.SetZero()
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}

	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := value.(int); ok {
			if fv.OverflowInt(int64(i)) {
				return fmt.Errorf("value %d overflows %s", i, fv.Type())
			}
			fv.SetInt(int64(i))
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := value.(int); ok {
			if i < 0 || fv.OverflowUint(uint64(i)) {
				return fmt.Errorf("value %d overflows %s", i, fv.Type())
			}
			fv.SetUint(uint64(i))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch n := value.(type) {
		case float64:
			fv.SetFloat(n)
			return nil
		case int:
			fv.SetFloat(float64(n))
			return nil
		}
	case reflect.String:
		if s, ok := value.(string); ok {
			fv.SetString(s)
			return nil
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			fv.SetBool(b)
			return nil
		}
	case reflect.Slice:
		if items, ok := value.([]any); ok {
			out := reflect.MakeSlice(fv.Type(), len(items), len(items))
			for i, item := range items {
				if err := assignValue(out.Index(i), item); err != nil {
					return err
				}
			}
			fv.Set(out)
			return nil
		}
	case reflect.Array:
		if items, ok := value.([]any); ok {
			if len(items) != fv.Len() {
				return fmt.Errorf("sequence of length %d does not fit %s", len(items), fv.Type())
			}
			for i, item := range items {
				if err := assignValue(fv.Index(i), item); err != nil {
					return err
				}
			}
			return nil
		}
	case reflect.Map:
		if d, ok := value.(*Dict); ok {
			out := reflect.MakeMapWithSize(fv.Type(), d.Len())
			for i := 0; i < d.Len(); i++ {
				k, v := d.At(i)
				kv := reflect.New(fv.Type().Key()).Elem()
				if err := assignValue(kv, k); err != nil {
					return err
				}
				ev := reflect.New(fv.Type().Elem()).Elem()
				if err := assignValue(ev, v); err != nil {
					return err
				}
				out.SetMapIndex(kv, ev)
			}
			fv.Set(out)
			return nil
		}
	case reflect.Pointer:
		if rv.Kind() == reflect.Pointer && rv.Type().Elem().AssignableTo(fv.Type().Elem()) {
			fv.Set(rv)
			return nil
		}
		pv := reflect.New(fv.Type().Elem())
		if err := assignValue(pv.Elem(), value); err != nil {
			return err
		}
		fv.Set(pv)
		return nil
	case reflect.Struct:
		if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == fv.Type() {
			fv.Set(rv.Elem())
			return nil
		}
	}
	return fmt.Errorf("cannot assign %s to %s", typeNameOf(value), fv.Type())
}
