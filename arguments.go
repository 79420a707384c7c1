package audobject

import (
	"fmt"
	"reflect"
	"strings"
)

// Arguments returns the serializable arguments of obj as an ordered
// mapping: visible field-backed arguments in declaration order, then
// extras entries, then borrowed arguments. Hidden arguments do not
// appear; they are restored from their defaults when decoding.
func Arguments(obj Object) (*Dict, error) {
	desc, rv, err := descriptorOf(obj)
	if err != nil {
		return nil, err
	}

	out := NewDict()
	for _, spec := range desc.args {
		if spec.hidden {
			continue
		}
		out.Set(spec.name, rv.FieldByIndex(spec.index).Interface())
	}

	if desc.extrasIndex != nil {
		extras, _ := rv.FieldByIndex(desc.extrasIndex).Interface().(*Dict)
		if extras != nil {
			for i := 0; i < extras.Len(); i++ {
				k, v := extras.At(i)
				name, ok := k.(string)
				if !ok {
					return nil, newValueError(ErrEncode, fmt.Sprint(k), typeNameOf(k),
						fmt.Errorf("extras keys must be strings"))
				}
				out.Set(name, v)
			}
		}
	}

	var missing []string
	for _, spec := range desc.borrowed {
		value, ok := borrowFrom(rv.FieldByIndex(spec.sourceIndex), spec.name)
		if !ok {
			missing = append(missing, spec.name)
			continue
		}
		out.Set(spec.name, value)
	}
	if len(missing) > 0 {
		return nil, newBorrowError(desc.typ.String(), missing,
			"argument not found on source")
	}
	return out, nil
}

// descriptorOf resolves obj's registered descriptor and its
// dereferenced struct value.
func descriptorOf(obj Object) (*descriptor, reflect.Value, error) {
	if obj == nil {
		return nil, reflect.Value{}, fmt.Errorf("%w: nil object", ErrNotRegistered)
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, reflect.Value{}, fmt.Errorf("%w: %s", ErrNotRegistered, typeNameOf(obj))
	}
	desc, ok := lookupByType(rv.Type().Elem())
	if !ok {
		return nil, reflect.Value{}, fmt.Errorf("%w: %s", ErrNotRegistered, typeNameOf(obj))
	}
	return desc, rv.Elem(), nil
}

// borrowFrom reads the value of a borrowed argument from its source.
func borrowFrom(sv reflect.Value, name string) (any, bool) {
	if sv.Type() == dictType {
		d, _ := sv.Interface().(*Dict)
		if d == nil {
			return nil, false
		}
		return d.Get(name)
	}
	switch sv.Kind() {
	case reflect.Pointer:
		if sv.IsNil() {
			return nil, false
		}
		return borrowFrom(sv.Elem(), name)
	case reflect.Struct:
		fv, ok := sourceField(sv, name)
		if !ok {
			return nil, false
		}
		return fv.Interface(), true
	case reflect.Map:
		if sv.IsNil() {
			return nil, false
		}
		mv := sv.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	default:
		return nil, false
	}
}

// borrowInto writes the value of a borrowed argument back into its
// source, allocating nil pointers and maps on the way.
func borrowInto(sv reflect.Value, name string, value any) error {
	if sv.Type() == dictType {
		d, _ := sv.Interface().(*Dict)
		if d == nil {
			d = NewDict()
			sv.Set(reflect.ValueOf(d))
		}
		d.Set(name, value)
		return nil
	}
	switch sv.Kind() {
	case reflect.Pointer:
		if sv.IsNil() {
			sv.Set(reflect.New(sv.Type().Elem()))
		}
		return borrowInto(sv.Elem(), name, value)
	case reflect.Struct:
		fv, ok := sourceField(sv, name)
		if !ok {
			return fmt.Errorf("no field accepts %q", name)
		}
		return assignValue(fv, value)
	case reflect.Map:
		if sv.IsNil() {
			sv.Set(reflect.MakeMap(sv.Type()))
		}
		ev := reflect.New(sv.Type().Elem()).Elem()
		if err := assignValue(ev, value); err != nil {
			return err
		}
		sv.SetMapIndex(reflect.ValueOf(name), ev)
		return nil
	default:
		return fmt.Errorf("source kind %s cannot hold arguments", sv.Kind())
	}
}

// sourceField locates the field backing an argument name on a borrow
// source: its registered argument when the source type is registered,
// the field tagged with the name otherwise, falling back to the
// exported field of the same name.
func sourceField(sv reflect.Value, name string) (reflect.Value, bool) {
	if desc, ok := lookupByType(sv.Type()); ok {
		if spec, ok := desc.byName[name]; ok {
			return sv.FieldByIndex(spec.index), true
		}
	}
	rt := sv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tagName, _, _ := strings.Cut(sf.Tag.Get("arg"), ",")
		if tagName == name {
			return sv.Field(i), true
		}
	}
	exported := strings.ToUpper(name[:1]) + name[1:]
	if sf, ok := rt.FieldByName(exported); ok && sf.PkgPath == "" {
		return sv.FieldByIndex(sf.Index), true
	}
	return reflect.Value{}, false
}
