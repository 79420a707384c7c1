package audobject

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dict is a mapping that preserves insertion order. Serialized object
// mappings decode into it, and it is the only mapping type whose key
// order survives a round trip. Plain Go maps serialize with sorted
// keys instead.
//
// Keys must be comparable. Updating an existing key keeps its
// position.
type Dict struct {
	keys   []any
	values []any
	index  map[any]int
}

// NewDict returns an empty ordered mapping.
func NewDict() *Dict {
	return &Dict{
		index: make(map[any]int),
	}
}

// DictOf builds a Dict from alternating key/value pairs. It panics
// when given an odd number of arguments.
func DictOf(pairs ...any) *Dict {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("audobject: DictOf requires key/value pairs, got %d arguments", len(pairs)))
	}
	d := NewDict()
	for i := 0; i < len(pairs); i += 2 {
		d.Set(pairs[i], pairs[i+1])
	}
	return d
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Has reports whether key is present.
func (d *Dict) Has(key any) bool {
	_, ok := d.index[key]
	return ok
}

// Get returns the value stored under key.
func (d *Dict) Get(key any) (any, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.values[i], true
}

// Set stores value under key, appending the key when it is new and
// keeping its position when it already exists.
func (d *Dict) Set(key, value any) {
	if d.index == nil {
		d.index = make(map[any]int)
	}
	if i, ok := d.index[key]; ok {
		d.values[i] = value
		return
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key any) bool {
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.values = append(d.values[:i], d.values[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.keys); j++ {
		d.index[d.keys[j]] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	out := make([]any, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the values in insertion order.
func (d *Dict) Values() []any {
	out := make([]any, len(d.values))
	copy(out, d.values)
	return out
}

// At returns the entry at position i in insertion order.
func (d *Dict) At(i int) (key, value any) {
	return d.keys[i], d.values[i]
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (d *Dict) Range(fn func(key, value any) bool) {
	for i := range d.keys {
		if !fn(d.keys[i], d.values[i]) {
			return
		}
	}
}

// Clone returns a shallow copy.
func (d *Dict) Clone() *Dict {
	out := NewDict()
	for i := range d.keys {
		out.Set(d.keys[i], d.values[i])
	}
	return out
}

// MarshalYAML emits the entries as a mapping node in insertion order.
func (d *Dict) MarshalYAML() (any, error) {
	return valueToNode(d)
}

// UnmarshalYAML fills the Dict from a mapping node, preserving the
// document's key order.
func (d *Dict) UnmarshalYAML(node *yaml.Node) error {
	v, err := nodeToValue(node)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Dict)
	if !ok {
		return newValueError(ErrDecode, "", fmt.Sprintf("%T", v),
			fmt.Errorf("expected a mapping, got %s", node.Tag))
	}
	*d = *parsed
	return nil
}
