package audobject

import "github.com/samber/lo"

// Dictionary is a serializable mapping object. It declares no fixed
// arguments; every entry lives in the extras sink, so arbitrary
// string-keyed content survives a round trip, including nested
// objects as values.
type Dictionary struct {
	Base
	Entries *Dict `arg:",extras"`
}

// NewDictionary builds a Dictionary from alternating key/value pairs.
// Keys must be strings.
func NewDictionary(pairs ...any) *Dictionary {
	return &Dictionary{Entries: DictOf(pairs...)}
}

func (d *Dictionary) ensure() *Dict {
	if d.Entries == nil {
		d.Entries = NewDict()
	}
	return d.Entries
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key string) (any, bool) {
	return d.ensure().Get(key)
}

// Set stores value under key, keeping insertion order.
func (d *Dictionary) Set(key string, value any) {
	d.ensure().Set(key, value)
}

// Has reports whether key is present.
func (d *Dictionary) Has(key string) bool {
	return d.ensure().Has(key)
}

// Delete removes key and reports whether it was present.
func (d *Dictionary) Delete(key string) bool {
	return d.ensure().Delete(key)
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string {
	return lo.Map(d.ensure().Keys(), func(k any, _ int) string {
		return k.(string)
	})
}

// Values returns the values in insertion order.
func (d *Dictionary) Values() []any {
	return d.ensure().Values()
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return d.ensure().Len()
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (d *Dictionary) Range(fn func(key string, value any) bool) {
	d.ensure().Range(func(k, v any) bool {
		return fn(k.(string), v)
	})
}

// Update copies all entries from other, overwriting existing keys.
func (d *Dictionary) Update(other *Dictionary) {
	if other == nil || other.Entries == nil {
		return
	}
	other.Entries.Range(func(k, v any) bool {
		d.ensure().Set(k, v)
		return true
	})
}
