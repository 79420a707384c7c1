package audobject

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

// Resolver translates a single argument between its runtime value and
// a serializable form. Register one per argument with WithResolver.
//
// EncodedType declares the type Encode produces. During decoding the
// resolver runs instead of the generic decoder whenever the raw value
// has exactly that type, so the serialized form must be recognizable
// by type alone.
//
// Encode must return a serializable value: nil, bool, int, float64,
// string, time.Time, []any or *Dict. Nested objects are not accepted
// in resolver output.
//
// A resolver that implements RootAware receives the file directory
// before each use. Resolvers are shared across calls, so root state
// makes concurrent file operations on the same type unsafe.
type Resolver interface {
	Encode(value any) (any, error)
	Decode(value any) (any, error)
	EncodedType() reflect.Type
}

// FilePathResolver stores path arguments relative to the serialized
// file, so a saved configuration can move together with the files it
// references. Without a file context paths pass through unchanged.
type FilePathResolver struct {
	root string
}

// NewFilePathResolver returns a resolver for path-valued arguments.
func NewFilePathResolver() *FilePathResolver {
	return &FilePathResolver{}
}

// SetRoot implements RootAware.
func (r *FilePathResolver) SetRoot(root string) {
	r.root = root
}

// Encode rewrites the path relative to the root directory.
func (r *FilePathResolver) Encode(value any) (any, error) {
	path, ok := value.(string)
	if !ok {
		return nil, newValueError(ErrEncode, "", fmt.Sprintf("%T", value),
			fmt.Errorf("file path must be a string"))
	}
	if r.root == "" {
		return path, nil
	}
	rel, err := filepath.Rel(r.root, absPath(path, r.root))
	if err != nil {
		return path, nil
	}
	return filepath.ToSlash(rel), nil
}

// Decode joins the stored path with the root directory.
func (r *FilePathResolver) Decode(value any) (any, error) {
	path, ok := value.(string)
	if !ok {
		return nil, newValueError(ErrDecode, "", fmt.Sprintf("%T", value),
			fmt.Errorf("file path must be a string"))
	}
	path = filepath.FromSlash(path)
	if r.root == "" || filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Clean(filepath.Join(r.root, path)), nil
}

// EncodedType reports that file paths serialize as strings.
func (r *FilePathResolver) EncodedType() reflect.Type {
	return reflect.TypeFor[string]()
}

func absPath(path, root string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// TypeResolver serializes reflect.Type arguments by name. It covers
// the scalar types a configuration realistically selects between,
// plus slices of them.
type TypeResolver struct{}

// NewTypeResolver returns a resolver for reflect.Type arguments.
func NewTypeResolver() *TypeResolver {
	return &TypeResolver{}
}

var namedTypes = map[string]reflect.Type{
	"bool":          reflect.TypeFor[bool](),
	"string":        reflect.TypeFor[string](),
	"int":           reflect.TypeFor[int](),
	"int8":          reflect.TypeFor[int8](),
	"int16":         reflect.TypeFor[int16](),
	"int32":         reflect.TypeFor[int32](),
	"int64":         reflect.TypeFor[int64](),
	"uint":          reflect.TypeFor[uint](),
	"uint8":         reflect.TypeFor[uint8](),
	"uint16":        reflect.TypeFor[uint16](),
	"uint32":        reflect.TypeFor[uint32](),
	"uint64":        reflect.TypeFor[uint64](),
	"float32":       reflect.TypeFor[float32](),
	"float64":       reflect.TypeFor[float64](),
	"time.Time":     reflect.TypeFor[time.Time](),
	"time.Duration": reflect.TypeFor[time.Duration](),
}

// Encode renders the type as its Go name.
func (r *TypeResolver) Encode(value any) (any, error) {
	rt, ok := value.(reflect.Type)
	if !ok {
		return nil, newValueError(ErrEncode, "", fmt.Sprintf("%T", value),
			fmt.Errorf("expected a reflect.Type"))
	}
	return rt.String(), nil
}

// Decode parses a Go type name back into a reflect.Type.
func (r *TypeResolver) Decode(value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, newValueError(ErrDecode, "", fmt.Sprintf("%T", value),
			fmt.Errorf("type name must be a string"))
	}
	rt, err := parseTypeName(name)
	if err != nil {
		return nil, newValueError(ErrDecode, "", "reflect.Type", err)
	}
	return rt, nil
}

// EncodedType reports that types serialize as strings.
func (r *TypeResolver) EncodedType() reflect.Type {
	return reflect.TypeFor[string]()
}

func parseTypeName(name string) (reflect.Type, error) {
	if elem, ok := strings.CutPrefix(name, "[]"); ok {
		et, err := parseTypeName(elem)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(et), nil
	}
	if rt, ok := namedTypes[name]; ok {
		return rt, nil
	}
	return nil, fmt.Errorf("unknown type name %q", name)
}
