package audobject

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions. Wrap or compare with
// errors.Is to detect specific conditions.
var (
	// ErrNotRegistered indicates an object's Go type has no registered
	// descriptor. Register the type before serializing it.
	ErrNotRegistered = errors.New("type not registered")

	// ErrUnknownTag indicates a class tag names a type that is not
	// registered and could not be provisioned.
	ErrUnknownTag = errors.New("unknown class tag")

	// ErrBadTag indicates a class tag string is malformed.
	ErrBadTag = errors.New("malformed class tag")

	// ErrBadDescriptor indicates a type registration is structurally
	// invalid (bad tags, name collisions, hidden without default,
	// unresolvable borrow sources).
	ErrBadDescriptor = errors.New("invalid descriptor")

	// ErrCannotBorrow indicates borrowed arguments could not be read
	// from or written to their source at runtime.
	ErrCannotBorrow = errors.New("cannot borrow arguments")

	// ErrMissingArguments indicates a serialized mapping lacks values
	// for mandatory arguments.
	ErrMissingArguments = errors.New("missing mandatory arguments")

	// ErrUnsupportedType indicates a value can never be serialized,
	// such as a function or channel.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCycle indicates the object graph references itself.
	ErrCycle = errors.New("object graph contains a cycle")

	// ErrEncode indicates a value could not be converted into its
	// serialized form.
	ErrEncode = errors.New("encode failed")

	// ErrDecode indicates a serialized value could not be converted
	// back into its runtime form.
	ErrDecode = errors.New("decode failed")
)

// StructuralError reports every structural problem found while building
// a type's descriptor. It unwraps to ErrBadDescriptor.
type StructuralError struct {
	TypeName string   // Go type being registered
	Problems []string // one line per problem
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid descriptor for %s: %s",
		e.TypeName, strings.Join(e.Problems, "; "))
}

func (e *StructuralError) Unwrap() error {
	return ErrBadDescriptor
}

func newStructuralError(typeName string, problems []string) *StructuralError {
	return &StructuralError{
		TypeName: typeName,
		Problems: problems,
	}
}

// BorrowError reports every borrowed argument that could not be
// resolved against its source. It unwraps to ErrCannotBorrow.
type BorrowError struct {
	TypeName string   // Go type whose arguments were requested
	Names    []string // borrowed argument names that failed
	Reason   string
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("cannot borrow arguments %v for %s: %s",
		e.Names, e.TypeName, e.Reason)
}

func (e *BorrowError) Unwrap() error {
	return ErrCannotBorrow
}

func newBorrowError(typeName string, names []string, reason string) *BorrowError {
	return &BorrowError{
		TypeName: typeName,
		Names:    names,
		Reason:   reason,
	}
}

// ConstructError reports mandatory arguments missing from a serialized
// mapping, with version provenance for context. It unwraps to
// ErrMissingArguments.
type ConstructError struct {
	Tag       string   // class tag being constructed
	Missing   []string // mandatory argument names absent from the mapping
	Recorded  string   // version recorded in the tag, may be empty
	Available string   // version registered for the package, may be empty
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf(
		"missing mandatory arguments %v while instantiating %s from version %q when using version %q",
		e.Missing, e.Tag, e.Recorded, e.Available)
}

func (e *ConstructError) Unwrap() error {
	return ErrMissingArguments
}

func newConstructError(tag string, missing []string, recorded, available string) *ConstructError {
	return &ConstructError{
		Tag:       tag,
		Missing:   missing,
		Recorded:  recorded,
		Available: available,
	}
}

// TagError reports a class tag that is malformed or names an unknown
// type. It unwraps to the sentinel in Err.
type TagError struct {
	Err error  // ErrBadTag or ErrUnknownTag
	Tag string // offending tag
}

func (e *TagError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Tag)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

func newTagError(err error, tag string) *TagError {
	return &TagError{
		Err: err,
		Tag: tag,
	}
}

// ValueError reports a single value that failed to encode or decode,
// naming the argument it belonged to. It unwraps to the sentinel in
// Err, and Cause carries the underlying failure when one exists.
type ValueError struct {
	Err      error  // ErrEncode, ErrDecode or ErrUnsupportedType
	Argument string // argument path, may be empty for the root value
	TypeName string // Go type of the offending value
	Cause    error
}

func (e *ValueError) Error() string {
	msg := fmt.Sprintf("%s for argument %q of type %s", e.Err, e.Argument, e.TypeName)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

func newValueError(err error, argument, typeName string, cause error) *ValueError {
	return &ValueError{
		Err:      err,
		Argument: argument,
		TypeName: typeName,
		Cause:    cause,
	}
}
