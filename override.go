package audobject

// Override interfaces allow types to participate in serialization
// beyond what argument tags can express. The descriptor records which
// interfaces a type implements at registration time, so the checks
// cost nothing per operation.

// RootAware receives the directory an object is serialized to or
// loaded from. Implement it on objects that hold relative paths, or
// on resolvers that translate them. The root is the empty string when
// the operation has no file context.
type RootAware interface {
	// SetRoot is called before the object's arguments are assigned
	// (decoding) or read (encoding) whenever a file operation
	// established a reference directory.
	SetRoot(root string)
}

// Validator runs after an object has been reconstructed and all of
// its arguments are assigned. Returning an error aborts the decode.
type Validator interface {
	// Validate checks invariants that span multiple arguments.
	Validate() error
}
