// Package audobject serializes object graphs to YAML and reconstructs
// them, recording enough identity and version information that the
// serialized form survives schema drift between writer and reader.
//
// # Objects
//
// A serializable type embeds Base and tags the fields that act as its
// arguments:
//
//	type Tuner struct {
//	    audobject.Base
//	    Name string `arg:"name"`
//	    Rate int    `arg:"rate"`
//	}
//
//	func init() {
//	    audobject.MustRegister[Tuner]("audsp.Tuner")
//	    audobject.RegisterPackage("audsp", "1.2.0")
//	}
//
// # Tag Syntax
//
// Argument behavior is declared via struct tags:
//
//	arg:"name"        - visible argument, serialized under that name
//	arg:"name,hidden" - restored from its default, never serialized
//	arg:",extras"     - *Dict sink collecting unknown arguments
//	arg:"-"           - invisible to serialization
//
// Hidden arguments must have a registered default. Fields without an
// arg tag are ignored, like fields tagged "-".
//
// # Basic Usage
//
//	tuner := &Tuner{Name: "a4", Rate: 16000}
//	s, _ := audobject.ToYAML(ctx, tuner)
//
//	// $audsp.Tuner==1.2.0:
//	//   name: a4
//	//   rate: 16000
//
//	obj, _ := audobject.FromYAML(ctx, s)
//	tuner = obj.(*Tuner)
//
// SaveYAML and LoadYAML do the same through a file and establish the
// file's directory as the root for path translation. ToDict and
// FromDict expose the intermediate mapping form.
//
// # Class Tags
//
// Each serialized object is a single-entry mapping whose key names the
// registered type:
//
//	$package:module.Class==version
//
// The package prefix appears only when it differs from the first
// component of the dotted name, the version suffix only when the
// owning package registered one. Unknown tags fail decoding unless a
// Provisioner supplies the registration on demand.
//
// # Versioning
//
// RegisterPackage associates a package name with the version written
// into tags. On decoding, the recorded and the registered versions are
// compared under Config.PackageMismatch: at WarnStandard a warning is
// raised when the registered version is older than the recorded one,
// at WarnVerbose on any difference. Missing or surplus arguments are
// reported under Config.SignatureMismatch the same way. Warnings never
// abort an operation; observe them with WithWarningHandler or through
// the package signals.
//
// # Resolvers
//
// Values without a natural YAML form are translated by per-argument
// resolvers registered with WithResolver:
//
//	audobject.MustRegister[Job]("audsp.Job",
//	    audobject.WithResolver("cache", audobject.NewFilePathResolver()),
//	)
//
// A resolver converts between the runtime value and a serializable
// form, and declares the serialized type it produces so decoding can
// recognize its output.
//
// # Override Interfaces
//
// Types and resolvers can implement optional interfaces to take part
// in serialization:
//
//   - RootAware: receives the directory of the file being written or
//     read, for relative path handling
//   - Validator: checks invariants after an object is reconstructed
//
// # Identity
//
// ID returns a fingerprint of an object's serialized form, excluding
// versions, so equal configurations hash equally across releases.
// Equal compares two objects by that fingerprint.
package audobject

// Object marks a type as serializable. Embed Base to implement it;
// the interface method is unexported so embedding is the only way.
type Object interface {
	objectState() *objectState
}

// objectState carries per-instance bookkeeping. It travels with the
// object but never serializes.
type objectState struct {
	reconstructed bool
	root          string
}

// Base makes the embedding type an Object. It records how the
// instance came to be, so callers can distinguish freshly built
// objects from reconstructed ones.
type Base struct {
	state objectState
}

func (b *Base) objectState() *objectState {
	return &b.state
}

// Reconstructed reports whether the object was built from serialized
// data rather than constructed directly.
func (b *Base) Reconstructed() bool {
	return b.state.reconstructed
}

// LoadRoot returns the directory of the file the object was loaded
// from, or the empty string when it did not come from a file.
func (b *Base) LoadRoot() string {
	return b.state.root
}

// Version is recorded in the class tags of the package's own
// serializable types.
const Version = "0.1.0"
