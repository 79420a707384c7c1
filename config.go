package audobject

// WarnLevel controls how eagerly the package reports recoverable
// schema and version drift. Levels are ordered: each level includes
// everything reported by the levels below it.
type WarnLevel int

const (
	// WarnSilent suppresses all drift diagnostics.
	WarnSilent WarnLevel = iota

	// WarnStandard reports drift that loses information, such as
	// serialized arguments with no matching parameter.
	WarnStandard

	// WarnVerbose additionally reports benign drift, such as
	// parameters filled from their defaults.
	WarnVerbose
)

var warnLevelNames = map[WarnLevel]string{
	WarnSilent:   "silent",
	WarnStandard: "standard",
	WarnVerbose:  "verbose",
}

func (l WarnLevel) String() string {
	if name, ok := warnLevelNames[l]; ok {
		return name
	}
	return "unknown"
}

// IsValidWarnLevel reports whether l is a defined warning level.
func IsValidWarnLevel(l WarnLevel) bool {
	_, ok := warnLevelNames[l]
	return ok
}

// Settings holds process-wide serialization policy.
type Settings struct {
	// SignatureMismatch gates diagnostics about serialized mappings
	// that do not line up with the registered argument list. At
	// WarnStandard ignored arguments are reported; WarnVerbose also
	// reports arguments filled from defaults.
	SignatureMismatch WarnLevel

	// PackageMismatch gates diagnostics about version drift between
	// the recorded and the registered package version. At
	// WarnStandard a warning is raised when the registered version
	// is older than the recorded one; WarnVerbose warns on any
	// difference.
	PackageMismatch WarnLevel
}

// Config is the active policy. Mutating it affects the whole process;
// tests should restore the previous value when done.
var Config = Settings{
	SignatureMismatch: WarnStandard,
	PackageMismatch:   WarnStandard,
}

// WarningKind identifies the category of a drift diagnostic.
type WarningKind string

const (
	// WarningMissingDefaults reports optional arguments absent from a
	// serialized mapping and filled from their registered defaults.
	WarningMissingDefaults WarningKind = "missing-defaults"

	// WarningIgnoredArguments reports serialized values dropped
	// because no parameter or extras sink accepts them.
	WarningIgnoredArguments WarningKind = "ignored-arguments"

	// WarningPackageMismatch reports version drift between the tag's
	// recorded version and the registered package version.
	WarningPackageMismatch WarningKind = "package-mismatch"

	// WarningMissingVersion reports a package with no registered
	// version at encoding time.
	WarningMissingVersion WarningKind = "missing-version"

	// WarningValueFallback reports a value with no encoding that was
	// serialized as its debug representation.
	WarningValueFallback WarningKind = "value-fallback"
)

var validWarningKinds = map[WarningKind]bool{
	WarningMissingDefaults:  true,
	WarningIgnoredArguments: true,
	WarningPackageMismatch:  true,
	WarningMissingVersion:   true,
	WarningValueFallback:    true,
}

// IsValidWarningKind reports whether k is a defined warning kind.
func IsValidWarningKind(k WarningKind) bool {
	return validWarningKinds[k]
}

// Warning is a single drift diagnostic. Warnings never abort an
// operation; install a handler with WithWarningHandler to observe
// them, or subscribe to the package signals.
type Warning struct {
	Kind    WarningKind
	Message string

	// Tag is the class tag being processed when the warning was
	// raised, if any.
	Tag string

	// Names lists the affected argument names, if any.
	Names []string
}

func (w Warning) String() string {
	return w.Message
}
