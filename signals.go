package audobject

import (
	"context"
	"strings"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals emitted by serialization operations. Subscribe via capitan to
// observe registrations, conversions, file traffic and drift warnings
// without changing any call site.
var (
	// SignalRegistered fires when a type descriptor is stored.
	SignalRegistered = capitan.NewSignal("audobject.registered",
		"Type descriptor registered")

	// SignalEncoded fires after an object graph is converted to its
	// serialized mapping, successfully or not.
	SignalEncoded = capitan.NewSignal("audobject.encoded",
		"Object graph converted to serialized form")

	// SignalDecoded fires after a serialized mapping is converted
	// back to an object graph, successfully or not.
	SignalDecoded = capitan.NewSignal("audobject.decoded",
		"Serialized form converted to object graph")

	// SignalFileSaved fires after an object is written to a file.
	SignalFileSaved = capitan.NewSignal("audobject.file.saved",
		"Object written to file")

	// SignalFileLoaded fires after an object is read from a file.
	SignalFileLoaded = capitan.NewSignal("audobject.file.loaded",
		"Object read from file")

	// SignalSignatureDrift fires when a serialized mapping does not
	// line up with the registered argument list.
	SignalSignatureDrift = capitan.NewSignal("audobject.drift.signature",
		"Serialized arguments diverge from registered parameters")

	// SignalPackageDrift fires when recorded and registered package
	// versions diverge.
	SignalPackageDrift = capitan.NewSignal("audobject.drift.package",
		"Recorded and registered package versions diverge")

	// SignalVersionMissing fires when a package has no registered
	// version at encoding time.
	SignalVersionMissing = capitan.NewSignal("audobject.drift.version",
		"Package has no registered version")

	// SignalValueFallback fires when a value is serialized as its
	// debug representation.
	SignalValueFallback = capitan.NewSignal("audobject.drift.value",
		"Value serialized as debug representation")
)

// Keys for structured signal fields.
var (
	KeyTypeName  = capitan.NewStringKey("type_name")
	KeyTag       = capitan.NewStringKey("tag")
	KeyNames     = capitan.NewStringKey("names")
	KeyMessage   = capitan.NewStringKey("message")
	KeyRecorded  = capitan.NewStringKey("recorded")
	KeyAvailable = capitan.NewStringKey("available")
	KeyPath      = capitan.NewStringKey("path")
	KeySize      = capitan.NewIntKey("size_bytes")
	KeyDuration  = capitan.NewDurationKey("duration_ms")
	KeyError     = capitan.NewErrorKey("error")
)

func emitRegistered(ctx context.Context, tag, typeName string) {
	capitan.Emit(ctx, SignalRegistered,
		KeyTag.Field(tag),
		KeyTypeName.Field(typeName),
	)
}

func emitEncoded(ctx context.Context, typeName string, duration time.Duration, err error) {
	if err != nil {
		capitan.Error(ctx, SignalEncoded,
			KeyTypeName.Field(typeName),
			KeyDuration.Field(duration),
			KeyError.Field(err),
		)
		return
	}
	capitan.Emit(ctx, SignalEncoded,
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
	)
}

func emitDecoded(ctx context.Context, tag string, duration time.Duration, err error) {
	if err != nil {
		capitan.Error(ctx, SignalDecoded,
			KeyTag.Field(tag),
			KeyDuration.Field(duration),
			KeyError.Field(err),
		)
		return
	}
	capitan.Emit(ctx, SignalDecoded,
		KeyTag.Field(tag),
		KeyDuration.Field(duration),
	)
}

func emitFileSaved(ctx context.Context, path string, size int, duration time.Duration, err error) {
	if err != nil {
		capitan.Error(ctx, SignalFileSaved,
			KeyPath.Field(path),
			KeyDuration.Field(duration),
			KeyError.Field(err),
		)
		return
	}
	capitan.Emit(ctx, SignalFileSaved,
		KeyPath.Field(path),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	)
}

func emitFileLoaded(ctx context.Context, path string, size int, duration time.Duration, err error) {
	if err != nil {
		capitan.Error(ctx, SignalFileLoaded,
			KeyPath.Field(path),
			KeyDuration.Field(duration),
			KeyError.Field(err),
		)
		return
	}
	capitan.Emit(ctx, SignalFileLoaded,
		KeyPath.Field(path),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	)
}

func emitWarning(ctx context.Context, w Warning) {
	fields := []capitan.Field{
		KeyMessage.Field(w.Message),
	}
	if w.Tag != "" {
		fields = append(fields, KeyTag.Field(w.Tag))
	}
	if len(w.Names) > 0 {
		fields = append(fields, KeyNames.Field(strings.Join(w.Names, ",")))
	}
	switch w.Kind {
	case WarningMissingDefaults, WarningIgnoredArguments:
		capitan.Emit(ctx, SignalSignatureDrift, fields...)
	case WarningPackageMismatch:
		capitan.Emit(ctx, SignalPackageDrift, fields...)
	case WarningMissingVersion:
		capitan.Emit(ctx, SignalVersionMissing, fields...)
	case WarningValueFallback:
		capitan.Emit(ctx, SignalValueFallback, fields...)
	}
}
