package audobject

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// Class tags identify the registered type inside a serialized mapping:
//
//	$package:module.Class==version
//
// The package prefix is written only when it differs from the first
// component of the dotted name, and the version suffix only when a
// version is known and requested.
const (
	tagMarker  = "$"
	packageSep = ":"
	versionSep = "=="
)

// tagInfo is a parsed class tag.
type tagInfo struct {
	Pkg     string // owning package, defaults to the first name component
	Name    string // dotted type name, including the final class component
	Version string // recorded version, empty when unversioned
}

// String renders the tag in its serialized form.
func (t tagInfo) String() string {
	return formatTag(t.Pkg, t.Name, t.Version)
}

func formatTag(pkg, name, version string) string {
	tag := tagMarker
	if pkg != "" && pkg != firstComponent(name) {
		tag += pkg + packageSep
	}
	tag += name
	if version != "" {
		tag += versionSep + version
	}
	return tag
}

func firstComponent(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// isClassTag reports whether a mapping key marks a serialized object.
func isClassTag(key any) bool {
	s, ok := key.(string)
	return ok && strings.HasPrefix(s, tagMarker)
}

// parseTag splits a serialized class tag into its parts. The name must
// contain at least one dot separating module path and class name.
func parseTag(s string) (tagInfo, error) {
	var t tagInfo
	raw := strings.TrimPrefix(s, tagMarker)
	if raw == s {
		return t, newTagError(ErrBadTag, s)
	}
	if i := strings.Index(raw, versionSep); i >= 0 {
		t.Version = raw[i+len(versionSep):]
		raw = raw[:i]
		if t.Version == "" {
			return tagInfo{}, newTagError(ErrBadTag, s)
		}
	}
	if i := strings.Index(raw, packageSep); i >= 0 {
		t.Pkg = raw[:i]
		raw = raw[i+len(packageSep):]
		if t.Pkg == "" {
			return tagInfo{}, newTagError(ErrBadTag, s)
		}
	}
	if raw == "" || !strings.Contains(raw, ".") ||
		strings.HasPrefix(raw, ".") || strings.HasSuffix(raw, ".") {
		return tagInfo{}, newTagError(ErrBadTag, s)
	}
	t.Name = raw
	if t.Pkg == "" {
		t.Pkg = firstComponent(raw)
	}
	return t, nil
}

// packageDrift reports whether the recorded and the registered package
// versions diverge enough to warn about under the active policy.
// Ordering is defined by tolerant semantic versioning; versions that
// do not parse cannot be ordered and only count as drift at
// WarnVerbose when unequal.
func packageDrift(recorded, available string) bool {
	if recorded == "" || available == "" {
		return false
	}
	rv, errRecorded := semver.ParseTolerant(recorded)
	av, errAvailable := semver.ParseTolerant(available)
	switch Config.PackageMismatch {
	case WarnVerbose:
		if errRecorded == nil && errAvailable == nil {
			return !av.Equals(rv)
		}
		return recorded != available
	case WarnStandard:
		if errRecorded != nil || errAvailable != nil {
			return false
		}
		return av.LT(rv)
	default:
		return false
	}
}

// driftMessage renders the package mismatch diagnostic.
func driftMessage(tag, recorded, available string) string {
	return fmt.Sprintf(
		"instantiating %s from version %q when using version %q",
		tag, recorded, available)
}
