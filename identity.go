package audobject

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
)

// ID returns a stable fingerprint of obj's serialized form. Version
// suffixes are excluded, so equal configurations produce equal IDs
// across releases. Formatted in 8-4-4-4-12 groups for readability.
//
// SHA-256 here is a fingerprint, NOT a password hash: the input is a
// configuration document, and determinism is the point.
func ID(ctx context.Context, obj Object) (string, error) {
	s, err := ToYAML(ctx, obj, WithoutVersion())
	if err != nil {
		return "", err
	}
	return fingerprint(s), nil
}

func fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

// Equal reports whether two objects serialize identically, ignoring
// versions. Objects of different dynamic types are never equal, even
// when their serialized arguments agree.
func Equal(ctx context.Context, a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	ida, err := ID(ctx, a)
	if err != nil {
		return false
	}
	idb, err := ID(ctx, b)
	if err != nil {
		return false
	}
	return ida == idb
}
