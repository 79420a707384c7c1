package audobject

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuralError(t *testing.T) {
	err := newStructuralError("audsp.Tuner", []string{
		"argument name duplicated",
		"hidden argument has no default",
	})

	if !errors.Is(err, ErrBadDescriptor) {
		t.Error("StructuralError should unwrap to ErrBadDescriptor")
	}
	want := "invalid descriptor for audsp.Tuner: argument name duplicated; hidden argument has no default"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestBorrowError(t *testing.T) {
	err := newBorrowError("audsp.Job", []string{"threads", "device"}, "source field Config is nil")

	if !errors.Is(err, ErrCannotBorrow) {
		t.Error("BorrowError should unwrap to ErrCannotBorrow")
	}
	want := "cannot borrow arguments [threads device] for audsp.Job: source field Config is nil"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConstructError(t *testing.T) {
	err := newConstructError("$audsp.Tuner==2.0.0", []string{"rate"}, "2.0.0", "1.2.0")

	if !errors.Is(err, ErrMissingArguments) {
		t.Error("ConstructError should unwrap to ErrMissingArguments")
	}
	want := `missing mandatory arguments [rate] while instantiating $audsp.Tuner==2.0.0 from version "2.0.0" when using version "1.2.0"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTagError(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
		tag      string
		want     string
	}{
		{
			name:     "malformed",
			sentinel: ErrBadTag,
			tag:      "audsp.Tuner",
			want:     `malformed class tag: "audsp.Tuner"`,
		},
		{
			name:     "unknown",
			sentinel: ErrUnknownTag,
			tag:      "$audsp.Ghost",
			want:     `unknown class tag: "$audsp.Ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTagError(tt.sentinel, tt.tag)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("TagError should unwrap to %v", tt.sentinel)
			}
			if got := err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueError(t *testing.T) {
	err := newValueError(ErrEncode, "fn", "func()", nil)

	if !errors.Is(err, ErrEncode) {
		t.Error("ValueError should unwrap to its sentinel")
	}
	want := `encode failed for argument "fn" of type func()`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValueError_WithCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := newValueError(ErrDecode, "rate", "int", cause)

	want := `decode failed for argument "rate" of type int: boom`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotRegistered,
		ErrUnknownTag,
		ErrBadTag,
		ErrBadDescriptor,
		ErrCannotBorrow,
		ErrMissingArguments,
		ErrUnsupportedType,
		ErrCycle,
		ErrEncode,
		ErrDecode,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v should not match %v", a, b)
			}
		}
	}
}
