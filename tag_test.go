package audobject

import (
	"errors"
	"testing"
)

func TestFormatTag(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		typed   string
		version string
		want    string
	}{
		{
			name:  "package matches first component",
			pkg:   "audsp",
			typed: "audsp.Tuner",
			want:  "$audsp.Tuner",
		},
		{
			name:  "package differs",
			pkg:   "audio-toolbox",
			typed: "audsp.Tuner",
			want:  "$audio-toolbox:audsp.Tuner",
		},
		{
			name:    "with version",
			pkg:     "audsp",
			typed:   "audsp.Tuner",
			version: "1.2.0",
			want:    "$audsp.Tuner==1.2.0",
		},
		{
			name:    "deep module path",
			pkg:     "audsp",
			typed:   "audsp.filters.Tuner",
			version: "0.4.1",
			want:    "$audsp.filters.Tuner==0.4.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatTag(tt.pkg, tt.typed, tt.version)
			if got != tt.want {
				t.Errorf("formatTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want tagInfo
	}{
		{
			name: "plain",
			tag:  "$audsp.Tuner",
			want: tagInfo{Pkg: "audsp", Name: "audsp.Tuner"},
		},
		{
			name: "with version",
			tag:  "$audsp.Tuner==1.2.0",
			want: tagInfo{Pkg: "audsp", Name: "audsp.Tuner", Version: "1.2.0"},
		},
		{
			name: "with package prefix",
			tag:  "$audio-toolbox:audsp.Tuner==2.0.0",
			want: tagInfo{Pkg: "audio-toolbox", Name: "audsp.Tuner", Version: "2.0.0"},
		},
		{
			name: "deep module path",
			tag:  "$audsp.filters.Tuner",
			want: tagInfo{Pkg: "audsp", Name: "audsp.filters.Tuner"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTag(tt.tag)
			if err != nil {
				t.Fatalf("parseTag() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseTag() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTag_RoundTrip(t *testing.T) {
	for _, tag := range []string{
		"$audsp.Tuner",
		"$audsp.Tuner==1.2.0",
		"$audio-toolbox:audsp.Tuner==2.0.0",
	} {
		info, err := parseTag(tag)
		if err != nil {
			t.Fatalf("parseTag(%q) error: %v", tag, err)
		}
		if got := info.String(); got != tag {
			t.Errorf("String() = %q, want %q", got, tag)
		}
	}
}

func TestParseTag_Malformed(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{name: "no marker", tag: "audsp.Tuner"},
		{name: "empty", tag: ""},
		{name: "marker only", tag: "$"},
		{name: "no dot", tag: "$Tuner"},
		{name: "empty version", tag: "$audsp.Tuner=="},
		{name: "empty package", tag: "$:audsp.Tuner"},
		{name: "leading dot", tag: "$.Tuner"},
		{name: "trailing dot", tag: "$audsp."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTag(tt.tag)
			if err == nil {
				t.Fatalf("parseTag(%q) should fail", tt.tag)
			}
			if !errors.Is(err, ErrBadTag) {
				t.Errorf("parseTag(%q) error = %v, want ErrBadTag", tt.tag, err)
			}
		})
	}
}

func TestIsClassTag(t *testing.T) {
	if !isClassTag("$audsp.Tuner") {
		t.Error("isClassTag() should accept a tag key")
	}
	if isClassTag("name") {
		t.Error("isClassTag() should reject a plain key")
	}
	if isClassTag(7) {
		t.Error("isClassTag() should reject non-string keys")
	}
}

func TestPackageDrift(t *testing.T) {
	restore := Config
	defer func() { Config = restore }()

	tests := []struct {
		name      string
		level     WarnLevel
		recorded  string
		available string
		want      bool
	}{
		{name: "standard older available", level: WarnStandard, recorded: "2.0.0", available: "1.0.0", want: true},
		{name: "standard newer available", level: WarnStandard, recorded: "1.0.0", available: "2.0.0", want: false},
		{name: "standard equal", level: WarnStandard, recorded: "1.0.0", available: "1.0.0", want: false},
		{name: "standard tolerant parse", level: WarnStandard, recorded: "2.0", available: "1.0", want: true},
		{name: "standard unparseable", level: WarnStandard, recorded: "rev-null", available: "1.0.0", want: false},
		{name: "verbose newer available", level: WarnVerbose, recorded: "1.0.0", available: "2.0.0", want: true},
		{name: "verbose equal", level: WarnVerbose, recorded: "1.0.0", available: "1.0.0", want: false},
		{name: "verbose unparseable unequal", level: WarnVerbose, recorded: "rev-null", available: "1.0.0", want: true},
		{name: "verbose unparseable equal", level: WarnVerbose, recorded: "rev-null", available: "rev-null", want: false},
		{name: "silent older available", level: WarnSilent, recorded: "2.0.0", available: "1.0.0", want: false},
		{name: "no recorded version", level: WarnVerbose, recorded: "", available: "1.0.0", want: false},
		{name: "no available version", level: WarnVerbose, recorded: "1.0.0", available: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Config.PackageMismatch = tt.level
			got := packageDrift(tt.recorded, tt.available)
			if got != tt.want {
				t.Errorf("packageDrift(%q, %q) = %v, want %v",
					tt.recorded, tt.available, got, tt.want)
			}
		})
	}
}
