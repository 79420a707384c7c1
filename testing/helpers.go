// Package testing provides shared fixtures for audobject tests.
package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/audeering/audobject"
)

// Fixture types register under this package name and version.
const (
	Package = "audtest"
	Version = "1.0.0"
)

// Tuner is a fixture with plain scalar arguments.
type Tuner struct {
	audobject.Base
	Name string `arg:"name"`
	Rate int    `arg:"rate"`
}

// Chain nests arbitrary objects inside a sequence argument.
type Chain struct {
	audobject.Base
	Name  string             `arg:"name"`
	Steps []audobject.Object `arg:"steps"`
}

// Window carries a fixed-size shape, a hidden scale restored from its
// default, and an extras sink picking up unknown arguments.
type Window struct {
	audobject.Base
	Shape [2]int          `arg:"shape"`
	Scale float64         `arg:"scale,hidden"`
	Extra *audobject.Dict `arg:",extras"`
}

// JobConfig is a plain settings struct serving as a borrow source.
type JobConfig struct {
	Threads int
	Device  string
}

// Job borrows the threads and device arguments from its Config field
// and resolves its cache path relative to the serialized file.
type Job struct {
	audobject.Base
	Cache  string `arg:"cache"`
	Config *JobConfig
}

var fixturesOnce sync.Once

// RegisterFixtures installs all fixture types. Idempotent; tests that
// call audobject.Reset should call it again afterwards.
func RegisterFixtures() {
	audobject.MustRegister[Tuner]("audtest.Tuner")
	audobject.MustRegister[Chain]("audtest.Chain")
	audobject.MustRegister[Window]("audtest.Window",
		audobject.WithDefault("scale", 1.0),
	)
	audobject.MustRegister[Job]("audtest.Job",
		audobject.WithResolver("cache", audobject.NewFilePathResolver()),
		audobject.WithBorrowed("threads", "Config"),
		audobject.WithBorrowed("device", "Config"),
	)
	audobject.RegisterPackage(Package, Version)
}

func init() {
	fixturesOnce.Do(RegisterFixtures)
}

// StubProvisioner records provision requests and optionally delegates
// to a callback, so tests can register types on demand.
type StubProvisioner struct {
	Calls []string
	Fn    func(ctx context.Context, pkg, version string) error
}

// Provision implements audobject.Provisioner.
func (s *StubProvisioner) Provision(ctx context.Context, pkg, version string) error {
	s.Calls = append(s.Calls, fmt.Sprintf("%s==%s", pkg, version))
	if s.Fn == nil {
		return nil
	}
	return s.Fn(ctx, pkg, version)
}

// CollectWarnings returns a handler that appends every warning to
// dst, for asserting on drift diagnostics.
func CollectWarnings(dst *[]audobject.Warning) func(audobject.Warning) {
	return func(w audobject.Warning) {
		*dst = append(*dst, w)
	}
}
