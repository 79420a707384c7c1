package audobject

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Shared codec fixtures. Each test registers what it needs, so tests
// stay independent of execution order and of Reset calls elsewhere.

type testTuner struct {
	Base
	Name string `arg:"name"`
	Rate int    `arg:"rate"`
}

type testChain struct {
	Base
	Name  string   `arg:"name"`
	Steps []Object `arg:"steps"`
}

type testWindow struct {
	Base
	Shape [2]int  `arg:"shape"`
	Scale float64 `arg:"scale,hidden"`
	Extra *Dict   `arg:",extras"`
}

type testScalars struct {
	Base
	I8   int8    `arg:"i8"`
	U16  uint16  `arg:"u16"`
	F32  float32 `arg:"f32"`
	Flag bool    `arg:"flag"`
}

type testMixer struct {
	Base
	Gains map[string]float64 `arg:"gains"`
	Taps  map[int]string     `arg:"taps"`
}

type testNest struct {
	Base
	Inner testTuner `arg:"inner"`
}

type testLoop struct {
	Base
	Next Object `arg:"next"`
}

type testOddball struct {
	Base
	Z complex128 `arg:"z"`
}

type testCallable struct {
	Base
	Fn func() `arg:"fn"`
}

type testJobCfg struct {
	Threads int
	Device  string
}

type testJob struct {
	Base
	Cache  string `arg:"cache"`
	Config *testJobCfg
}

type testPreset struct {
	Base
	Mode string `arg:"mode"`
}

func registerCodecFixtures(t *testing.T) {
	t.Helper()
	MustRegister[testTuner]("audsp.Tuner")
	MustRegister[testChain]("audsp.Chain")
	MustRegister[testWindow]("audsp.Window", WithDefault("scale", 1.0))
	MustRegister[testScalars]("audsp.Scalars")
	MustRegister[testMixer]("audsp.Mixer")
	MustRegister[testNest]("audsp.Nest")
	MustRegister[testLoop]("audsp.Loop")
	MustRegister[testOddball]("audsp.Oddball")
	MustRegister[testCallable]("audsp.Callable")
	MustRegister[testJob]("audsp.Job",
		WithResolver("cache", NewFilePathResolver()),
		WithBorrowed("threads", "Config"),
		WithBorrowed("device", "Config"),
	)
	MustRegister[testPreset]("audsp.Preset", WithDefault("mode", "auto"))
	RegisterPackage("audsp", "1.2.0")
}

func body(t *testing.T, d *Dict, tag string) *Dict {
	t.Helper()
	v, ok := d.Get(tag)
	if !ok {
		t.Fatalf("serialized mapping has keys %v, want %q", d.Keys(), tag)
	}
	inner, ok := v.(*Dict)
	if !ok {
		t.Fatalf("body under %q is %T, want *Dict", tag, v)
	}
	return inner
}

func TestToDict(t *testing.T) {
	registerCodecFixtures(t)
	tuner := &testTuner{Name: "a4", Rate: 16000}

	d, err := ToDict(context.Background(), tuner)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("mapping has %d entries, want 1", d.Len())
	}

	args := body(t, d, "$audsp.Tuner==1.2.0")
	if v, _ := args.Get("name"); v != "a4" {
		t.Errorf("name = %v, want a4", v)
	}
	if v, _ := args.Get("rate"); v != 16000 {
		t.Errorf("rate = %v, want 16000", v)
	}
}

func TestToDict_WithoutVersion(t *testing.T) {
	registerCodecFixtures(t)
	tuner := &testTuner{Name: "a4", Rate: 16000}

	d, err := ToDict(context.Background(), tuner, WithoutVersion())
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}
	body(t, d, "$audsp.Tuner")
}

func TestToDict_MissingPackageVersion(t *testing.T) {
	type orphan struct {
		Base
		Name string `arg:"name"`
	}
	MustRegister[orphan]("loneville.Orphan")

	var warnings []Warning
	d, err := ToDict(context.Background(), &orphan{Name: "x"},
		WithWarningHandler(func(w Warning) { warnings = append(warnings, w) }))
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	body(t, d, "$loneville.Orphan")
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
	if warnings[0].Kind != WarningMissingVersion {
		t.Errorf("warning kind = %s, want %s", warnings[0].Kind, WarningMissingVersion)
	}
}

func TestToDict_Nested(t *testing.T) {
	registerCodecFixtures(t)
	chain := &testChain{
		Name: "pipeline",
		Steps: []Object{
			&testTuner{Name: "a4", Rate: 16000},
			&testTuner{Name: "c5", Rate: 8000},
		},
	}

	d, err := ToDict(context.Background(), chain)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Chain==1.2.0")
	steps, ok := args.Get("steps")
	if !ok {
		t.Fatal("steps argument missing")
	}
	seq, ok := steps.([]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("steps = %T of length %d, want []any of 2", steps, len(seq))
	}
	first, ok := seq[0].(*Dict)
	if !ok {
		t.Fatalf("steps[0] = %T, want *Dict", seq[0])
	}
	inner := body(t, first, "$audsp.Tuner==1.2.0")
	if v, _ := inner.Get("rate"); v != 16000 {
		t.Errorf("nested rate = %v, want 16000", v)
	}
}

func TestToDict_HiddenAndExtras(t *testing.T) {
	registerCodecFixtures(t)
	w := &testWindow{
		Shape: [2]int{128, 64},
		Scale: 2.5,
		Extra: DictOf("alpha", 0.5, "mode", "hann"),
	}

	d, err := ToDict(context.Background(), w)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Window==1.2.0")
	if args.Has("scale") {
		t.Error("hidden argument should not serialize")
	}
	want := []any{"shape", "alpha", "mode"}
	got := args.Keys()
	if len(got) != len(want) {
		t.Fatalf("argument keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argument keys = %v, want %v", got, want)
			break
		}
	}
}

func TestToDict_ScalarWidening(t *testing.T) {
	registerCodecFixtures(t)
	s := &testScalars{I8: -3, U16: 9000, F32: 0.5, Flag: true}

	d, err := ToDict(context.Background(), s)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Scalars==1.2.0")
	if v, _ := args.Get("i8"); v != -3 {
		t.Errorf("i8 = %v (%T), want int -3", v, v)
	}
	if v, _ := args.Get("u16"); v != 9000 {
		t.Errorf("u16 = %v (%T), want int 9000", v, v)
	}
	if v, _ := args.Get("f32"); v != 0.5 {
		t.Errorf("f32 = %v (%T), want float64 0.5", v, v)
	}
	if v, _ := args.Get("flag"); v != true {
		t.Errorf("flag = %v, want true", v)
	}
}

func TestToDict_SortedMaps(t *testing.T) {
	registerCodecFixtures(t)
	m := &testMixer{
		Gains: map[string]float64{"tweeter": 0.25, "bass": 1.5},
		Taps:  map[int]string{10: "out", 2: "mid"},
	}

	d, err := ToDict(context.Background(), m)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Mixer==1.2.0")
	gains := getDict(t, args, "gains")
	if k, _ := gains.At(0); k != "bass" {
		t.Errorf("first gain key = %v, want bass", k)
	}
	taps := getDict(t, args, "taps")
	if k, _ := taps.At(0); k != 2 {
		t.Errorf("first tap key = %v, want 2", k)
	}
}

func TestToDict_NilContainers(t *testing.T) {
	registerCodecFixtures(t)
	chain := &testChain{Name: "empty"}

	d, err := ToDict(context.Background(), chain)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Chain==1.2.0")
	steps, _ := args.Get("steps")
	seq, ok := steps.([]any)
	if !ok || len(seq) != 0 {
		t.Errorf("nil slice should encode as empty sequence, got %T %v", steps, steps)
	}
}

func TestToDict_ValueStruct(t *testing.T) {
	registerCodecFixtures(t)
	n := &testNest{Inner: testTuner{Name: "a4", Rate: 441}}

	d, err := ToDict(context.Background(), n)
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Nest==1.2.0")
	inner, ok := args.Get("inner")
	if !ok {
		t.Fatal("inner argument missing")
	}
	nested, ok := inner.(*Dict)
	if !ok {
		t.Fatalf("inner = %T, want *Dict", inner)
	}
	body(t, nested, "$audsp.Tuner==1.2.0")
}

func TestToDict_Cycle(t *testing.T) {
	registerCodecFixtures(t)
	loop := &testLoop{}
	loop.Next = loop

	_, err := ToDict(context.Background(), loop)
	if err == nil {
		t.Fatal("ToDict() should fail on a cyclic graph")
	}
	if !errors.Is(err, ErrCycle) {
		t.Errorf("error = %v, want ErrCycle", err)
	}
}

func TestToDict_SharedObjectIsNotACycle(t *testing.T) {
	registerCodecFixtures(t)
	shared := &testTuner{Name: "a4", Rate: 16000}
	chain := &testChain{Name: "dup", Steps: []Object{shared, shared}}

	if _, err := ToDict(context.Background(), chain); err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}
}

func TestToDict_FallbackValue(t *testing.T) {
	registerCodecFixtures(t)
	odd := &testOddball{Z: complex(1, 2)}

	var warnings []Warning
	d, err := ToDict(context.Background(), odd,
		WithWarningHandler(func(w Warning) { warnings = append(warnings, w) }))
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	args := body(t, d, "$audsp.Oddball==1.2.0")
	v, _ := args.Get("z")
	if _, ok := v.(string); !ok {
		t.Errorf("fallback value = %T, want string", v)
	}
	if len(warnings) != 1 || warnings[0].Kind != WarningValueFallback {
		t.Fatalf("warnings = %v, want one value fallback", warnings)
	}
	if len(warnings[0].Names) != 1 || warnings[0].Names[0] != "z" {
		t.Errorf("warning names = %v, want [z]", warnings[0].Names)
	}
}

func TestToDict_Callable(t *testing.T) {
	registerCodecFixtures(t)
	c := &testCallable{Fn: func() {}}

	_, err := ToDict(context.Background(), c)
	if err == nil {
		t.Fatal("ToDict() should fail on callable arguments")
	}
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestToDict_Unregistered(t *testing.T) {
	type stranger struct {
		Base
		Name string `arg:"name"`
	}
	_, err := ToDict(context.Background(), &stranger{Name: "x"})
	if err == nil {
		t.Fatal("ToDict() should fail for unregistered types")
	}
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("error = %v, want ErrNotRegistered", err)
	}
}

func TestToDict_Flatten(t *testing.T) {
	registerCodecFixtures(t)
	chain := &testChain{
		Name: "pipeline",
		Steps: []Object{
			&testTuner{Name: "a4", Rate: 16000},
			&testTuner{Name: "c5", Rate: 8000},
		},
	}

	d, err := ToDict(context.Background(), chain, WithFlatten())
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	checks := map[string]any{
		"name":         "pipeline",
		"steps.0.name": "a4",
		"steps.0.rate": 16000,
		"steps.1.name": "c5",
		"steps.1.rate": 8000,
	}
	for key, want := range checks {
		got, ok := d.Get(key)
		if !ok {
			t.Errorf("flattened key %q missing, have %v", key, d.Keys())
			continue
		}
		if got != want {
			t.Errorf("flattened %q = %v, want %v", key, got, want)
		}
	}
	for _, k := range d.Keys() {
		if strings.HasPrefix(k.(string), "$") {
			t.Errorf("flattened mapping should not contain tag keys, got %v", k)
		}
	}
}

func TestToDict_FlattenFlatObject(t *testing.T) {
	registerCodecFixtures(t)
	tuner := &testTuner{Name: "a4", Rate: 16000}

	d, err := ToDict(context.Background(), tuner, WithFlatten())
	if err != nil {
		t.Fatalf("ToDict() error: %v", err)
	}

	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "name" || keys[1] != "rate" {
		t.Fatalf("flattened keys = %v, want [name rate]", keys)
	}
	if v, _ := d.Get("name"); v != "a4" {
		t.Errorf("name = %v, want a4", v)
	}
	if v, _ := d.Get("rate"); v != 16000 {
		t.Errorf("rate = %v, want 16000", v)
	}
}

func getDict(t *testing.T, d *Dict, key any) *Dict {
	t.Helper()
	v, ok := d.Get(key)
	if !ok {
		t.Fatalf("key %v missing, have %v", key, d.Keys())
	}
	inner, ok := v.(*Dict)
	if !ok {
		t.Fatalf("value under %v is %T, want *Dict", key, v)
	}
	return inner
}
