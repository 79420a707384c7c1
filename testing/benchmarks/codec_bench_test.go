package benchmarks

import (
	"context"
	"testing"

	"github.com/audeering/audobject"
	audtest "github.com/audeering/audobject/testing"
)

func benchChain() *audtest.Chain {
	return &audtest.Chain{
		Name: "vad",
		Steps: []audobject.Object{
			&audtest.Tuner{Name: "a4", Rate: 16000},
			&audtest.Tuner{Name: "c5", Rate: 8000},
			&audtest.Window{Shape: [2]int{8, 4}, Scale: 1.0},
		},
	}
}

func BenchmarkToDict(b *testing.B) {
	audtest.RegisterFixtures()
	chain := benchChain()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := audobject.ToDict(ctx, chain); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFromDict(b *testing.B) {
	audtest.RegisterFixtures()
	ctx := context.Background()
	d, err := audobject.ToDict(ctx, benchChain())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := audobject.FromDict(ctx, d); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkToYAML(b *testing.B) {
	audtest.RegisterFixtures()
	chain := benchChain()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := audobject.ToYAML(ctx, chain); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFromYAML(b *testing.B) {
	audtest.RegisterFixtures()
	ctx := context.Background()
	doc, err := audobject.ToYAML(ctx, benchChain())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := audobject.FromYAML(ctx, doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkID(b *testing.B) {
	audtest.RegisterFixtures()
	chain := benchChain()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := audobject.ID(ctx, chain); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFlatten(b *testing.B) {
	audtest.RegisterFixtures()
	chain := benchChain()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := audobject.ToDict(ctx, chain, audobject.WithFlatten()); err != nil {
			b.Fatal(err)
		}
	}
}
