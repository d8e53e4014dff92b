package prg

import (
	"math"
	"testing"
)

func TestDeterminism(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Int(0, 1000), b.Int(0, 1000); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}

	c := New(43)
	same := true
	for i := 0; i < 20; i++ {
		if a.Uniform() != c.Uniform() {
			same = false
		}
	}
	if same {
		t.Error("different seeds should produce different sequences")
	}
}

func TestIntBounds(t *testing.T) {
	p := New(1)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := p.Int(-2, 2)
		if v < -2 || v > 2 {
			t.Fatalf("Int(-2,2) = %d out of bounds", v)
		}
		seen[v] = true
	}
	if len(seen) != 5 {
		t.Errorf("Int(-2,2) produced %d distinct values, want 5", len(seen))
	}

	if got := p.Int(7, 7); got != 7 {
		t.Errorf("Int(7,7) = %d, want 7", got)
	}
	if got := p.Int(0, math.MaxInt32); got < 0 || got > math.MaxInt32 {
		t.Errorf("Int(0,MaxInt32) = %d out of bounds", got)
	}
}

func TestDoubleBounds(t *testing.T) {
	p := New(7)
	for i := 0; i < 1000; i++ {
		v := p.Double(-1.5, 2.5)
		if v < -1.5 || v >= 2.5 {
			t.Fatalf("Double(-1.5,2.5) = %v out of bounds", v)
		}
	}
	if v := p.Double(0, math.MaxFloat64); math.IsInf(v, 0) || v < 0 {
		t.Errorf("Double(0,MaxFloat64) = %v", v)
	}
	for i := 0; i < 1000; i++ {
		v := p.Double(-math.MaxFloat64, math.MaxFloat64)
		if math.IsInf(v, 0) || v >= math.MaxFloat64 {
			t.Fatalf("Double(-MaxFloat64,MaxFloat64) = %v out of bounds", v)
		}
	}
	if v := p.Double(3, 3); v != 3 {
		t.Errorf("Double(3,3) = %v, want 3", v)
	}
}

func TestBernoulliExtremes(t *testing.T) {
	p := New(3)
	for i := 0; i < 100; i++ {
		if p.Bernoulli(0) {
			t.Fatal("Bernoulli(0) returned true")
		}
		if !p.Bernoulli(1) {
			t.Fatal("Bernoulli(1) returned false")
		}
	}
}

func TestSeed(t *testing.T) {
	if got := New(99).Seed(); got != 99 {
		t.Errorf("Seed() = %d, want 99", got)
	}
}
