package rng

import "testing"

func TestNextDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("streams diverged at %d: %v != %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("value out of range: %v", va)
		}
	}
}

func TestNextMatchesReferenceStream(t *testing.T) {
	want := []float64{
		0.6011037519201636,
		0.3681287805084139,
		0.7464439547620714,
		0.9967452674172819,
		0.40356429875828326,
	}
	r := New(42)
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("draw %d = %v, want %v", i, got, w)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := true
	for i := 0; i < 10; i++ {
		if a.Next() != b.Next() {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds produced identical streams")
	}
}

func TestIntBoundsInclusive(t *testing.T) {
	r := New(7)
	seenMin, seenMax := false, false
	for i := 0; i < 1000; i++ {
		v := r.Int(3, 5)
		if v < 3 || v > 5 {
			t.Fatalf("Int(3,5) = %d", v)
		}
		if v == 3 {
			seenMin = true
		}
		if v == 5 {
			seenMax = true
		}
	}
	if !seenMin || !seenMax {
		t.Fatalf("bounds never hit: min=%v max=%v", seenMin, seenMax)
	}
}

func TestIntSwapsReversedBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 100; i++ {
		v := r.Int(5, 3)
		if v < 3 || v > 5 {
			t.Fatalf("Int(5,3) = %d", v)
		}
	}
}

func TestPickEmpty(t *testing.T) {
	r := New(1)
	if _, err := Pick(r, []int(nil)); err != ErrEmptyPick {
		t.Fatalf("expected ErrEmptyPick, got %v", err)
	}
}

func TestShuffleDeterministic(t *testing.T) {
	base := []int{1, 2, 3, 4, 5, 6, 7, 8}
	a := append([]int(nil), base...)
	b := append([]int(nil), base...)
	ShuffleInPlace(New(99), a)
	ShuffleInPlace(New(99), b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("shuffles diverged at %d", i)
		}
	}
}

func TestSeedFromDistinguishesParts(t *testing.T) {
	if SeedFrom(1, 2) == SeedFrom(2, 1) {
		t.Fatal("SeedFrom is order-insensitive")
	}
	if SeedFrom(1, 2) != SeedFrom(1, 2) {
		t.Fatal("SeedFrom is not deterministic")
	}
}
