package coverage

import (
	"reflect"
	"testing"
)

func TestBitmap_SetCovered(t *testing.T) {
	b := NewBitmap(5)
	if b.FirstGapPosition() != 0 {
		t.Errorf("FirstGapPosition() = %d, want 0", b.FirstGapPosition())
	}

	b.SetCovered(NewRange(0, 1))
	b.SetCovered(NewRange(3, 3))

	if got := b.NumWordsCovered(); got != 3 {
		t.Errorf("NumWordsCovered() = %d, want 3", got)
	}
	if got := b.FirstGapPosition(); got != 2 {
		t.Errorf("FirstGapPosition() = %d, want 2", got)
	}
	if got := b.String(); got != "11010" {
		t.Errorf("String() = %q, want 11010", got)
	}
	if !b.Overlap(NewRange(1, 2)) {
		t.Errorf("Overlap([1..2]) = false, want true")
	}
	if b.Overlap(NewRange(2, 2)) {
		t.Errorf("Overlap([2..2]) = true, want false")
	}

	b.SetCovered(NewRange(2, 2))
	b.SetCovered(NewRange(4, 4))
	if !b.IsComplete() || b.FirstGapPosition() != 5 {
		t.Errorf("expected complete bitmap, got %s gap %d", b, b.FirstGapPosition())
	}
}

func TestBitmap_SetCoveredOverlapPanics(t *testing.T) {
	b := NewBitmap(3)
	b.SetCovered(NewRange(1, 1))
	defer func() {
		if recover() == nil {
			t.Errorf("SetCovered on covered position should panic")
		}
	}()
	b.SetCovered(NewRange(0, 1))
}

func TestBitmap_CloneIsIndependent(t *testing.T) {
	a := NewBitmap(70)
	a.SetCovered(NewRange(65, 66))
	c := a.Clone()
	c.SetCovered(NewRange(0, 0))

	if a.Covered(0) {
		t.Errorf("clone mutation leaked into original")
	}
	if a.Key() == c.Key() {
		t.Errorf("keys should differ after divergent coverage")
	}
	d := a.Clone()
	if a.Key() != d.Key() {
		t.Errorf("equal coverage must give equal keys")
	}
}

func TestBitmap_Gaps(t *testing.T) {
	b := NewBitmap(6)
	b.SetCovered(NewRange(1, 2))
	b.SetCovered(NewRange(4, 4))
	want := []Range{{0, 0}, {3, 3}, {5, 5}}
	if got := b.Gaps(); !reflect.DeepEqual(got, want) {
		t.Errorf("Gaps() = %v, want %v", got, want)
	}
}

func TestRange_WordsBetween(t *testing.T) {
	tests := []struct {
		a, b Range
		want int
	}{
		{Range{0, 1}, Range{4, 5}, 2},
		{Range{4, 5}, Range{0, 1}, 2},
		{Range{0, 1}, Range{2, 2}, 0},
		{Range{0, 3}, Range{2, 2}, 0},
	}
	for _, tt := range tests {
		if got := tt.a.WordsBetween(tt.b); got != tt.want {
			t.Errorf("%s.WordsBetween(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
