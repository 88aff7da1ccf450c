package ring

import (
	"testing"

	"github.com/ringmesh/ringchat/internal/domain"
)

func TestRecomputeIsDeterministic(t *testing.T) {
	ids := []domain.NodeID{"C", "A", "B"}
	m1 := NewManager("A")
	m2 := NewManager("B")

	v1 := m1.Recompute(ids)
	v2 := m2.Recompute(ids)

	if len(v1) != len(v2) {
		t.Fatalf("views differ in length: %v vs %v", v1, v2)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("views diverge at %d: %v vs %v", i, v1, v2)
		}
	}
}

func TestNeighboursRingOfThree(t *testing.T) {
	m := NewManager("B")
	m.Recompute([]domain.NodeID{"A", "B", "C"})

	left, right, err := m.Neighbours()
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	if left != "C" || right != "A" {
		t.Fatalf("B's neighbours = (%s,%s), want (C,A)", left, right)
	}
}

func TestNeighboursRingOfOne(t *testing.T) {
	m := NewManager("A")
	left, right, err := m.Neighbours()
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	if left != "A" || right != "A" {
		t.Fatalf("lone node neighbours = (%s,%s), want (A,A)", left, right)
	}
	if m.Eligible() {
		t.Fatalf("ring of size 1 should not be election-eligible")
	}
}

func TestNeighboursNotInRing(t *testing.T) {
	m := NewManager("Z")
	m.Recompute([]domain.NodeID{"A", "B"})
	if _, _, err := m.Neighbours(); err != domain.ErrNotInRing {
		t.Fatalf("Neighbours() err = %v, want ErrNotInRing", err)
	}
}

func TestWrapAroundNeighbours(t *testing.T) {
	m := NewManager("A")
	m.Recompute([]domain.NodeID{"A", "B", "C", "D"})

	left, right, err := m.Neighbours()
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	if left != "B" || right != "D" {
		t.Fatalf("A's neighbours = (%s,%s), want (B,D)", left, right)
	}
}
