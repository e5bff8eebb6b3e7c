package gss

import (
	"testing"

	"github.com/dhamidi/gll/grammar"
)

func TestGSS_CreateReusesNodes(t *testing.T) {
	g := New()
	slot := grammar.Slot{NT: 0, Alt: 0, Pos: 1}

	a, created := g.Create(slot, 3)
	if !created || a == Bottom {
		t.Fatalf("expected a fresh node, got %d created=%v", a, created)
	}
	b, created := g.Create(slot, 3)
	if created || b != a {
		t.Errorf("expected node %d to be reused, got %d created=%v", a, b, created)
	}
	c, created := g.Create(slot, 4)
	if !created || c == a {
		t.Errorf("expected a distinct node for another position")
	}
	if g.Len() != 3 {
		t.Errorf("expected 3 nodes including bottom, got %d", g.Len())
	}
}

func TestGSS_SharedParents(t *testing.T) {
	g := New()
	callee, _ := g.Create(grammar.Slot{NT: 1, Alt: 0, Pos: 1}, 0)
	other, _ := g.Create(grammar.Slot{NT: 2, Alt: 0, Pos: 1}, 0)

	if !g.AddEdge(callee, Bottom) {
		t.Fatal("first edge should be added")
	}
	if !g.AddEdge(callee, other) {
		t.Fatal("second parent should be added")
	}
	if g.AddEdge(callee, Bottom) {
		t.Error("duplicate edge should be rejected")
	}

	parents := g.Parents(callee)
	if len(parents) != 2 || parents[0] != Bottom || parents[1] != other {
		t.Errorf("unexpected parents %v", parents)
	}
	if g.Edges() != 2 {
		t.Errorf("expected 2 edges, got %d", g.Edges())
	}
}

func TestGSS_PopIsMemoized(t *testing.T) {
	g := New()
	n, _ := g.Create(grammar.Slot{NT: 0, Alt: 0, Pos: 1}, 0)

	if !g.Pop(n, 2) {
		t.Fatal("first pop should be recorded")
	}
	if g.Pop(n, 2) {
		t.Error("second pop at the same position should be ignored")
	}
	g.Pop(n, 5)

	popped := g.Popped(n)
	if len(popped) != 2 || popped[0] != 2 || popped[1] != 5 {
		t.Errorf("unexpected popped positions %v", popped)
	}
}

func TestWorklist_AscendingPositions(t *testing.T) {
	w := NewWorklist()
	s := grammar.Slot{}

	w.Add(Descriptor{Slot: s, Pos: 3})
	w.Add(Descriptor{Slot: s, Pos: 0})
	w.Add(Descriptor{Slot: s, Pos: 1, Node: 1})
	w.Add(Descriptor{Slot: s, Pos: 1, Node: 2})

	var got []int
	for {
		d, ok := w.Next()
		if !ok {
			break
		}
		got = append(got, d.Pos)
		if d.Pos == 1 && d.Node == 1 {
			// Work discovered while processing position 1 lands at 1 or later.
			w.Add(Descriptor{Slot: s, Pos: 1, Node: 3})
			w.Add(Descriptor{Slot: s, Pos: 2})
		}
	}

	want := []int{0, 1, 1, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got positions %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got positions %v, want %v", got, want)
		}
	}
	if w.Processed() != 6 || w.Pending() != 0 {
		t.Errorf("processed=%d pending=%d", w.Processed(), w.Pending())
	}
}

func TestWorklist_Dedup(t *testing.T) {
	w := NewWorklist()
	d := Descriptor{Slot: grammar.Slot{NT: 1}, Node: 2, Pos: 0}
	if !w.Add(d) {
		t.Fatal("first add should succeed")
	}
	if w.Add(d) {
		t.Error("duplicate add should be rejected")
	}
	w.Next()
	if w.Add(d) {
		t.Error("descriptor handed out before should stay rejected while its position is active")
	}
}

func TestWorklist_PanicsOnPastPosition(t *testing.T) {
	w := NewWorklist()
	w.Add(Descriptor{Pos: 2})
	w.Next()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	w.Add(Descriptor{Pos: 1})
}
