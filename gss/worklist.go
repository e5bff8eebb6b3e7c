package gss

import (
	"fmt"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/dhamidi/gll/grammar"
)

// Descriptor is a unit of parser work: continue at Slot, in the call
// context Node, at input position Pos.
type Descriptor struct {
	Slot grammar.Slot
	Node int
	Pos  int
}

// Worklist hands out descriptors in ascending input position. All
// descriptors at a position are handed out before any at a later one.
// Each descriptor is handed out at most once.
type Worklist struct {
	positions *binaryheap.Heap
	buckets   map[int][]Descriptor
	seen      map[int]map[Descriptor]struct{}
	current   int
	processed int
	pending   int
}

func NewWorklist() *Worklist {
	return &Worklist{
		positions: binaryheap.NewWithIntComparator(),
		buckets:   make(map[int][]Descriptor),
		seen:      make(map[int]map[Descriptor]struct{}),
	}
}

// Add schedules d unless it was scheduled before. Adding a descriptor for
// a position that has already been left behind is a programming error.
func (w *Worklist) Add(d Descriptor) bool {
	if d.Pos < w.current {
		panic(fmt.Sprintf("gss: descriptor at %d added while processing %d", d.Pos, w.current))
	}
	seen, ok := w.seen[d.Pos]
	if !ok {
		seen = make(map[Descriptor]struct{})
		w.seen[d.Pos] = seen
	}
	if _, dup := seen[d]; dup {
		return false
	}
	seen[d] = struct{}{}

	if _, ok := w.buckets[d.Pos]; !ok {
		w.positions.Push(d.Pos)
	}
	w.buckets[d.Pos] = append(w.buckets[d.Pos], d)
	w.pending++
	return true
}

// Next returns the oldest pending descriptor at the lowest pending position.
func (w *Worklist) Next() (Descriptor, bool) {
	for {
		v, ok := w.positions.Peek()
		if !ok {
			return Descriptor{}, false
		}
		pos := v.(int)
		queue := w.buckets[pos]
		if len(queue) == 0 {
			// Position exhausted: nothing can be scheduled here any more.
			w.positions.Pop()
			delete(w.buckets, pos)
			delete(w.seen, pos)
			continue
		}
		d := queue[0]
		w.buckets[pos] = queue[1:]
		w.current = pos
		w.processed++
		w.pending--
		return d, true
	}
}

// Current returns the position of the descriptor handed out last.
func (w *Worklist) Current() int {
	return w.current
}

// Processed returns how many descriptors have been handed out.
func (w *Worklist) Processed() int {
	return w.processed
}

// Pending returns how many descriptors are waiting.
func (w *Worklist) Pending() int {
	return w.pending
}
