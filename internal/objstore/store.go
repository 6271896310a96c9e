// Package objstore is a tag-indexed arena shared by the object managers.
//
// Values live in slots that never move; a removed slot goes onto a free list
// and is reused by a later insert. Iteration and positional access follow
// insertion order.
package objstore

import (
	"iter"
	"slices"
)

type slot[T any] struct {
	tag   int
	value T
	used  bool
}

// Store maps unique integer tags to values.
type Store[T any] struct {
	slots []slot[T]
	free  []int
	byTag map[int]int
	order []int
}

func New[T any]() *Store[T] {
	return &Store[T]{byTag: make(map[int]int)}
}

// Insert adds v under tag and returns its slot id. It reports false, and
// leaves the store unchanged, when tag is already present.
func (s *Store[T]) Insert(tag int, v T) (int, bool) {
	if _, dup := s.byTag[tag]; dup {
		return -1, false
	}
	var id int
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[id] = slot[T]{tag: tag, value: v, used: true}
	} else {
		id = len(s.slots)
		s.slots = append(s.slots, slot[T]{tag: tag, value: v, used: true})
	}
	s.byTag[tag] = id
	s.order = append(s.order, id)
	return id, true
}

func (s *Store[T]) Get(tag int) (T, bool) {
	id, ok := s.byTag[tag]
	if !ok {
		var zero T
		return zero, false
	}
	return s.slots[id].value, true
}

// At returns the value at insertion-order position pos.
func (s *Store[T]) At(pos int) (T, bool) {
	if pos < 0 || pos >= len(s.order) {
		var zero T
		return zero, false
	}
	return s.slots[s.order[pos]].value, true
}

// TagAt returns the tag at insertion-order position pos.
func (s *Store[T]) TagAt(pos int) (int, bool) {
	if pos < 0 || pos >= len(s.order) {
		return 0, false
	}
	return s.slots[s.order[pos]].tag, true
}

func (s *Store[T]) Contains(tag int) bool {
	_, ok := s.byTag[tag]
	return ok
}

// SlotOf returns the stable slot id of tag.
func (s *Store[T]) SlotOf(tag int) (int, bool) {
	id, ok := s.byTag[tag]
	return id, ok
}

// Remove deletes tag and returns its value. Other values keep their slots.
func (s *Store[T]) Remove(tag int) (T, bool) {
	id, ok := s.byTag[tag]
	if !ok {
		var zero T
		return zero, false
	}
	v := s.slots[id].value
	delete(s.byTag, tag)
	s.slots[id] = slot[T]{}
	s.free = append(s.free, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return v, true
}

// RemoveAt deletes the value at insertion-order position pos.
func (s *Store[T]) RemoveAt(pos int) (T, bool) {
	tag, ok := s.TagAt(pos)
	if !ok {
		var zero T
		return zero, false
	}
	return s.Remove(tag)
}

func (s *Store[T]) Len() int { return len(s.order) }

// All yields tag/value pairs in insertion order. The sequence is taken
// from a snapshot, so the store may be modified while iterating.
func (s *Store[T]) All() iter.Seq2[int, T] {
	order := slices.Clone(s.order)
	return func(yield func(int, T) bool) {
		for _, id := range order {
			sl := s.slots[id]
			if !sl.used {
				continue
			}
			if !yield(sl.tag, sl.value) {
				return
			}
		}
	}
}

// Clear removes every value.
func (s *Store[T]) Clear() {
	s.slots = nil
	s.free = nil
	s.order = nil
	clear(s.byTag)
}
