package physics

// Store is a dense, swap-erase array of T with stable weak references
// (Ref[T]) that survive elements moving around inside the store. Bodies,
// Colliders, and Constraints (spec §3 "Stable Reference / Store") each
// live in their own Store.
//
// Internally this follows the generational slot-map design notes in
// spec §9 rather than the reference implementation's shared-pointer /
// back-reference scheme: each live entry has a slot holding (index,
// generation); a Ref is (id, generation). Dereference compares
// generations, so erase is detectable without needing every outstanding
// Ref to be mutated in place — only the slot for the freed id changes,
// and the slot for the moved id is updated to its new dense index. This
// keeps erase O(1) while the store's own destruction simply drops the
// slot table, which orphans every outstanding Ref at once.
type Store[T any] struct {
	dense []T
	ids   []uint64 // dense[i] belongs to ids[i]
	slots map[uint64]*slot
	next  uint64
}

type slot struct {
	index      int
	generation uint32
	alive      bool
}

// Ref is a weak handle into a Store. The zero Ref is never valid.
type Ref[T any] struct {
	id         uint64
	generation uint32
	slot       *slot
}

// Valid reports whether the referenced entry is still present in its store.
func (r Ref[T]) Valid() bool {
	return r.slot != nil && r.slot.alive && r.slot.generation == r.generation
}

// IsZero reports whether r is the zero Ref (never bound to any store).
func (r Ref[T]) IsZero() bool {
	return r.slot == nil
}

// NewStore returns an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{slots: make(map[uint64]*slot)}
}

// Len returns the number of live entries.
func (s *Store[T]) Len() int { return len(s.dense) }

// Add appends value to the store and returns a stable Ref to it.
func (s *Store[T]) Add(value T) Ref[T] {
	id := s.next
	s.next++

	idx := len(s.dense)
	s.dense = append(s.dense, value)
	s.ids = append(s.ids, id)

	sl := &slot{index: idx, generation: 1, alive: true}
	s.slots[id] = sl

	return Ref[T]{id: id, generation: sl.generation, slot: sl}
}

// Get dereferences ref, returning the entry and true if it is still valid.
func (s *Store[T]) Get(ref Ref[T]) (*T, bool) {
	if !ref.Valid() {
		var zero T
		return &zero, false
	}
	return &s.dense[ref.slot.index], true
}

// MustGet dereferences ref, panicking if it is stale. Intended for debug
// assertions and tests, never for the hot simulation path (spec §7: a
// stale Ref must report invalid in release code, not crash it).
func (s *Store[T]) MustGet(ref Ref[T]) *T {
	v, ok := s.Get(ref)
	if !ok {
		panic("physics: dereferenced a stale or foreign Ref")
	}
	return v
}

// Erase removes the entry referenced by ref, if it is still valid here.
// Reports whether anything was removed. O(1): the last entry is swapped
// into the freed slot and its metadata updated to the new index.
func (s *Store[T]) Erase(ref Ref[T]) bool {
	if !ref.Valid() {
		return false
	}
	s.eraseIndex(ref.slot.index)
	delete(s.slots, ref.id)
	ref.slot.alive = false
	return true
}

// EraseWhere removes every entry for which predicate returns true. The id
// set is snapshotted up front so mutating the store inside predicate (by
// returning true and triggering the swap-erase of a different id) never
// invalidates the iteration (spec §9 "Iteration during erase").
func (s *Store[T]) EraseWhere(predicate func(id Ref[T], value *T) bool) {
	ids := make([]uint64, len(s.ids))
	copy(ids, s.ids)

	for _, id := range ids {
		sl, ok := s.slots[id]
		if !ok || !sl.alive {
			continue
		}
		ref := Ref[T]{id: id, generation: sl.generation, slot: sl}
		if predicate(ref, &s.dense[sl.index]) {
			s.eraseIndex(sl.index)
			delete(s.slots, id)
			sl.alive = false
		}
	}
}

// ForEach iterates the current entries in dense (unspecified) order.
func (s *Store[T]) ForEach(fn func(ref Ref[T], value *T)) {
	for i := range s.dense {
		id := s.ids[i]
		sl := s.slots[id]
		fn(Ref[T]{id: id, generation: sl.generation, slot: sl}, &s.dense[i])
	}
}

// At indexes into the dense array directly, for hot loops over the whole
// store that don't need a Ref (spec §4.1 "Indexing store[i]").
func (s *Store[T]) At(i int) *T { return &s.dense[i] }

// RefAt returns the Ref owning dense slot i.
func (s *Store[T]) RefAt(i int) Ref[T] {
	id := s.ids[i]
	sl := s.slots[id]
	return Ref[T]{id: id, generation: sl.generation, slot: sl}
}

// Destroy orphans every outstanding Ref into this store: each live slot is
// marked dead so no later Get/Erase can alias a freed entry, without
// requiring every Ref to be visited individually (spec §4.1, last bullet).
func (s *Store[T]) Destroy() {
	for _, sl := range s.slots {
		sl.alive = false
	}
	s.dense = nil
	s.ids = nil
	s.slots = make(map[uint64]*slot)
}

func (s *Store[T]) eraseIndex(index int) {
	last := len(s.dense) - 1
	if index != last {
		s.dense[index] = s.dense[last]
		movedID := s.ids[last]
		s.ids[index] = movedID
		s.slots[movedID].index = index
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.ids = s.ids[:last]
}
