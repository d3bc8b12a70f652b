package matcher

import "fmt"

// Pair is one confirmed source-to-slot assignment.
type Pair struct {
	Source Source
	Slot   Slot
}

// AssignmentMap is the discovered pairing. Both directions are unique and
// pairs keep the order in which they were confirmed.
type AssignmentMap struct {
	pairs    []Pair
	bySource map[string]string
	bySlot   map[string]string
}

// NewAssignmentMap returns an empty map.
func NewAssignmentMap() *AssignmentMap {
	return &AssignmentMap{
		bySource: make(map[string]string),
		bySlot:   make(map[string]string),
	}
}

// Assign records src -> slot.
func (m *AssignmentMap) Assign(src Source, slot Slot) error {
	if prev, ok := m.bySource[src.Label]; ok {
		return fmt.Errorf("%w: source %q already assigned to %q", ErrBijection, src.Label, prev)
	}
	if prev, ok := m.bySlot[slot.ID]; ok {
		return fmt.Errorf("%w: slot %q already claimed by %q", ErrBijection, slot.ID, prev)
	}
	m.bySource[src.Label] = slot.ID
	m.bySlot[slot.ID] = src.Label
	m.pairs = append(m.pairs, Pair{Source: src, Slot: slot})
	return nil
}

// Claimed reports whether slot already belongs to some source.
func (m *AssignmentMap) Claimed(slot Slot) bool {
	_, ok := m.bySlot[slot.ID]
	return ok
}

// SlotFor returns the slot id assigned to label.
func (m *AssignmentMap) SlotFor(label string) (string, bool) {
	id, ok := m.bySource[label]
	return id, ok
}

// Len is the number of confirmed pairs.
func (m *AssignmentMap) Len() int { return len(m.pairs) }

// Pairs returns a copy of the pairs in confirmation order.
func (m *AssignmentMap) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// ToMap flattens the assignment to label -> slot id.
func (m *AssignmentMap) ToMap() map[string]string {
	out := make(map[string]string, len(m.bySource))
	for k, v := range m.bySource {
		out[k] = v
	}
	return out
}
