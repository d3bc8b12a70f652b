package matcher

import (
	"context"
	"runtime"
)

type eventKind string

const (
	evProbe    eventKind = "probe"
	evFeedback eventKind = "feedback"
	evReset    eventKind = "reset"
)

type event struct {
	kind  eventKind
	label string
	slot  string
}

// fakeBlock is an in-memory question block whose feedback is driven by a
// hidden ground-truth pairing.
type fakeBlock struct {
	id     string
	labels []string
	slots  []string
	truth  map[string]string

	// misread pairs always read back as incorrect.
	misread map[string]string
	// ambiguousReads is how many ambiguous reads a slot returns before reading normally.
	ambiguousReads map[string]int

	sourcesErr  error
	probeErr    error
	failProbeAt int
	panicOnRead bool
	// yield hands the scheduler over on every call to shake out interleavings.
	yield bool

	placed    map[string]string // slot -> label
	confirmed map[string]bool   // slots that have read back correct
	events    []event
	probes    int
}

func newFakeBlock(id string, labels, slots []string, truth map[string]string) *fakeBlock {
	return &fakeBlock{
		id:             id,
		labels:         labels,
		slots:          slots,
		truth:          truth,
		misread:        map[string]string{},
		ambiguousReads: map[string]int{},
		placed:         map[string]string{},
		confirmed:      map[string]bool{},
	}
}

func (f *fakeBlock) maybeYield() {
	if f.yield {
		runtime.Gosched()
	}
}

func (f *fakeBlock) ID() string { return f.id }

func (f *fakeBlock) Sources(ctx context.Context) ([]Source, error) {
	f.maybeYield()
	if f.sourcesErr != nil {
		return nil, f.sourcesErr
	}
	out := make([]Source, len(f.labels))
	for i, l := range f.labels {
		out[i] = Source{Label: l}
	}
	return out, nil
}

func (f *fakeBlock) Slots(ctx context.Context) ([]Slot, error) {
	f.maybeYield()
	out := make([]Slot, len(f.slots))
	for i, s := range f.slots {
		out[i] = Slot{ID: s}
	}
	return out, nil
}

func (f *fakeBlock) Probe(ctx context.Context, src Source, slot Slot) error {
	f.maybeYield()
	f.probes++
	if f.probeErr != nil && f.probes >= f.failProbeAt {
		return f.probeErr
	}
	f.events = append(f.events, event{kind: evProbe, label: src.Label, slot: slot.ID})
	// Moving an item off its previous slot empties that slot.
	for s, l := range f.placed {
		if l == src.Label {
			delete(f.placed, s)
		}
	}
	f.placed[slot.ID] = src.Label
	return nil
}

func (f *fakeBlock) Feedback(ctx context.Context, slot Slot) (Feedback, error) {
	f.maybeYield()
	if f.panicOnRead {
		panic("indicator vanished")
	}
	f.events = append(f.events, event{kind: evFeedback, slot: slot.ID})
	label, ok := f.placed[slot.ID]
	if !ok {
		return FeedbackNeutral, nil
	}
	if f.ambiguousReads[slot.ID] > 0 {
		f.ambiguousReads[slot.ID]--
		return FeedbackAmbiguous, nil
	}
	if f.truth[label] == slot.ID && f.misread[label] != slot.ID {
		f.confirmed[slot.ID] = true
		return FeedbackCorrect, nil
	}
	return FeedbackIncorrect, nil
}

func (f *fakeBlock) Reset(ctx context.Context) error {
	f.maybeYield()
	f.events = append(f.events, event{kind: evReset})
	f.placed = map[string]string{}
	return nil
}

// allCorrect reads every slot's indicator directly from the fake's state.
func (f *fakeBlock) allCorrect() bool {
	for _, s := range f.slots {
		label, ok := f.placed[s]
		if !ok || f.truth[label] != s {
			return false
		}
	}
	return true
}

func (f *fakeBlock) count(kind eventKind) int {
	n := 0
	for _, e := range f.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// permutations returns every ordering of items.
func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}
	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}
