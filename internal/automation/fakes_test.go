package automation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/zyclicker/internal/matcher"
)

type fakePage struct {
	installErr error
	blocks     []matcher.Block
	blocksErr  error
	choices    []ChoiceQuestion
	choicesErr error
	texts      []TextQuestion
	anim       *fakeAnimations

	choiceListings atomic.Int32
}

func (p *fakePage) Install(ctx context.Context) error { return p.installErr }

func (p *fakePage) DragDropBlocks(ctx context.Context) ([]matcher.Block, error) {
	return p.blocks, p.blocksErr
}

func (p *fakePage) ChoiceQuestions(ctx context.Context) ([]ChoiceQuestion, error) {
	p.choiceListings.Add(1)
	return p.choices, p.choicesErr
}

func (p *fakePage) TextQuestions(ctx context.Context) ([]TextQuestion, error) {
	return p.texts, nil
}

func (p *fakePage) Animations() Animations { return p.anim }

// pairBlock is a drag-and-drop block whose slots read correct when the
// truth label is placed on them.
type pairBlock struct {
	id     string
	labels []string
	slots  []string
	truth  map[string]string
	placed map[string]string
}

func newPairBlock(id string, truth map[string]string, labels, slots []string) *pairBlock {
	return &pairBlock{id: id, labels: labels, slots: slots, truth: truth, placed: map[string]string{}}
}

func (b *pairBlock) ID() string { return b.id }

func (b *pairBlock) Sources(ctx context.Context) ([]matcher.Source, error) {
	out := make([]matcher.Source, len(b.labels))
	for i, l := range b.labels {
		out[i] = matcher.Source{Label: l}
	}
	return out, nil
}

func (b *pairBlock) Slots(ctx context.Context) ([]matcher.Slot, error) {
	out := make([]matcher.Slot, len(b.slots))
	for i, s := range b.slots {
		out[i] = matcher.Slot{ID: s}
	}
	return out, nil
}

func (b *pairBlock) Probe(ctx context.Context, src matcher.Source, slot matcher.Slot) error {
	b.placed[slot.ID] = src.Label
	return nil
}

func (b *pairBlock) Feedback(ctx context.Context, slot matcher.Slot) (matcher.Feedback, error) {
	label, ok := b.placed[slot.ID]
	switch {
	case !ok:
		return matcher.FeedbackNeutral, nil
	case b.truth[label] == slot.ID:
		return matcher.FeedbackCorrect, nil
	default:
		return matcher.FeedbackIncorrect, nil
	}
}

func (b *pairBlock) Reset(ctx context.Context) error {
	b.placed = map[string]string{}
	return nil
}

// fakeChoice is solved once the correct choice is clicked. correct < 0
// means no choice is right.
type fakeChoice struct {
	id      string
	n       int
	correct int
	solved  bool
	chosen  []int
}

func (q *fakeChoice) ID() string                               { return q.id }
func (q *fakeChoice) Choices(ctx context.Context) (int, error) { return q.n, nil }
func (q *fakeChoice) Solved(ctx context.Context) (bool, error) { return q.solved, nil }

func (q *fakeChoice) Choose(ctx context.Context, k int) error {
	q.chosen = append(q.chosen, k)
	q.solved = k == q.correct
	return nil
}

type fakeText struct {
	id        string
	revealErr error
	revealed  bool
	filled    bool
}

func (q *fakeText) ID() string { return q.id }

func (q *fakeText) Reveal(ctx context.Context) error {
	if q.revealErr != nil {
		return q.revealErr
	}
	q.revealed = true
	return nil
}

func (q *fakeText) Fill(ctx context.Context) error {
	if !q.revealed {
		return errors.New("answer not revealed")
	}
	q.filled = true
	return nil
}

type fakeAnimations struct {
	mu         sync.Mutex
	prepareErr error
	prepared   int
	plays      atomic.Int64
}

func (a *fakeAnimations) Prepare(ctx context.Context) (AnimationSetup, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.prepareErr != nil {
		return AnimationSetup{}, a.prepareErr
	}
	a.prepared++
	return AnimationSetup{SpeedToggled: 2, Started: 3}, nil
}

func (a *fakeAnimations) Play(ctx context.Context) (int, error) {
	a.plays.Add(1)
	return 3, nil
}
