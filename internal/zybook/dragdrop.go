package zybook

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/zyclicker/internal/browser/dnd"
	"github.com/xkilldash9x/zyclicker/internal/matcher"
)

const indicatorBaseClass = "definition-match-explanation"

// DragDropBlock is one .definition-match-payload question.
type DragDropBlock struct {
	page  *Page
	index int
	id    string
}

var _ matcher.Block = (*DragDropBlock)(nil)

func (b *DragDropBlock) ID() string { return b.id }

func (b *DragDropBlock) Sources(ctx context.Context) ([]matcher.Source, error) {
	var labels []string
	if err := b.page.call(ctx, &labels, "dnd.sources", b.index); err != nil {
		return nil, err
	}
	out := make([]matcher.Source, len(labels))
	for i, l := range labels {
		out[i] = matcher.Source{Label: l}
	}
	return out, nil
}

func (b *DragDropBlock) Slots(ctx context.Context) ([]matcher.Slot, error) {
	var ids []string
	if err := b.page.call(ctx, &ids, "dnd.slots", b.index); err != nil {
		return nil, err
	}
	out := make([]matcher.Slot, len(ids))
	for i, id := range ids {
		out[i] = matcher.Slot{ID: id}
	}
	return out, nil
}

// Probe drags the tile labelled src.Label onto the slot.
func (b *DragDropBlock) Probe(ctx context.Context, src matcher.Source, slot matcher.Slot) error {
	source, err := expr("dnd.source", b.index, src.Label)
	if err != nil {
		return err
	}
	_, err = b.page.sim.Drag(ctx, source, dnd.ByID(slot.ID))
	return classify(ctx, "dnd.probe", err)
}

// Feedback reads the class of the explanation element next to the slot.
func (b *DragDropBlock) Feedback(ctx context.Context, slot matcher.Slot) (matcher.Feedback, error) {
	var class *string
	if err := b.page.call(ctx, &class, "dnd.feedback", slot.ID); err != nil {
		return matcher.FeedbackNeutral, err
	}
	if class == nil {
		return matcher.FeedbackNeutral, fmt.Errorf("slot %q has no feedback indicator: %w", slot.ID, ErrStructure)
	}
	return ParseFeedback(*class), nil
}

func (b *DragDropBlock) Reset(ctx context.Context) error {
	return b.page.call(ctx, nil, "dnd.reset", b.index)
}

// ParseFeedback maps the class attribute of a slot's explanation element to
// a feedback value. The bare base class means nothing was dropped yet.
func ParseFeedback(class string) matcher.Feedback {
	tokens := strings.Fields(class)
	if len(tokens) == 0 {
		return matcher.FeedbackNeutral
	}

	var base, correct, incorrect, other bool
	for _, tok := range tokens {
		switch tok {
		case indicatorBaseClass:
			base = true
		case "correct":
			correct = true
		case "incorrect", "wrong":
			incorrect = true
		default:
			other = true
		}
	}

	switch {
	case !base || other || (correct && incorrect):
		return matcher.FeedbackAmbiguous
	case correct:
		return matcher.FeedbackCorrect
	case incorrect:
		return matcher.FeedbackIncorrect
	default:
		return matcher.FeedbackNeutral
	}
}
