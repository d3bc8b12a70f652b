// Package matcher discovers the hidden source-to-slot pairing of a
// drag-and-drop question by probing it, then replays the pairing.
package matcher

import (
	"context"
	"errors"
)

// ErrBijection is returned when an assignment would give a source a second
// slot, or a slot a second source.
var ErrBijection = errors.New("matcher: assignment violates bijection")

// Feedback is the state of a slot's correctness indicator after a drop.
type Feedback int

const (
	// FeedbackNeutral means nothing is placed on the slot.
	FeedbackNeutral Feedback = iota
	FeedbackCorrect
	FeedbackIncorrect
	// FeedbackAmbiguous means the indicator exists but its value is not
	// recognized. It counts as incorrect.
	FeedbackAmbiguous
)

func (f Feedback) String() string {
	switch f {
	case FeedbackNeutral:
		return "neutral"
	case FeedbackCorrect:
		return "correct"
	case FeedbackIncorrect:
		return "incorrect"
	case FeedbackAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Source is a draggable item, identified by its display label.
type Source struct {
	Label string
}

// Slot is a drop target, identified by a stable id.
type Slot struct {
	ID string
}

// Block is one drag-and-drop question. Implementations adapt a concrete page
// to this interface; lookups that fail because the page has an unexpected
// shape should return an error rather than guess.
type Block interface {
	// ID names the block in logs and reports.
	ID() string
	// Sources lists the draggable items in on-page order.
	Sources(ctx context.Context) ([]Source, error)
	// Slots lists the drop targets in on-page order.
	Slots(ctx context.Context) ([]Slot, error)
	// Probe drags src onto slot. It does not wait for the page to react.
	Probe(ctx context.Context, src Source, slot Slot) error
	// Feedback reads the slot's indicator. It must never be cached.
	Feedback(ctx context.Context, slot Slot) (Feedback, error)
	// Reset returns every item to its unplaced position.
	Reset(ctx context.Context) error
}
