package automation

import (
	"context"

	"github.com/xkilldash9x/zyclicker/internal/matcher"
)

// ChoiceQuestion is one multiple-choice question.
type ChoiceQuestion interface {
	ID() string
	// Choices returns how many choices the question offers.
	Choices(ctx context.Context) (int, error)
	// Choose clicks choice k.
	Choose(ctx context.Context, k int) error
	// Solved reports whether the page marks the question correct.
	Solved(ctx context.Context) (bool, error)
}

// TextQuestion is one short-answer question.
type TextQuestion interface {
	ID() string
	// Reveal asks the page to show the answer.
	Reveal(ctx context.Context) error
	// Fill copies the revealed answer into the input and submits it.
	Fill(ctx context.Context) error
}

// AnimationSetup counts what Animations.Prepare touched.
type AnimationSetup struct {
	SpeedToggled int `json:"speed"`
	Started      int `json:"started"`
}

// Animations drives the page's step-through animations.
type Animations interface {
	// Prepare switches every animation to 2x speed and starts it.
	Prepare(ctx context.Context) (AnimationSetup, error)
	// Play clicks every waiting play button and returns how many there were.
	Play(ctx context.Context) (int, error)
}

// Page is everything a run needs from the open book section.
type Page interface {
	// Install makes the page ready to be driven. It is called at the start
	// of every run and must be idempotent.
	Install(ctx context.Context) error
	DragDropBlocks(ctx context.Context) ([]matcher.Block, error)
	ChoiceQuestions(ctx context.Context) ([]ChoiceQuestion, error)
	TextQuestions(ctx context.Context) ([]TextQuestion, error)
	Animations() Animations
}
