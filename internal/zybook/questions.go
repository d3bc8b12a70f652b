package zybook

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/zyclicker/internal/automation"
)

// ChoiceQuestion is one .multiple-choice-question.
type ChoiceQuestion struct {
	page  *Page
	index int
	id    string
}

func (q *ChoiceQuestion) ID() string { return q.id }

func (q *ChoiceQuestion) Choices(ctx context.Context) (int, error) {
	var n int
	err := q.page.call(ctx, &n, "mc.choices", q.index)
	return n, err
}

func (q *ChoiceQuestion) Choose(ctx context.Context, k int) error {
	return q.page.call(ctx, nil, "mc.choose", q.index, k)
}

func (q *ChoiceQuestion) Solved(ctx context.Context) (bool, error) {
	var ok bool
	err := q.page.call(ctx, &ok, "mc.solved", q.index)
	return ok, err
}

// TextQuestion is one .short-answer-question.
type TextQuestion struct {
	page  *Page
	index int
	id    string
}

func (q *TextQuestion) ID() string { return q.id }

// Reveal clicks "show answer" twice, which is what exposes the answer text.
func (q *TextQuestion) Reveal(ctx context.Context) error {
	return q.page.call(ctx, nil, "sa.reveal", q.index)
}

func (q *TextQuestion) Fill(ctx context.Context) error {
	var answer string
	if err := q.page.call(ctx, &answer, "sa.fill", q.index); err != nil {
		return err
	}
	q.page.logger.Debug("Short answer filled.", zap.String("question", q.id), zap.Int("answer_len", len(answer)))
	return nil
}

type animations struct {
	page *Page
}

func (a animations) Prepare(ctx context.Context) (automation.AnimationSetup, error) {
	var setup automation.AnimationSetup
	err := a.page.call(ctx, &setup, "anim.prepare")
	return setup, err
}

func (a animations) Play(ctx context.Context) (int, error) {
	var n int
	err := a.page.call(ctx, &n, "anim.play")
	return n, err
}
