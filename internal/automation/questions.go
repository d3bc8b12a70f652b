package automation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/zyclicker/internal/reporting"
)

// solveChoices works every multiple-choice question concurrently.
func (r *Runner) solveChoices(ctx context.Context, log *zap.Logger, settle time.Duration) ([]reporting.Question, error) {
	qs, err := r.page.ChoiceQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	log.Info("Answering multiple-choice questions.", zap.Int("count", len(qs)))

	out := make([]reporting.Question, len(qs))
	var g errgroup.Group
	for i, q := range qs {
		g.Go(func() error {
			out[i] = r.solveChoice(ctx, log.With(zap.String("question", q.ID())), q, settle)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// solveChoice clicks choices in order until the page marks the question
// correct or the choices run out. An already solved question gets no clicks.
func (r *Runner) solveChoice(ctx context.Context, log *zap.Logger, q ChoiceQuestion, settle time.Duration) (out reporting.Question) {
	out.ID = q.ID()
	defer func() {
		if p := recover(); p != nil {
			out.Error = fmt.Sprintf("panic: %v", p)
			log.Error("Recovered from panic while answering.", zap.Any("panic", p))
		}
	}()

	n, err := q.Choices(ctx)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	for k := 0; ; k++ {
		solved, err := q.Solved(ctx)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		if solved {
			out.Solved = true
			log.Debug("Question solved.", zap.Int("attempts", out.Attempts))
			return out
		}
		if k >= n {
			log.Warn("Choices exhausted without a correct answer.", zap.Int("choices", n))
			return out
		}
		if err := q.Choose(ctx, k); err != nil {
			out.Error = err.Error()
			return out
		}
		out.Attempts++
		if err := r.sleep(ctx, settle); err != nil {
			out.Error = err.Error()
			return out
		}
	}
}

// fillAnswers reveals every short answer first, waits once, then copies
// each revealed answer into its input.
func (r *Runner) fillAnswers(ctx context.Context, log *zap.Logger, settle time.Duration) ([]reporting.Question, error) {
	qs, err := r.page.TextQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	log.Info("Filling short answers.", zap.Int("count", len(qs)))

	out := make([]reporting.Question, len(qs))
	for i, q := range qs {
		out[i].ID = q.ID()
		if err := q.Reveal(ctx); err != nil {
			out[i].Error = err.Error()
			log.Warn("Could not reveal answer.", zap.String("question", q.ID()), zap.Error(err))
		}
	}

	if err := r.sleep(ctx, settle); err != nil {
		return out, err
	}

	for i, q := range qs {
		if out[i].Error != "" {
			continue
		}
		if err := q.Fill(ctx); err != nil {
			out[i].Error = err.Error()
			log.Warn("Could not fill answer.", zap.String("question", q.ID()), zap.Error(err))
			continue
		}
		out[i].Solved = true
	}
	return out, nil
}
