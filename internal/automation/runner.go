package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/zyclicker/internal/config"
	"github.com/xkilldash9x/zyclicker/internal/matcher"
	"github.com/xkilldash9x/zyclicker/internal/reporting"
)

// Runner drives one page. Runs may overlap with a running animation loop,
// but only one animation loop exists at a time.
type Runner struct {
	page       Page
	cfg        config.AutomationConfig
	matcherCfg config.MatcherConfig
	logger     *zap.Logger
	sleep      matcher.SleepFunc
	now        func() time.Time

	mu   sync.Mutex
	anim *animationLoop
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithSleeper replaces the settle pause used by every behavior.
func WithSleeper(fn matcher.SleepFunc) RunnerOption {
	return func(r *Runner) { r.sleep = fn }
}

// WithClock replaces the clock used for report timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner for page.
func NewRunner(page Page, cfg *config.Config, logger *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		page:       page,
		cfg:        cfg.Automation,
		matcherCfg: cfg.Matcher,
		logger:     logger.Named("runner"),
		sleep:      matcher.SleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the enabled behaviors. Drag and drop, multiple choice and
// short answers run concurrently and Run returns once all three finish;
// the animation loop keeps going until StopAnimations or ctx is done.
// A failing behavior never stops the others. The returned error is non-nil
// only when the page could not be prepared or ctx ended the run early, in
// which case the report is partial.
func (r *Runner) Run(ctx context.Context, opts Options) (*reporting.Run, error) {
	runID := uuid.New().String()
	log := r.logger.With(zap.String("run_id", runID))
	report := &reporting.Run{
		RunID:     runID,
		StartedAt: r.now(),
		Settle:    opts.Settle.String(),
		Behaviors: opts.Behaviors(),
	}
	log.Info("Run started.", zap.Strings("behaviors", report.Behaviors), zap.Duration("settle", opts.Settle))

	if err := r.page.Install(ctx); err != nil {
		report.FinishedAt = r.now()
		return report, fmt.Errorf("failed to prepare page: %w", err)
	}

	var mu sync.Mutex
	recordErr := func(behavior string, err error) {
		log.Error("Behavior failed.", zap.String("behavior", behavior), zap.Error(err))
		mu.Lock()
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", behavior, err))
		mu.Unlock()
	}

	if opts.Animations {
		setup, err := r.StartAnimations(ctx)
		if err != nil {
			recordErr(BehaviorAnimations, err)
		} else {
			report.Animations = &reporting.Animations{SpeedToggled: setup.SpeedToggled, Started: setup.Started}
		}
	}

	var g errgroup.Group
	if opts.DragAndDrop {
		g.Go(func() error {
			blocks, err := r.solveBlocks(ctx, log, opts.Settle)
			report.DragAndDrop = blocks
			if err != nil {
				recordErr(BehaviorDragAndDrop, err)
			}
			return nil
		})
	}
	if opts.MultipleChoice {
		g.Go(func() error {
			questions, err := r.solveChoices(ctx, log, opts.Settle)
			report.MultipleChoice = questions
			if err != nil {
				recordErr(BehaviorMultipleChoice, err)
			}
			return nil
		})
	}
	if opts.ShortAnswers {
		g.Go(func() error {
			questions, err := r.fillAnswers(ctx, log, opts.Settle)
			report.ShortAnswers = questions
			if err != nil {
				recordErr(BehaviorShortAnswers, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = r.now()
	s := report.Summarize()
	log.Info("Run finished.",
		zap.Int("blocks", s.Blocks), zap.Int("blocks_solved", s.BlocksSolved),
		zap.Int("choices", s.Choices), zap.Int("choices_solved", s.ChoicesSolved),
		zap.Int("answers", s.Answers), zap.Int("answers_submitted", s.AnswersSubmitted),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) solveBlocks(ctx context.Context, log *zap.Logger, settle time.Duration) ([]reporting.Block, error) {
	blocks, err := r.page.DragDropBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	log.Info("Solving drag-and-drop blocks.", zap.Int("count", len(blocks)))

	d := matcher.NewDiscoverer(r.matcherCfg, log,
		matcher.WithSettle(settle),
		matcher.WithSleeper(r.sleep))
	results := d.SolveAll(ctx, blocks)

	out := make([]reporting.Block, len(results))
	for i, res := range results {
		out[i] = reporting.BlockFromResult(res)
	}
	return out, nil
}
