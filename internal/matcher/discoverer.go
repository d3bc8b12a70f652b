package matcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/zyclicker/internal/config"
)

// Result is the outcome of processing one block.
type Result struct {
	BlockID     string
	Assignments *AssignmentMap
	// Unmapped lists source labels for which no slot read back as correct.
	Unmapped       []string
	Probes         int
	AmbiguousReads int
	Replayed       bool
	Duration       time.Duration
	// Err is set when the block was abandoned (lookup or dispatch failure).
	Err error
}

// Complete reports whether every source was matched and replayed.
func (r *Result) Complete() bool {
	return r.Err == nil && r.Replayed && len(r.Unmapped) == 0
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ProbeHook observes every discovery probe before it is dispatched.
type ProbeHook func(blockID string, src Source, slot Slot)

// Option customizes a Discoverer.
type Option func(*Discoverer)

// WithSleeper replaces the settle pause implementation.
func WithSleeper(fn SleepFunc) Option {
	return func(d *Discoverer) { d.sleep = fn }
}

// WithProbeHook installs an observer called before each discovery probe.
func WithProbeHook(fn ProbeHook) Option {
	return func(d *Discoverer) { d.onProbe = fn }
}

// WithSettle overrides the settle duration.
func WithSettle(settle time.Duration) Option {
	return func(d *Discoverer) { d.settle = settle }
}

// Discoverer finds and replays the pairing of drag-and-drop blocks.
// It holds no per-block state and is safe for concurrent use.
type Discoverer struct {
	logger           *zap.Logger
	settle           time.Duration
	ambiguousRetries int
	sleep            SleepFunc
	onProbe          ProbeHook
}

// NewDiscoverer builds a Discoverer. The settle duration defaults to
// config.DefaultSettleMs and can be set with WithSettle.
func NewDiscoverer(cfg config.MatcherConfig, logger *zap.Logger, opts ...Option) *Discoverer {
	d := &Discoverer{
		logger:           logger.Named("matcher"),
		settle:           config.DefaultSettleMs * time.Millisecond,
		ambiguousRetries: cfg.AmbiguousRetries,
		sleep:            SleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Discoverer) pause(ctx context.Context) error {
	return d.sleep(ctx, d.settle)
}

// Discover probes every source against every unclaimed slot, in on-page
// order, and returns the pairing found. The page is left reset.
func (d *Discoverer) Discover(ctx context.Context, b Block) (*Result, error) {
	start := time.Now()
	log := d.logger.With(zap.String("block_id", b.ID()))
	res := &Result{BlockID: b.ID(), Assignments: NewAssignmentMap()}
	defer func() { res.Duration = time.Since(start) }()

	sources, err := b.Sources(ctx)
	if err != nil {
		return res, fmt.Errorf("block %s: listing sources: %w", b.ID(), err)
	}
	slots, err := b.Slots(ctx)
	if err != nil {
		return res, fmt.Errorf("block %s: listing slots: %w", b.ID(), err)
	}
	if len(sources) != len(slots) {
		log.Warn("Source and slot counts differ; some items cannot be matched.",
			zap.Int("sources", len(sources)), zap.Int("slots", len(slots)))
	}
	log.Debug("Starting discovery.", zap.Int("sources", len(sources)), zap.Int("slots", len(slots)))

	for _, src := range sources {
		matched := false
		for _, slot := range slots {
			if res.Assignments.Claimed(slot) {
				continue
			}
			if d.onProbe != nil {
				d.onProbe(b.ID(), src, slot)
			}

			fb, err := d.probe(ctx, log, b, src, slot, res)
			if err != nil {
				return res, err
			}
			if fb == FeedbackCorrect {
				if err := res.Assignments.Assign(src, slot); err != nil {
					// Only reachable with duplicate labels on the page.
					log.Warn("Discarding correct read.", zap.Error(err))
				} else {
					matched = true
					log.Debug("Pair confirmed.", zap.String("source", src.Label), zap.String("slot", slot.ID))
				}
			}

			// Reset after every probe; the pair is already recorded.
			if err := b.Reset(ctx); err != nil {
				return res, fmt.Errorf("block %s: reset: %w", b.ID(), err)
			}
			if err := d.pause(ctx); err != nil {
				return res, err
			}
			if matched {
				break
			}
		}
		if !matched {
			res.Unmapped = append(res.Unmapped, src.Label)
			log.Warn("No slot read back as correct; leaving source unmapped.", zap.String("source", src.Label))
		}
	}
	return res, nil
}

// probe drags src onto slot, waits, and reads the slot's feedback,
// re-reading ambiguous values up to the configured retry count.
func (d *Discoverer) probe(ctx context.Context, log *zap.Logger, b Block, src Source, slot Slot, res *Result) (Feedback, error) {
	if err := b.Probe(ctx, src, slot); err != nil {
		return FeedbackNeutral, fmt.Errorf("block %s: drag %q onto %q: %w", b.ID(), src.Label, slot.ID, err)
	}
	res.Probes++
	if err := d.pause(ctx); err != nil {
		return FeedbackNeutral, err
	}

	for attempt := 0; ; attempt++ {
		fb, err := b.Feedback(ctx, slot)
		if err != nil {
			return FeedbackNeutral, fmt.Errorf("block %s: feedback for %q: %w", b.ID(), slot.ID, err)
		}
		if fb != FeedbackAmbiguous {
			return fb, nil
		}
		res.AmbiguousReads++
		if attempt >= d.ambiguousRetries {
			log.Warn("Unrecognized feedback treated as incorrect.",
				zap.String("source", src.Label), zap.String("slot", slot.ID), zap.Int("reads", attempt+1))
			return fb, nil
		}
		if err := d.pause(ctx); err != nil {
			return FeedbackNeutral, err
		}
	}
}

// Replay drags every pair of m onto the block once, pausing after each.
func (d *Discoverer) Replay(ctx context.Context, b Block, m *AssignmentMap) error {
	for _, p := range m.Pairs() {
		if err := b.Probe(ctx, p.Source, p.Slot); err != nil {
			return fmt.Errorf("block %s: replay %q onto %q: %w", b.ID(), p.Source.Label, p.Slot.ID, err)
		}
		if err := d.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Solve runs Discover and then Replay on one block. Failures are recorded in
// the returned Result as well as returned.
func (d *Discoverer) Solve(ctx context.Context, b Block) (*Result, error) {
	res, err := d.Discover(ctx, b)
	if err == nil {
		err = d.Replay(ctx, b, res.Assignments)
		res.Replayed = err == nil
	}
	res.Err = err

	log := d.logger.With(zap.String("block_id", b.ID()))
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		log.Info("Block processing cancelled.")
	case err != nil:
		log.Error("Block skipped.", zap.Error(err), zap.Int("probes", res.Probes))
	default:
		log.Info("Block solved.",
			zap.Int("matched", res.Assignments.Len()),
			zap.Strings("unmapped", res.Unmapped),
			zap.Int("probes", res.Probes),
			zap.Duration("elapsed", res.Duration))
	}
	return res, err
}

// SolveAll processes every block concurrently. A failing block never stops
// the others; results are returned in the order of blocks.
func (d *Discoverer) SolveAll(ctx context.Context, blocks []Block) []*Result {
	results := make([]*Result, len(blocks))
	var g errgroup.Group
	for i, b := range blocks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					results[i] = &Result{
						BlockID:     b.ID(),
						Assignments: NewAssignmentMap(),
						Err:         fmt.Errorf("block %s: panic: %v", b.ID(), r),
					}
					d.logger.Error("Block panicked.", zap.String("block_id", b.ID()), zap.Any("panic", r))
				}
			}()
			results[i], _ = d.Solve(ctx, b)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
