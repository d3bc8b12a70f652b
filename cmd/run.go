package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zyclicker/internal/automation"
	"github.com/xkilldash9x/zyclicker/internal/browser"
	"github.com/xkilldash9x/zyclicker/internal/config"
	"github.com/xkilldash9x/zyclicker/internal/menu"
	"github.com/xkilldash9x/zyclicker/internal/observability"
	"github.com/xkilldash9x/zyclicker/internal/reporting"
	"github.com/xkilldash9x/zyclicker/internal/zybook"
)

const shutdownTimeout = 10 * time.Second

// errTabClosed is returned when the controlled tab goes away under us.
var errTabClosed = errors.New("browser tab closed")

func newRunCmd() *cobra.Command {
	var auto bool

	runCmd := &cobra.Command{
		Use:   "run [url]",
		Short: "Open a browser and complete participation activities",
		Long: `Opens a controlled browser, optionally navigating to a zyBooks section.

Without --auto a floating "ZyClicker Menu" is added to every page; pick the
activities and press Start. With --auto the enabled activities run once on
the given section, and the command exits when they and any animations finish.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if auto && len(args) == 0 {
				return fmt.Errorf("--auto requires a section url")
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			var url string
			if len(args) == 1 {
				url = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, url, auto)
		},
	}

	flags := runCmd.Flags()
	flags.BoolVar(&auto, "auto", false, "run the enabled activities once without the menu")
	flags.Bool("headless", false, "run the browser without a window")
	flags.Int("settle", config.DefaultSettleMs, "pause after every page action, in milliseconds")
	flags.Bool("animations", true, "play animations")
	flags.Bool("drag-and-drop", true, "solve drag-and-drop questions")
	flags.Bool("multiple-choice", true, "answer multiple-choice questions")
	flags.Bool("short-answers", true, "fill short-answer questions")
	flags.Int("ambiguous-retries", 0, "re-reads of an unrecognized drag-and-drop indicator")
	flags.String("report", "", "append run reports to this file (\"stdout\" for standard output)")

	bindFlagToKey(runCmd, "headless", "browser.headless")
	bindFlagToKey(runCmd, "settle", "automation.settle_ms")
	bindFlagToKey(runCmd, "animations", "automation.animations")
	bindFlagToKey(runCmd, "drag-and-drop", "automation.drag_and_drop")
	bindFlagToKey(runCmd, "multiple-choice", "automation.multiple_choice")
	bindFlagToKey(runCmd, "short-answers", "automation.short_answers")
	bindFlagToKey(runCmd, "ambiguous-retries", "matcher.ambiguous_retries")
	bindFlagToKey(runCmd, "report", "report.path")
	return runCmd
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, url string, auto bool) error {
	logger := observability.GetLogger()

	mgr, err := browser.NewManager(ctx, logger, cfg.Browser)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mgr.Shutdown(shutdownCtx)
	}()

	session, err := mgr.NewSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	if url != "" {
		if err := session.Navigate(ctx, url); err != nil {
			return err
		}
	}

	var reporter reporting.Reporter
	if cfg.Report.Path != "" {
		reporter, err = reporting.New(cfg.Report.Format, cfg.Report.Path)
		if err != nil {
			return err
		}
		defer reporter.Close()
	}

	c := &controller{
		runner:   automation.NewRunner(zybook.NewPage(session, logger), cfg, logger),
		reporter: reporter,
		out:      out,
		url:      url,
		logger:   logger.Named("controller"),

		animationTimeout: cfg.Automation.AnimationTimeout,
	}

	if auto {
		return c.runOnce(ctx, automation.OptionsFromConfig(cfg.Automation))
	}

	m := menu.New(cfg.Automation, logger)
	if err := m.Install(ctx, session); err != nil {
		return err
	}
	fmt.Fprintln(out, "ZyClicker menu ready in the browser window. Press Ctrl+C to exit.")
	return c.serveMenu(ctx, m.Commands(), session.Done())
}

// controller turns menu commands into runs.
type controller struct {
	runner   *automation.Runner
	reporter reporting.Reporter
	out      io.Writer
	url      string
	logger   *zap.Logger

	// animationTimeout bounds how long runOnce lets animations play.
	// Menu-driven loops run until Stop.
	animationTimeout time.Duration
}

type runOutcome struct {
	run *reporting.Run
	err error
}

// runOnce performs one run and then lets the animations it started play
// for at most animationTimeout.
func (c *controller) runOnce(ctx context.Context, opts automation.Options) error {
	report, err := c.runner.Run(ctx, opts)
	c.finish(report, err)
	if err != nil {
		return err
	}
	if c.runner.AnimationsRunning() {
		fmt.Fprintln(c.out, "Playing animations. Press Ctrl+C to stop.")
		waitCtx := ctx
		if c.animationTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, c.animationTimeout)
			defer cancel()
		}
		c.runner.WaitAnimations(waitCtx)
	}
	c.runner.StopAnimations()
	return nil
}

// serveMenu handles menu commands until Quit, the tab closes, or ctx ends.
// At most one run is in flight; Start while running is ignored.
func (c *controller) serveMenu(ctx context.Context, commands <-chan menu.Command, tabDone <-chan struct{}) error {
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()
	defer c.runner.StopAnimations()

	outcomes := make(chan runOutcome, 1)
	running := false
	drain := func() {
		cancelRuns()
		if running {
			c.finishOutcome(<-outcomes)
			running = false
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			return nil
		case <-tabDone:
			drain()
			return errTabClosed
		case o := <-outcomes:
			running = false
			c.finishOutcome(o)
		case cmd := <-commands:
			switch cmd.Action {
			case menu.ActionStart:
				if running {
					c.logger.Warn("A run is already in progress, ignoring Start.")
					continue
				}
				running = true
				go func(opts automation.Options) {
					report, err := c.runner.Run(runCtx, opts)
					outcomes <- runOutcome{run: report, err: err}
				}(cmd.Options)
			case menu.ActionStop:
				if c.runner.StopAnimations() {
					c.logger.Info("Animations stopped from the menu.")
				}
			case menu.ActionQuit:
				c.logger.Info("Quit requested from the menu.")
				drain()
				return nil
			}
		}
	}
}

func (c *controller) finishOutcome(o runOutcome) {
	c.finish(o.run, o.err)
}

// finish reports a completed run.
func (c *controller) finish(report *reporting.Run, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("Run failed.", zap.Error(err))
	}
	if report == nil {
		return
	}
	report.URL = c.url
	s := report.Summarize()
	fmt.Fprintf(c.out, "Run %s: drag-and-drop %d/%d, multiple choice %d/%d, short answers %d/%d\n",
		shortID(report.RunID), s.BlocksSolved, s.Blocks, s.ChoicesSolved, s.Choices, s.AnswersSubmitted, s.Answers)
	if c.reporter != nil {
		if werr := c.reporter.Write(report); werr != nil {
			c.logger.Error("Failed to write run report.", zap.Error(werr))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
