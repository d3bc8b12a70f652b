// Package automation runs the enabled behaviors against an open book
// section and collects their outcome.
package automation

import (
	"time"

	"github.com/xkilldash9x/zyclicker/internal/config"
)

// Behavior names as they appear in logs and reports.
const (
	BehaviorAnimations     = "animations"
	BehaviorDragAndDrop    = "drag_and_drop"
	BehaviorMultipleChoice = "multiple_choice"
	BehaviorShortAnswers   = "short_answers"
)

// Options selects what a run does.
type Options struct {
	Animations     bool
	DragAndDrop    bool
	MultipleChoice bool
	ShortAnswers   bool
	// Settle is the pause after every page action.
	Settle time.Duration
}

// OptionsFromConfig returns the configured defaults.
func OptionsFromConfig(cfg config.AutomationConfig) Options {
	return Options{
		Animations:     cfg.Animations,
		DragAndDrop:    cfg.DragAndDrop,
		MultipleChoice: cfg.MultipleChoice,
		ShortAnswers:   cfg.ShortAnswers,
		Settle:         cfg.Settle(),
	}
}

// Behaviors lists the enabled behaviors.
func (o Options) Behaviors() []string {
	var out []string
	if o.Animations {
		out = append(out, BehaviorAnimations)
	}
	if o.DragAndDrop {
		out = append(out, BehaviorDragAndDrop)
	}
	if o.MultipleChoice {
		out = append(out, BehaviorMultipleChoice)
	}
	if o.ShortAnswers {
		out = append(out, BehaviorShortAnswers)
	}
	return out
}
