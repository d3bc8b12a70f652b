package reporting

import (
	"time"

	"github.com/xkilldash9x/zyclicker/internal/matcher"
)

// Run is the record of one automation run.
type Run struct {
	RunID      string    `yaml:"run_id" json:"run_id"`
	URL        string    `yaml:"url,omitempty" json:"url,omitempty"`
	StartedAt  time.Time `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time `yaml:"finished_at" json:"finished_at"`
	Settle     string    `yaml:"settle" json:"settle"`
	Behaviors  []string  `yaml:"behaviors" json:"behaviors"`

	DragAndDrop    []Block     `yaml:"drag_and_drop,omitempty" json:"drag_and_drop,omitempty"`
	MultipleChoice []Question  `yaml:"multiple_choice,omitempty" json:"multiple_choice,omitempty"`
	ShortAnswers   []Question  `yaml:"short_answers,omitempty" json:"short_answers,omitempty"`
	Animations     *Animations `yaml:"animations,omitempty" json:"animations,omitempty"`
	Errors         []string    `yaml:"errors,omitempty" json:"errors,omitempty"`
}

// Block is the outcome of one drag-and-drop question.
type Block struct {
	ID             string            `yaml:"id" json:"id"`
	Assignments    map[string]string `yaml:"assignments" json:"assignments"`
	Unmapped       []string          `yaml:"unmapped,omitempty" json:"unmapped,omitempty"`
	Probes         int               `yaml:"probes" json:"probes"`
	AmbiguousReads int               `yaml:"ambiguous_reads,omitempty" json:"ambiguous_reads,omitempty"`
	Replayed       bool              `yaml:"replayed" json:"replayed"`
	Duration       string            `yaml:"duration" json:"duration"`
	Error          string            `yaml:"error,omitempty" json:"error,omitempty"`
}

// Question is the outcome of one multiple-choice or short-answer question.
type Question struct {
	ID       string `yaml:"id" json:"id"`
	Attempts int    `yaml:"attempts,omitempty" json:"attempts,omitempty"`
	Solved   bool   `yaml:"solved" json:"solved"`
	Error    string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Animations records what the animation toggler started with.
type Animations struct {
	SpeedToggled int `yaml:"speed_toggled" json:"speed_toggled"`
	Started      int `yaml:"started" json:"started"`
}

// BlockFromResult converts a matcher result for the report.
func BlockFromResult(res *matcher.Result) Block {
	b := Block{
		ID:             res.BlockID,
		Assignments:    map[string]string{},
		Unmapped:       res.Unmapped,
		Probes:         res.Probes,
		AmbiguousReads: res.AmbiguousReads,
		Replayed:       res.Replayed,
		Duration:       res.Duration.Round(time.Millisecond).String(),
	}
	if res.Assignments != nil {
		b.Assignments = res.Assignments.ToMap()
	}
	if res.Err != nil {
		b.Error = res.Err.Error()
	}
	return b
}

// Summary counts finished work in a run.
type Summary struct {
	Blocks, BlocksSolved      int
	Choices, ChoicesSolved    int
	Answers, AnswersSubmitted int
}

// Summarize tallies the run.
func (r *Run) Summarize() Summary {
	var s Summary
	s.Blocks = len(r.DragAndDrop)
	for _, b := range r.DragAndDrop {
		if b.Error == "" && b.Replayed && len(b.Unmapped) == 0 {
			s.BlocksSolved++
		}
	}
	s.Choices = len(r.MultipleChoice)
	for _, q := range r.MultipleChoice {
		if q.Solved {
			s.ChoicesSolved++
		}
	}
	s.Answers = len(r.ShortAnswers)
	for _, q := range r.ShortAnswers {
		if q.Solved {
			s.AnswersSubmitted++
		}
	}
	return s
}
