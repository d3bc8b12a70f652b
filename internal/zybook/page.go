// Package zybook adapts zyBooks participation activities to the
// capability interfaces of the matcher and automation packages.
package zybook

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zyclicker/internal/automation"
	"github.com/xkilldash9x/zyclicker/internal/browser/dnd"
	"github.com/xkilldash9x/zyclicker/internal/matcher"
)

//go:embed zybook.js
var helperScript string

// ErrStructure is returned when the page does not have the shape the
// helpers expect.
var ErrStructure = errors.New("zybook: unexpected page structure")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Evaluator runs JavaScript in a page.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, res interface{}) error
}

// Page is an open zyBooks section.
type Page struct {
	eval   Evaluator
	sim    *dnd.Simulator
	logger *zap.Logger
}

var _ automation.Page = (*Page)(nil)

// NewPage returns a Page that drives the section through eval.
func NewPage(eval Evaluator, logger *zap.Logger) *Page {
	return &Page{
		eval:   eval,
		sim:    dnd.NewSimulator(eval),
		logger: logger.Named("zybook"),
	}
}

// Install loads the drag simulator and the page helpers into the current
// document. Both guard against double installation.
func (p *Page) Install(ctx context.Context) error {
	if err := p.sim.Install(ctx); err != nil {
		return err
	}
	if err := p.eval.Evaluate(ctx, helperScript, nil); err != nil {
		return fmt.Errorf("install page helpers: %w", err)
	}
	return nil
}

// expr renders a call to a page helper with JSON-encoded arguments.
func expr(fn string, args ...interface{}) (string, error) {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode argument %d of %s: %w", i, fn, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("window.__zyclicker.%s(%s)", fn, strings.Join(encoded, ", ")), nil
}

func (p *Page) call(ctx context.Context, res interface{}, fn string, args ...interface{}) error {
	e, err := expr(fn, args...)
	if err != nil {
		return err
	}
	return classify(ctx, fn, p.eval.Evaluate(ctx, e, res))
}

// classify separates exceptions thrown by the helpers, which mean the page
// has an unexpected shape, from transport and context errors.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exc *cdpruntime.ExceptionDetails
	if errors.As(err, &exc) {
		return fmt.Errorf("%s: %w: %v", op, ErrStructure, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DragDropBlocks lists the drag-and-drop questions on the page.
func (p *Page) DragDropBlocks(ctx context.Context) ([]matcher.Block, error) {
	var ids []string
	if err := p.call(ctx, &ids, "dnd.blocks"); err != nil {
		return nil, err
	}
	blocks := make([]matcher.Block, len(ids))
	for i, id := range ids {
		blocks[i] = &DragDropBlock{page: p, index: i, id: id}
	}
	return blocks, nil
}

// ChoiceQuestions lists the multiple-choice questions on the page.
func (p *Page) ChoiceQuestions(ctx context.Context) ([]automation.ChoiceQuestion, error) {
	var ids []string
	if err := p.call(ctx, &ids, "mc.questions"); err != nil {
		return nil, err
	}
	qs := make([]automation.ChoiceQuestion, len(ids))
	for i, id := range ids {
		qs[i] = &ChoiceQuestion{page: p, index: i, id: id}
	}
	return qs, nil
}

// TextQuestions lists the short-answer questions on the page.
func (p *Page) TextQuestions(ctx context.Context) ([]automation.TextQuestion, error) {
	var ids []string
	if err := p.call(ctx, &ids, "sa.questions"); err != nil {
		return nil, err
	}
	qs := make([]automation.TextQuestion, len(ids))
	for i, id := range ids {
		qs[i] = &TextQuestion{page: p, index: i, id: id}
	}
	return qs, nil
}

// Animations returns the page's animation controls.
func (p *Page) Animations() automation.Animations {
	return animations{page: p}
}
