// Package dnd synthesizes HTML5 drag and drop inside a page. Pages that
// listen for drag events ignore CDP mouse input, so the drag is built from
// script-dispatched events instead.
package dnd

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

//go:embed simulator.js
var simulatorScript string

// Events is the order in which a simulated drag dispatches its events.
var Events = []string{"mousedown", "dragstart", "drag", "dragenter", "dragover", "drop", "dragend", "mouseup"}

// Evaluator runs JavaScript in a page.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, res interface{}) error
}

// Script returns the simulator source. Evaluating it twice is harmless.
func Script() string {
	return simulatorScript
}

// Simulator drags elements within one page.
type Simulator struct {
	eval Evaluator
}

// NewSimulator returns a Simulator that evaluates through eval.
func NewSimulator(eval Evaluator) *Simulator {
	return &Simulator{eval: eval}
}

// Install evaluates the simulator script in the current document.
func (s *Simulator) Install(ctx context.Context) error {
	if err := s.eval.Evaluate(ctx, simulatorScript, nil); err != nil {
		return fmt.Errorf("install drag simulator: %w", err)
	}
	return nil
}

// ByID returns an expression for the element with the given id. The id is
// passed as a JS string literal, so it needs no CSS escaping.
func ByID(id string) string {
	// Encoding a string cannot fail.
	quoted, _ := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(id)
	return fmt.Sprintf("document.getElementById(%s)", quoted)
}

// Expression builds the script that drags the element produced by
// sourceExpr onto the element produced by targetExpr.
func Expression(sourceExpr, targetExpr string) (string, error) {
	if strings.TrimSpace(sourceExpr) == "" {
		return "", fmt.Errorf("empty source expression")
	}
	if strings.TrimSpace(targetExpr) == "" {
		return "", fmt.Errorf("empty target expression")
	}
	return fmt.Sprintf("window.DndSimulator.simulate((%s), (%s))", sourceExpr, targetExpr), nil
}

// Drag dispatches the drag and returns without waiting for the page to
// react. The returned slice lists the events fired.
func (s *Simulator) Drag(ctx context.Context, sourceExpr, targetExpr string) ([]string, error) {
	expr, err := Expression(sourceExpr, targetExpr)
	if err != nil {
		return nil, err
	}
	var fired []string
	if err := s.eval.Evaluate(ctx, expr, &fired); err != nil {
		return nil, fmt.Errorf("simulate drag onto %s: %w", targetExpr, err)
	}
	return fired, nil
}
