// Package menu injects the floating control menu into the page and turns
// its clicks into commands.
package menu

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zyclicker/internal/automation"
	"github.com/xkilldash9x/zyclicker/internal/config"
)

// BindingName is the page function the menu calls.
const BindingName = "zyclickerMenu"

// ConfigPlaceholder is replaced in the menu template with its JSON config.
const ConfigPlaceholder = "/*{{ZYCLICKER_MENU_CONFIG}}*/"

//go:embed menu.js
var menuTemplate string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Labels of the menu checkboxes, in payload order.
var Labels = []string{"Animations", "Drag-and-Drops", "Multiple Choice", "Short Answers"}

// Action is a menu button.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
	ActionQuit  Action = "quit"
)

// ErrInvalidCommand is returned for payloads the menu could not have sent.
var ErrInvalidCommand = errors.New("menu: invalid command")

// Command is one menu click.
type Command struct {
	Action  Action
	Options automation.Options
	// SleepFallback is set when the sleep field was unusable and the
	// default settle duration was used instead.
	SleepFallback bool
}

type payload struct {
	Action  string   `json:"action"`
	Options []bool   `json:"options"`
	Sleep   *float64 `json:"sleep"`
}

// Decode parses a binding payload. A missing, negative or fractional sleep
// falls back to defaultSettle.
func Decode(raw string, defaultSettle time.Duration) (Command, error) {
	var p payload
	if err := json.UnmarshalFromString(raw, &p); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	cmd := Command{Action: Action(p.Action)}
	switch cmd.Action {
	case ActionStart, ActionStop, ActionQuit:
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, p.Action)
	}
	if len(p.Options) != len(Labels) {
		return Command{}, fmt.Errorf("%w: want %d options, got %d", ErrInvalidCommand, len(Labels), len(p.Options))
	}

	cmd.Options = automation.Options{
		Animations:     p.Options[0],
		DragAndDrop:    p.Options[1],
		MultipleChoice: p.Options[2],
		ShortAnswers:   p.Options[3],
		Settle:         defaultSettle,
	}
	if p.Sleep == nil || *p.Sleep < 0 || *p.Sleep != math.Trunc(*p.Sleep) || *p.Sleep > math.MaxInt32 {
		cmd.SleepFallback = true
	} else {
		cmd.Options.Settle = time.Duration(*p.Sleep) * time.Millisecond
	}
	return cmd, nil
}

type scriptConfig struct {
	Binding string   `json:"binding"`
	Labels  []string `json:"labels"`
	Options []bool   `json:"options"`
	Sleep   int      `json:"sleep"`
}

// BuildScript renders the menu with the configured defaults.
func BuildScript(cfg config.AutomationConfig) (string, error) {
	if !strings.Contains(menuTemplate, ConfigPlaceholder) {
		return "", fmt.Errorf("menu template does not contain the required placeholder: %s", ConfigPlaceholder)
	}
	b, err := json.Marshal(scriptConfig{
		Binding: BindingName,
		Labels:  Labels,
		Options: []bool{cfg.Animations, cfg.DragAndDrop, cfg.MultipleChoice, cfg.ShortAnswers},
		Sleep:   cfg.SettleMs,
	})
	if err != nil {
		return "", err
	}
	return strings.Replace(menuTemplate, ConfigPlaceholder, string(b), 1), nil
}

// Surface is where the menu lives.
type Surface interface {
	InjectScript(ctx context.Context, script string) error
	Bind(ctx context.Context, name string, handler func(payload string)) error
}

// Menu delivers commands from the page menu.
type Menu struct {
	cfg      config.AutomationConfig
	logger   *zap.Logger
	commands chan Command
}

// New returns a Menu. Commands are buffered; clicks that arrive while the
// buffer is full are dropped.
func New(cfg config.AutomationConfig, logger *zap.Logger) *Menu {
	return &Menu{
		cfg:      cfg,
		logger:   logger.Named("menu"),
		commands: make(chan Command, 8),
	}
}

// Install binds the controller and injects the menu into the current and
// every future document.
func (m *Menu) Install(ctx context.Context, s Surface) error {
	script, err := BuildScript(m.cfg)
	if err != nil {
		return err
	}
	if err := s.Bind(ctx, BindingName, m.handle); err != nil {
		return fmt.Errorf("failed to bind menu: %w", err)
	}
	if err := s.InjectScript(ctx, script); err != nil {
		return fmt.Errorf("failed to inject menu: %w", err)
	}
	m.logger.Info("Menu installed.")
	return nil
}

// Commands returns the command stream.
func (m *Menu) Commands() <-chan Command {
	return m.commands
}

// handle runs on the CDP event goroutine and must not block.
func (m *Menu) handle(raw string) {
	cmd, err := Decode(raw, m.cfg.Settle())
	if err != nil {
		m.logger.Warn("Ignoring menu payload.", zap.Error(err))
		return
	}
	if cmd.SleepFallback {
		m.logger.Warn("Invalid sleep time, using the default.", zap.Duration("settle", cmd.Options.Settle))
	}
	select {
	case m.commands <- cmd:
		m.logger.Debug("Menu command received.", zap.String("action", string(cmd.Action)))
	default:
		m.logger.Warn("Menu command dropped, controller is busy.", zap.String("action", string(cmd.Action)))
	}
}
