package menu

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/zyclicker/internal/automation"
	"github.com/xkilldash9x/zyclicker/internal/config"
)

func TestDecode(t *testing.T) {
	const def = 400 * time.Millisecond

	t.Run("start with options", func(t *testing.T) {
		cmd, err := Decode(`{"action":"start","options":[true,false,true,false],"sleep":250}`, def)
		require.NoError(t, err)
		assert.Equal(t, Command{
			Action: ActionStart,
			Options: automation.Options{
				Animations:     true,
				MultipleChoice: true,
				Settle:         250 * time.Millisecond,
			},
		}, cmd)
	})

	t.Run("zero sleep is allowed", func(t *testing.T) {
		cmd, err := Decode(`{"action":"start","options":[true,true,true,true],"sleep":0}`, def)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), cmd.Options.Settle)
		assert.False(t, cmd.SleepFallback)
	})

	for name, raw := range map[string]string{
		"missing":    `{"action":"stop","options":[true,true,true,true]}`,
		"null":       `{"action":"stop","options":[true,true,true,true],"sleep":null}`,
		"negative":   `{"action":"stop","options":[true,true,true,true],"sleep":-5}`,
		"fractional": `{"action":"stop","options":[true,true,true,true],"sleep":2.5}`,
	} {
		t.Run("sleep "+name+" falls back", func(t *testing.T) {
			cmd, err := Decode(raw, def)
			require.NoError(t, err)
			assert.Equal(t, ActionStop, cmd.Action)
			assert.Equal(t, def, cmd.Options.Settle)
			assert.True(t, cmd.SleepFallback)
		})
	}

	for name, raw := range map[string]string{
		"not json":       `start`,
		"unknown action": `{"action":"pause","options":[true,true,true,true],"sleep":1}`,
		"short options":  `{"action":"start","options":[true],"sleep":1}`,
		"string sleep":   `{"action":"start","options":[true,true,true,true],"sleep":"fast"}`,
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := Decode(raw, def)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}

func TestBuildScript(t *testing.T) {
	script, err := BuildScript(config.AutomationConfig{Animations: true, ShortAnswers: true, SettleMs: 300})
	require.NoError(t, err)
	assert.NotContains(t, script, ConfigPlaceholder)
	assert.Contains(t, script,
		`{"binding":"zyclickerMenu","labels":["Animations","Drag-and-Drops","Multiple Choice","Short Answers"],"options":[true,false,false,true],"sleep":300}`)
}

type fakeSurface struct {
	bound   map[string]func(string)
	scripts []string
	bindErr error
	order   []string
}

func (f *fakeSurface) InjectScript(ctx context.Context, script string) error {
	f.order = append(f.order, "inject")
	f.scripts = append(f.scripts, script)
	return nil
}

func (f *fakeSurface) Bind(ctx context.Context, name string, handler func(string)) error {
	f.order = append(f.order, "bind")
	if f.bindErr != nil {
		return f.bindErr
	}
	if f.bound == nil {
		f.bound = map[string]func(string){}
	}
	f.bound[name] = handler
	return nil
}

func TestMenu_Install(t *testing.T) {
	cfg := config.NewDefaultConfig().Automation
	m := New(cfg, zaptest.NewLogger(t))
	s := &fakeSurface{}

	require.NoError(t, m.Install(context.Background(), s))
	assert.Equal(t, []string{"bind", "inject"}, s.order, "the binding exists before the menu can call it")
	require.Len(t, s.scripts, 1)
	assert.True(t, strings.Contains(s.scripts[0], `"sleep":400`))

	s.bound[BindingName](`{"action":"quit","options":[true,true,true,true],"sleep":400}`)
	select {
	case cmd := <-m.Commands():
		assert.Equal(t, ActionQuit, cmd.Action)
	default:
		t.Fatal("expected a command")
	}

	t.Run("bind failure", func(t *testing.T) {
		boom := errors.New("target closed")
		err := New(cfg, zaptest.NewLogger(t)).Install(context.Background(), &fakeSurface{bindErr: boom})
		assert.ErrorIs(t, err, boom)
	})
}

func TestMenu_HandleNeverBlocks(t *testing.T) {
	m := New(config.NewDefaultConfig().Automation, zaptest.NewLogger(t))
	payload := `{"action":"stop","options":[true,true,true,true],"sleep":1}`

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(m.commands)+5; i++ {
			m.handle(payload)
		}
		m.handle(`garbage`)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handle blocked")
	}
	assert.Len(t, m.commands, cap(m.commands))
}
