package menu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/zyclicker/internal/config"
	"github.com/xkilldash9x/zyclicker/internal/testing/browsertest"
)

func TestMenu_InBrowser(t *testing.T) {
	f := browsertest.Setup(t)
	s := f.NewSession(t)

	cfg := config.NewDefaultConfig().Automation
	m := New(cfg, f.Logger)
	require.NoError(t, m.Install(f.Ctx, s))

	url := browsertest.ServeHTML(t, `<html><body><p>section</p></body></html>`)
	require.NoError(t, s.Navigate(f.Ctx, url))

	var present bool
	require.NoError(t, s.Evaluate(f.Ctx, `!!document.getElementById("zyclicker-menu")`, &present))
	require.True(t, present, "menu is injected into new documents")

	click := `(function () {
		var menu = document.getElementById("zyclicker-menu");
		menu.querySelectorAll("input[type=checkbox]")[0].checked = false;
		menu.querySelector("input[type=number]").value = "120";
		Array.from(menu.querySelectorAll("button")).find(function (b) { return b.textContent === "Start"; }).click();
	})()`
	require.NoError(t, s.Evaluate(f.Ctx, click, nil))

	select {
	case cmd := <-m.Commands():
		assert.Equal(t, ActionStart, cmd.Action)
		assert.False(t, cmd.Options.Animations)
		assert.True(t, cmd.Options.DragAndDrop)
		assert.Equal(t, 120*time.Millisecond, cmd.Options.Settle)
	case <-time.After(10 * time.Second):
		t.Fatal("no command from the page")
	}

	quit := `Array.from(document.querySelectorAll("#zyclicker-menu button")).find(function (b) { return b.textContent === "Quit ZyClicker"; }).click()`
	require.NoError(t, s.Evaluate(f.Ctx, quit, nil))
	select {
	case cmd := <-m.Commands():
		assert.Equal(t, ActionQuit, cmd.Action)
	case <-time.After(10 * time.Second):
		t.Fatal("no quit command")
	}
	require.NoError(t, s.Evaluate(f.Ctx, `!!document.getElementById("zyclicker-menu")`, &present))
	assert.False(t, present)
}
