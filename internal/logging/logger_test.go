package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/lindenmaker/pkg/ast"
	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
)

func TestErrorKeyRenamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo)

	logger.Error("failed", "error", errors.New("boom"))

	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "error=")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() { NewNop().Error("nothing", "k", 1) })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := Hooks(NewWithWriter(&buf, slog.LevelDebug))

	hooks.OnCommand(ast.Command{Kind: ast.KindDraw, Raw: "F(2)", Pos: 3}, nil)
	assert.Contains(t, buf.String(), "kind=DRAW")
	assert.Contains(t, buf.String(), "raw=F(2)")
	assert.Contains(t, buf.String(), "pos=3")

	buf.Reset()
	hooks.OnFinish(&runtime.Result{Commands: 5, Skipped: 1}, nil)
	assert.Contains(t, buf.String(), "interpretation finished")
	assert.Contains(t, buf.String(), "commands=5")

	buf.Reset()
	hooks.OnFinish(&runtime.Result{Commands: 2}, errors.New("pop on empty branch stack"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `err="pop on empty branch stack"`)
}

func TestHooksDrivenByInterpreter(t *testing.T) {
	var buf bytes.Buffer
	_, _, err := runtime.DryRun("F+F", runtime.DefaultOptions(), 0, Hooks(NewWithWriter(&buf, slog.LevelDebug)))
	require.NoError(t, err)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("msg=command")))
	assert.Contains(t, buf.String(), "interpretation finished")
}
