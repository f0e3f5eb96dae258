package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jingkaihe/skillet/pkg/csi"
)

func TestNew(t *testing.T) {
	presenter := New()
	assert.NotNil(t, presenter)
	assert.Equal(t, os.Stdout, presenter.output)
	assert.Equal(t, os.Stderr, presenter.errorOutput)
	assert.False(t, presenter.quiet)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name         string
		noColor      string
		skilletColor string
		expected     ColorMode
	}{
		{"NO_COLOR set", "1", "always", ColorNever},
		{"SKILLET_COLOR always", "", "always", ColorAlways},
		{"SKILLET_COLOR force", "", "force", ColorAlways},
		{"SKILLET_COLOR never", "", "never", ColorNever},
		{"SKILLET_COLOR off", "", "off", ColorNever},
		{"SKILLET_COLOR auto", "", "auto", ColorAuto},
		{"default", "", "", ColorAuto},
		{"invalid", "", "rainbow", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("SKILLET_COLOR", tt.skilletColor)

			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func newBuffered() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var output, errorOutput bytes.Buffer
	return NewWithOptions(&output, &errorOutput, ColorNever), &output, &errorOutput
}

func TestError(t *testing.T) {
	presenter, output, errorOutput := newBuffered()

	err := errors.New("connection refused")
	presenter.Error(err, "calling dev host")
	assert.Equal(t, "[ERROR] calling dev host: connection refused\n", errorOutput.String())

	errorOutput.Reset()
	presenter.Error(err, "")
	assert.Equal(t, "[ERROR] connection refused\n", errorOutput.String())

	errorOutput.Reset()
	presenter.Error(nil, "context")
	assert.Empty(t, errorOutput.String())

	presenter.SetQuiet(true)
	presenter.Error(err, "")
	assert.NotEmpty(t, errorOutput.String())
	assert.Empty(t, output.String())
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name     string
		write    func(p *TerminalPresenter)
		expected string
	}{
		{"success", func(p *TerminalPresenter) { p.Success("generated skill_export.go") }, "✓ generated skill_export.go\n"},
		{"warning", func(p *TerminalPresenter) { p.Warning("no token set") }, "⚠ no token set\n"},
		{"info", func(p *TerminalPresenter) { p.Info("listening on :8081") }, "listening on :8081\n"},
		{"section", func(p *TerminalPresenter) { p.Section("Chunks") }, "Chunks\n------\n"},
		{"separator", func(p *TerminalPresenter) { p.Separator() }, strings.Repeat("-", 60) + "\n"},
		{
			"usage",
			func(p *TerminalPresenter) { p.Usage(csi.TokenUsage{Prompt: 12, Completion: 30}) },
			"[Usage Stats] Prompt tokens: 12 | Completion tokens: 30 | Total: 42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presenter, output, _ := newBuffered()
			tt.write(presenter)
			assert.Equal(t, tt.expected, output.String())

			output.Reset()
			presenter.SetQuiet(true)
			assert.True(t, presenter.IsQuiet())
			tt.write(presenter)
			assert.Empty(t, output.String())
		})
	}
}

func TestResultsIgnoreQuiet(t *testing.T) {
	presenter, output, _ := newBuffered()
	presenter.SetQuiet(true)

	presenter.Field("language", csi.LanguageDeu)
	presenter.List([]string{"123", "456"})

	assert.Equal(t, "language: deu\n1 123\n2 456\n", output.String())
}

func TestList_AlignsNumbers(t *testing.T) {
	presenter, output, _ := newBuffered()

	items := make([]string, 10)
	for i := range items {
		items[i] = "x"
	}
	presenter.List(items)

	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, " 1 x", lines[0])
	assert.Equal(t, "10 x", lines[9])
}
