// Package presenter writes user-facing output of the skillet CLI: status
// messages, results of calls against a dev host and their token usage.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/jingkaihe/skillet/pkg/csi"
)

// Presenter is the output surface of the CLI
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Field(name string, value any)
	List(items []string)
	Usage(usage csi.TokenUsage)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode selects whether output is colored
type ColorMode int

const (
	// ColorAuto lets the color package decide from the terminal
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// TerminalPresenter writes to a terminal. Results and status go to output,
// errors go to errorOutput. Quiet mode suppresses everything except errors
// and results.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

// New creates a presenter on stdout and stderr
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a presenter on the given writers
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SKILLET_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error writes err to the error output
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section writes an underlined header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Field writes a labelled result. Results are written in quiet mode too.
func (p *TerminalPresenter) Field(name string, value any) {
	color.New(color.FgCyan).Fprintf(p.output, "%s: ", name)
	fmt.Fprintf(p.output, "%v\n", value)
}

// List writes numbered items, one per line
func (p *TerminalPresenter) List(items []string) {
	width := len(fmt.Sprint(len(items)))
	for i, item := range items {
		color.New(color.Faint).Fprintf(p.output, "%*d ", width, i+1)
		fmt.Fprintf(p.output, "%s\n", item)
	}
}

// Usage writes the token usage of a completion or chat response
func (p *TerminalPresenter) Usage(usage csi.TokenUsage) {
	if p.quiet {
		return
	}

	total := usage.Prompt + usage.Completion
	color.New(color.FgCyan, color.Bold).Fprintf(p.output, "[Usage Stats] Prompt tokens: %d | Completion tokens: %d | Total: %d\n",
		usage.Prompt, usage.Completion, total)
}

func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter = New()

// Default returns the presenter used by the package level functions
func Default() Presenter {
	return defaultPresenter
}

func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

func Success(message string) {
	defaultPresenter.Success(message)
}

func Warning(message string) {
	defaultPresenter.Warning(message)
}

func Info(message string) {
	defaultPresenter.Info(message)
}

func Section(title string) {
	defaultPresenter.Section(title)
}

func Field(name string, value any) {
	defaultPresenter.Field(name, value)
}

func List(items []string) {
	defaultPresenter.List(items)
}

func Usage(usage csi.TokenUsage) {
	defaultPresenter.Usage(usage)
}

func Separator() {
	defaultPresenter.Separator()
}

func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
