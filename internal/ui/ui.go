// Package ui provides the diagnostic sink and confirmation callback
// consumed by the orchestration operations. The interactive picker UI
// lives outside this tool; only line-oriented output belongs here.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Sink receives human-readable progress and summary output. All
// diagnostics go to the sink, never to stdout, so pattern listings
// stay machine-consumable.
type Sink interface {
	Divider()
	Heading(text string)
	Note(text string)
	LabelValue(label string, value any)
	Success(text string)
	Warn(text string)
}

// Confirmer asks the operator a yes/no question. defaultYes selects
// the answer taken on an empty reply.
type Confirmer func(prompt string, defaultYes bool) (bool, error)

// StderrSink writes diagnostics to a stream, stderr by default.
type StderrSink struct {
	W io.Writer
}

func NewStderrSink() *StderrSink {
	return &StderrSink{W: os.Stderr}
}

func (s *StderrSink) Divider() {
	fmt.Fprintln(s.W, strings.Repeat("─", 56))
}

func (s *StderrSink) Heading(text string) {
	fmt.Fprintln(s.W, text)
}

func (s *StderrSink) Note(text string) {
	fmt.Fprintln(s.W, text)
}

func (s *StderrSink) LabelValue(label string, value any) {
	fmt.Fprintf(s.W, "%s: %v\n", label, value)
}

func (s *StderrSink) Success(text string) {
	fmt.Fprintln(s.W, "✓ "+text)
}

func (s *StderrSink) Warn(text string) {
	fmt.Fprintln(s.W, "warning: "+text)
}

// TerminalConfirmer prompts on stderr and reads a reply from stdin.
// With autoYes every prompt is accepted without asking. A
// non-interactive stdin declines, so scripted runs must pass the
// bypass flag explicitly rather than hang.
func TerminalConfirmer(autoYes bool) Confirmer {
	return func(prompt string, defaultYes bool) (bool, error) {
		if autoYes {
			return true, nil
		}
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return false, nil
		}

		hint := "[y/N]"
		if defaultYes {
			hint = "[Y/n]"
		}
		fmt.Fprintf(os.Stderr, "%s %s ", prompt, hint)

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "":
			return defaultYes, nil
		default:
			return defaultYes, nil
		}
	}
}
