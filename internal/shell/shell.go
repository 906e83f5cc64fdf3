// Package shell drives a calculator from line-oriented terminal input.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/i18n"
)

// Shell owns one calculator and renders its screen after every input line.
type Shell struct {
	calc *calculator.Calculator
	t    i18n.Translator
}

// New creates a shell with a fresh calculator.
func New(t i18n.Translator, opts ...calculator.Option) *Shell {
	return &Shell{calc: calculator.New(opts...), t: t}
}

// Calculator exposes the underlying calculator.
func (s *Shell) Calculator() *calculator.Calculator {
	return s.calc
}

// Screen renders the current display.
func (s *Shell) Screen() string {
	return handlers.Screen(s.calc, s.t)
}

// Eval applies one input line and returns the text to show. quit reports an
// exit request.
//
// A line is a list of words. Words naming a keypad action ("sqrt", "m+",
// "clear") run that action; anything else is typed key by key.
func (s *Shell) Eval(line string) (out string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return s.Screen(), false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return "", true
	case "help":
		return s.translate("shell.help", nil), false
	case "history":
		return s.history(), false
	case "recall":
		return s.recall(fields[1:]), false
	}

	var notices []string
	for _, field := range fields {
		notices = append(notices, s.apply(field)...)
	}

	return join(s.Screen(), dedupe(notices)), false
}

// Run reads lines from in until EOF, ctx cancellation or a quit command,
// passing each rendered result to render. Cancellation returns at once even
// while a read is blocked.
func (s *Shell) Run(ctx context.Context, in io.Reader, render func(string)) error {
	render(s.Screen())

	done := make(chan struct{})
	defer close(done)

	lines, readErr := readLines(in, done)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}

			out, quit := s.Eval(line)
			if quit {
				return nil
			}
			render(out)
		}
	}
}

// readLines scans in on its own goroutine until EOF or until done is closed.
// The error channel yields the scanner error once lines is closed.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return lines, readErr
}

func (s *Shell) apply(word string) []string {
	if len(word) > 1 {
		if mutation, err := handlers.KeypadMutation(strings.ToLower(word)); err == nil {
			return s.notice(mutation(s.calc))
		}
	}

	var result handlers.KeyResult
	_ = handlers.PressKeys(handlers.SplitKeys(word), &result)(s.calc)

	var notices []string
	if result.Locked {
		notices = append(notices, s.translate("error.locked", nil))
	}
	for _, key := range result.Unknown {
		notices = append(notices, s.translate("error.unknown_key", map[string]any{"Key": key}))
	}
	return notices
}

func (s *Shell) notice(err error) []string {
	if errors.Is(err, calculator.ErrLocked) {
		return []string{s.translate("error.locked", nil)}
	}
	return nil
}

func (s *Shell) history() string {
	entries := s.calc.History()
	if len(entries) == 0 {
		return s.translate("history.empty", nil)
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, s.translate("history.title", nil))
	for i, line := range s.calc.HistoryLines() {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, line))
	}
	return strings.Join(lines, "\n")
}

func (s *Shell) recall(args []string) string {
	position := 0
	if len(args) == 1 {
		position, _ = strconv.Atoi(args[0])
	}

	// history is listed from 1, RecallHistory counts from 0
	err := s.calc.RecallHistory(position - 1)
	switch {
	case errors.Is(err, calculator.ErrLocked):
		return join(s.Screen(), []string{s.translate("error.locked", nil)})
	case err != nil:
		return s.translate("history.not_found", nil)
	}

	return join(s.Screen(), []string{s.translate("history.recalled", map[string]any{"Value": s.calc.Display()})})
}

func (s *Shell) translate(key string, data map[string]any) string {
	if s.t == nil {
		return key
	}
	if data == nil {
		return s.t.T(key)
	}
	return s.t.Tf(key, data)
}

func join(screen string, notices []string) string {
	if len(notices) == 0 {
		return screen
	}
	return screen + "\n\n" + strings.Join(notices, "\n")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
