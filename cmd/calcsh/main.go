package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosuri/uilive"
	"github.com/mattn/go-isatty"

	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/i18n"
	"github.com/Proton-105/calc-bot/internal/shell"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "calcsh: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	translations, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	sh := shell.New(translations.Translator(i18n.DefaultLang), calculator.WithTimeLayout("15:04:05"))

	render := func(screen string) {
		fmt.Fprintln(os.Stdout, screen)
	}

	// On a terminal the screen is redrawn in place.
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		writer := uilive.New()
		writer.Start()
		defer writer.Stop()

		render = func(screen string) {
			fmt.Fprintln(writer, screen)
			writer.Flush()
		}
	}

	if err := sh.Run(ctx, os.Stdin, render); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
