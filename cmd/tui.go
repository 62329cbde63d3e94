package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive duplicate review.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	scorer, err := scorerFlag(cmd)
	if err != nil {
		return err
	}

	if r.library == nil {
		fileLogger, err := shared.NewFileLogger("./tmp/songbook-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		fileLogger.SetLevel(r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}
	if err := r.open(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.library, r.library.LoosePolicy(), scorer)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
