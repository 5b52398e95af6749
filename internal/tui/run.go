package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-remote/internal/gateway"
)

// Run starts the interactive list on the alternate screen and blocks until
// the user quits or ctx is cancelled. The console log sink is muted for the
// lifetime of the program.
func Run(ctx context.Context, remote gateway.Remote, opts Options) error {
	opts.Logger.SetConsoleEnabled(false)
	defer opts.Logger.SetConsoleEnabled(true)

	p := tea.NewProgram(New(remote, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
