package tui

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"phistack/internal/chat"
	"phistack/internal/logging"
)

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Run starts the full-screen shell when stdin and stdout are terminals,
// otherwise the line REPL.
func Run(ctx context.Context, session *chat.Session, state *UIStateManager, logger *logging.Logger, in *os.File, out io.Writer) error {
	outFile, outIsFile := out.(*os.File)
	if !IsInteractive(in) || !outIsFile || !IsInteractive(outFile) {
		if logger != nil {
			logger.Debug("tui.fallback", "Terminal not detected, using line mode", nil)
		}
		return RunREPL(ctx, session, in, out)
	}

	p := tea.NewProgram(NewModel(ctx, session, state, logger),
		tea.WithAltScreen(), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
