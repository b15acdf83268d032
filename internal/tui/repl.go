package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"phistack/internal/chat"
)

// RunREPL drives session from a line-oriented reader. It returns on exit,
// EOF or context cancellation. Generation errors are printed and the loop continues.
func RunREPL(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type 'exit' to quit, 'help' for commands, or start chatting!")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch chat.ParseCommand(input) {
		case chat.CommandExit:
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case chat.CommandHelp:
			fmt.Fprintf(out, "\n%s\n\n", chat.HelpText)
			continue
		case chat.CommandClear:
			fmt.Fprint(out, "\x1b[2J\x1b[1;1H")
			continue
		case chat.CommandInfo:
			fmt.Fprintf(out, "\n%s\n", session.Variant().Describe())
			continue
		}

		reply, err := session.Send(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "Phi: %s\n\n", reply)
	}
}
