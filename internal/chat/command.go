package chat

import "strings"

// Command is a shell directive typed in place of a message.
type Command int

const (
	// CommandNone means the input is a message for the model.
	CommandNone Command = iota
	CommandExit
	CommandHelp
	CommandClear
	CommandInfo
)

// ParseCommand recognizes exit, quit, help, clear and info, case-insensitively.
func ParseCommand(input string) Command {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return CommandExit
	case "help":
		return CommandHelp
	case "clear":
		return CommandClear
	case "info":
		return CommandInfo
	default:
		return CommandNone
	}
}

// HelpText lists the shell commands.
const HelpText = `Available commands:
  exit/quit  - Exit the chat
  help       - Show this help message
  clear      - Clear the screen
  info       - Show model information

Tips:
  - Coding mode: ask for code examples or debugging help
  - Math mode: ask for mathematical problem solving
  - Try: 'Explain this code:' or 'Solve this equation:'`
