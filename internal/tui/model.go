package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"phistack/internal/chat"
	"phistack/internal/logging"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputHeight   = 3
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// replyMsg carries the outcome of an async Send.
type replyMsg struct {
	input string
	reply string
	err   error
}

// Model is the bubbletea chat shell.
type Model struct {
	ctx     context.Context
	session *chat.Session
	logger  *logging.Logger
	state   *UIStateManager

	input    textinput.Model
	view     viewport.Model
	spinner  spinner.Model
	entries  []Entry
	waiting  bool
	quitting bool

	// exchanges counts completed turns. It is kept here because the session
	// is written by the send goroutine while a reply is pending.
	exchanges int

	lastError string
	startTime time.Time
}

// NewModel creates a chat model. state may be nil to skip persistence.
func NewModel(ctx context.Context, session *chat.Session, state *UIStateManager, logger *logging.Logger) Model {
	if logger == nil {
		logger = logging.Discard()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask Phi something, or type help"
	ti.Prompt = "You: "
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		session:   session,
		logger:    logger,
		state:     state,
		input:     ti,
		view:      viewport.New(defaultWidth, defaultHeight-inputHeight-1),
		spinner:   sp,
		exchanges: len(session.History()),
		startTime: time.Now(),
	}
	m.entries = append(m.entries, Entry{Role: RoleSystem, Text: "Type 'exit' to quit, 'help' for commands, or start chatting!"})
	m.refreshView()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses, resizes and replies.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = msg.Height - inputHeight - 1
		if m.view.Height < 1 {
			m.view.Height = 1
		}
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		m.refreshView()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()
		case tea.KeyEnter:
			return m.submit()
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.lastError = msg.err.Error()
			m.entries = append(m.entries, Entry{Role: RoleError, Text: msg.err.Error()})
			m.logger.Warn("tui.reply.failed", "Generation failed", map[string]interface{}{
				"error": msg.err.Error(),
			})
		} else {
			m.exchanges++
			m.entries = append(m.entries, Entry{Role: RoleAssistant, Text: msg.reply})
		}
		m.refreshView()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view, cmd = m.view.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	switch chat.ParseCommand(text) {
	case chat.CommandExit:
		return m.quit()
	case chat.CommandHelp:
		m.entries = append(m.entries, Entry{Role: RoleSystem, Text: chat.HelpText})
	case chat.CommandClear:
		m.entries = nil
	case chat.CommandInfo:
		m.entries = append(m.entries, Entry{Role: RoleSystem, Text: m.session.Variant().Describe()})
	default:
		m.entries = append(m.entries, Entry{Role: RoleUser, Text: text})
		m.waiting = true
		m.refreshView()
		return m, tea.Batch(m.send(text), m.spinner.Tick)
	}
	m.refreshView()
	return m, nil
}

func (m Model) send(input string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		reply, err := session.Send(ctx, input)
		return replyMsg{input: input, reply: reply, err: err}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.saveState()
	return m, tea.Quit
}

func (m *Model) saveState() {
	if m.state == nil {
		return
	}
	st := &UIState{
		Variant:   m.session.Variant().ID,
		Exchanges: m.exchanges,
		LastError: m.lastError,
	}
	if err := m.state.Save(st); err != nil {
		m.logger.Warn("tui.state.save_failed", "Failed to save UI state", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (m *Model) refreshView() {
	m.view.SetContent(renderEntries(m.entries, m.view.Width))
	m.view.GotoBottom()
}

func renderEntries(entries []Entry, width int) string {
	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	var b strings.Builder
	for _, e := range entries {
		switch e.Role {
		case RoleUser:
			b.WriteString(wrap.Render(userStyle.Render("You: ") + e.Text))
		case RoleAssistant:
			b.WriteString(wrap.Render(assistantStyle.Render("Phi: ") + e.Text))
		case RoleError:
			b.WriteString(wrap.Render(errorStyle.Render("Error: " + e.Text)))
		default:
			b.WriteString(wrap.Render(systemStyle.Render(e.Text)))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// View renders the header, transcript and prompt.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.session.Variant()
	header := titleStyle.Render(fmt.Sprintf("phistack chat: %s", v.DisplayName))

	footer := m.input.View()
	if m.waiting {
		footer = m.spinner.View() + " thinking..."
	}
	return header + "\n" + m.view.View() + "\n" + footer
}

// Entries returns the transcript shown on screen.
func (m Model) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}
