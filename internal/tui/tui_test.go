package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"phistack/internal/catalog"
	"phistack/internal/chat"
	"phistack/internal/logging"
)

var testVariant = catalog.ModelVariant{ID: "phi3", DisplayName: "Phi-3 Mini", Repo: "microsoft/phi3", ParamsBillions: 3.8, ContextLength: 4096}

func echoSession() *chat.Session {
	gen := chat.GeneratorFunc(func(_ context.Context, prompt string, _ int, _ float32) (string, error) {
		return "echo", nil
	})
	return chat.NewSession(chat.Options{Variant: testVariant, Generator: gen})
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	model, ok := next.(Model)
	if !ok {
		t.Fatal("expected Model from Update")
	}
	return model, cmd
}

func TestModelSendAndReply(t *testing.T) {
	m := NewModel(context.Background(), echoSession(), nil, logging.Discard())

	m = typeText(t, m, "hello")
	m, cmd := press(t, m, tea.KeyEnter)
	if !m.waiting {
		t.Fatal("expected waiting after submit")
	}
	if cmd == nil {
		t.Fatal("expected a command to send the message")
	}

	next, _ := m.Update(replyMsg{input: "hello", reply: "echo"})
	m = next.(Model)
	if m.waiting {
		t.Error("waiting should clear after reply")
	}

	entries := m.Entries()
	last := entries[len(entries)-1]
	if last.Role != RoleAssistant || last.Text != "echo" {
		t.Errorf("last entry = %+v", last)
	}
	if prev := entries[len(entries)-2]; prev.Role != RoleUser || prev.Text != "hello" {
		t.Errorf("user entry = %+v", prev)
	}
}

func TestModelReplyError(t *testing.T) {
	m := NewModel(context.Background(), echoSession(), nil, nil)
	next, _ := m.Update(replyMsg{err: errors.New("engine down")})
	m = next.(Model)

	last := m.Entries()[len(m.Entries())-1]
	if last.Role != RoleError || m.lastError != "engine down" {
		t.Errorf("unexpected state %+v / %q", last, m.lastError)
	}
}

func TestModelCommands(t *testing.T) {
	m := NewModel(context.Background(), echoSession(), nil, nil)

	m = typeText(t, m, "info")
	m, _ = press(t, m, tea.KeyEnter)
	last := m.Entries()[len(m.Entries())-1]
	if last.Role != RoleSystem || !strings.Contains(last.Text, "Phi-3 Mini") {
		t.Errorf("info entry = %+v", last)
	}

	m = typeText(t, m, "help")
	m, _ = press(t, m, tea.KeyEnter)
	if !strings.Contains(m.Entries()[len(m.Entries())-1].Text, "exit/quit") {
		t.Error("help text missing")
	}

	m = typeText(t, m, "clear")
	m, _ = press(t, m, tea.KeyEnter)
	if len(m.Entries()) != 0 {
		t.Errorf("clear left %d entries", len(m.Entries()))
	}
}

func TestModelExitSavesState(t *testing.T) {
	dir := t.TempDir()
	state := NewUIStateManager(dir, nil)
	m := NewModel(context.Background(), echoSession(), state, nil)

	m = typeText(t, m, "quit")
	m, cmd := press(t, m, tea.KeyEnter)
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}

	saved, err := state.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Variant != "phi3" || saved.Updated.IsZero() {
		t.Errorf("saved state = %+v", saved)
	}
}

func TestModelQuitWhileWaitingLeavesSessionAlone(t *testing.T) {
	release := make(chan struct{})
	gen := chat.GeneratorFunc(func(ctx context.Context, _ string, _ int, _ float32) (string, error) {
		select {
		case <-release:
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	session := chat.NewSession(chat.Options{Variant: testVariant, Generator: gen})
	state := NewUIStateManager(t.TempDir(), nil)
	m := NewModel(context.Background(), session, state, nil)

	m = typeText(t, m, "hello")
	m, _ = press(t, m, tea.KeyEnter)
	if !m.waiting {
		t.Fatal("expected waiting after submit")
	}

	done := make(chan tea.Msg, 1)
	sendCmd := m.send("hello")
	go func() { done <- sendCmd() }()

	close(release)
	m, _ = press(t, m, tea.KeyEsc)
	if !m.quitting {
		t.Fatal("esc should quit")
	}

	if msg, ok := (<-done).(replyMsg); !ok || msg.err != nil {
		t.Fatalf("reply = %+v", msg)
	}
	saved, err := state.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Exchanges != 0 {
		t.Errorf("saved exchanges = %d, want 0 for an unanswered turn", saved.Exchanges)
	}
}

func TestModelCountsCompletedExchanges(t *testing.T) {
	state := NewUIStateManager(t.TempDir(), nil)
	m := NewModel(context.Background(), echoSession(), state, nil)

	next, _ := m.Update(replyMsg{input: "a", reply: "echo"})
	m = next.(Model)
	next, _ = m.Update(replyMsg{err: errors.New("engine down")})
	m = next.(Model)
	m, _ = press(t, m, tea.KeyCtrlC)

	saved, err := state.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Exchanges != 1 || saved.LastError != "engine down" {
		t.Errorf("saved state = %+v", saved)
	}
}

func TestModelCtrlCQuits(t *testing.T) {
	m := NewModel(context.Background(), echoSession(), nil, nil)
	m, _ = press(t, m, tea.KeyCtrlC)
	if !m.quitting {
		t.Error("ctrl+c should quit")
	}
}

func TestModelIgnoresEmptyInput(t *testing.T) {
	m := NewModel(context.Background(), echoSession(), nil, nil)
	before := len(m.Entries())
	m, cmd := press(t, m, tea.KeyEnter)
	if cmd != nil || len(m.Entries()) != before || m.waiting {
		t.Error("empty input must be ignored")
	}
}

func TestModelWindowResize(t *testing.T) {
	m := NewModel(context.Background(), echoSession(), nil, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if m.view.Width != 120 || m.view.Height != 40-inputHeight-1 {
		t.Errorf("viewport = %dx%d", m.view.Width, m.view.Height)
	}
	if !strings.Contains(m.View(), "phistack chat: Phi-3 Mini") {
		t.Error("header missing from view")
	}
}

func TestUIStateManager_LoadMissing(t *testing.T) {
	st, err := NewUIStateManager(t.TempDir(), nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Variant != "" {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestRunREPL(t *testing.T) {
	in := strings.NewReader("hello\n\nhelp\ninfo\nexit\nnever reached\n")
	var out bytes.Buffer

	if err := RunREPL(context.Background(), echoSession(), in, &out); err != nil {
		t.Fatalf("RunREPL: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Phi: echo", "exit/quit", "Phi-3 Mini", "Goodbye!"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Phi: echo") != 1 {
		t.Error("input after exit must not be processed")
	}
}

func TestRunREPL_EOFAndErrors(t *testing.T) {
	session := chat.NewSession(chat.Options{Variant: testVariant})
	var out bytes.Buffer

	if err := RunREPL(context.Background(), session, strings.NewReader("hi\n"), &out); err != nil {
		t.Fatalf("RunREPL: %v", err)
	}
	if !strings.Contains(out.String(), "Error: inference engine unavailable") {
		t.Errorf("expected engine error in output:\n%s", out.String())
	}
}

func TestRunREPL_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunREPL(ctx, echoSession(), strings.NewReader("hello\n"), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
