package tui

import "time"

// Role identifies who produced a transcript entry
type Role string

const (
	// RoleUser marks text typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks model replies.
	RoleAssistant Role = "assistant"
	// RoleSystem marks shell output such as help and info.
	RoleSystem Role = "system"
	// RoleError marks failed requests.
	RoleError Role = "error"
)

// Entry is one rendered line group in the transcript view
type Entry struct {
	Role Role
	Text string
}

// UIState is persisted between chat runs
type UIState struct {
	Variant   string    `json:"variant"`
	Exchanges int       `json:"exchanges"`
	LastError string    `json:"last_error"`
	Updated   time.Time `json:"updated"`
}
