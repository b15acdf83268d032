package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"phistack/internal/fsutil"
)

// Exchange is one user turn and the reply it produced.
type Exchange struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"ts"`
	Variant   string    `json:"variant"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
}

// Transcript appends exchanges to a per-session JSONL file.
type Transcript struct {
	mu        sync.Mutex
	sessionID string
	path      string
}

// NewTranscript creates dir if needed and names the file after a fresh session ID.
func NewTranscript(dir string) (*Transcript, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create transcript dir: %w", err)
	}
	id := uuid.NewString()
	return &Transcript{
		sessionID: id,
		path:      filepath.Join(dir, "chat-"+id+".jsonl"),
	}, nil
}

// SessionID returns the session identifier stamped on every record.
func (t *Transcript) SessionID() string { return t.sessionID }

// Path returns the transcript file path.
func (t *Transcript) Path() string { return t.path }

// Append writes ex as one JSON line.
func (t *Transcript) Append(ex Exchange) error {
	ex.SessionID = t.sessionID
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fsutil.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write exchange: %w", err)
	}
	return nil
}
