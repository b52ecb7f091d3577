package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/datachat/internal/analysis/tabular"
	"github.com/zhouzirui/datachat/internal/model/chat"
	"github.com/zhouzirui/datachat/internal/model/dataset"
)

// ErrNoCompleter is returned by Respond when the session has no model behind it.
var ErrNoCompleter = errors.New("completion service unavailable")

// Completer is the boundary to the hosted completion model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ParseError reports an upload that could not be read as CSV. Its message is
// what the user sees in the conversation.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error loading CSV file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadReport records the outcome of the most recent upload.
type LoadReport struct {
	FileName string    `json:"fileName"`
	Text     string    `json:"text"`
	Failed   bool      `json:"failed"`
	At       time.Time `json:"at"`
}

// Session holds one user's conversation log and currently loaded dataset.
type Session struct {
	completer Completer
	now       func() time.Time

	// events serializes Load and Respond so one event finishes before the next starts.
	events sync.Mutex

	mu      sync.RWMutex
	entries []chat.Entry
	data    *dataset.Dataset
	summary string
	last    *LoadReport
}

// NewSession creates an empty session answering through completer.
func NewSession(completer Completer) *Session {
	return &Session{
		completer: completer,
		now:       func() time.Time { return time.Now().UTC() },
		entries:   make([]chat.Entry, 0, 16),
	}
}

// Load parses data as CSV and makes it the session's dataset, returning the
// fresh summary. On failure the previous dataset stays active, the error is
// logged as a system entry and returned as a *ParseError.
func (s *Session) Load(data []byte, filename string) (string, error) {
	s.events.Lock()
	defer s.events.Unlock()

	ds, err := tabular.Parse(bytes.NewReader(data), filename)
	if err != nil {
		parseErr := &ParseError{FileName: filename, Err: err}
		msg := parseErr.Error()

		s.mu.Lock()
		s.appendLocked(chat.RoleSystem, msg)
		s.last = &LoadReport{FileName: filename, Text: msg, Failed: true, At: s.now()}
		s.mu.Unlock()

		log.Printf("[analysis] failed to load file=%s: %v", filename, err)
		return "", parseErr
	}

	summary := tabular.Summarize(ds)

	s.mu.Lock()
	s.data = ds
	s.summary = summary
	s.appendLocked(chat.RoleSystem, fmt.Sprintf("CSV file '%s' has been loaded. %d rows and %d columns.", filename, ds.Rows(), ds.Cols()))
	s.last = &LoadReport{FileName: filename, Text: summary, At: s.now()}
	s.mu.Unlock()

	log.Printf("[analysis] loaded file=%s rows=%d cols=%d", filename, ds.Rows(), ds.Cols())
	return summary, nil
}

// Respond records message, asks the model about it and records the reply.
// Only the latest message plus freshly built data context is sent; earlier
// turns are not replayed. A failed completion leaves just the user entry.
func (s *Session) Respond(ctx context.Context, message string) (string, error) {
	s.events.Lock()
	defer s.events.Unlock()

	s.mu.Lock()
	s.appendLocked(chat.RoleUser, message)
	prompt := BuildPrompt(s.data, s.summary, message)
	s.mu.Unlock()

	if s.completer == nil {
		return "", ErrNoCompleter
	}

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		log.Printf("[analysis] completion failed: %v", err)
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	s.mu.Lock()
	s.appendLocked(chat.RoleAssistant, reply)
	s.mu.Unlock()

	return reply, nil
}

// History returns the user and assistant entries in insertion order.
func (s *Session) History() []chat.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]chat.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Visible() {
			history = append(history, e)
		}
	}
	return history
}

// Transcript returns every entry including system notes.
func (s *Session) Transcript() []chat.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Entry, len(s.entries))
	copy(copied, s.entries)
	return copied
}

// Dataset returns the live dataset, or nil when none has been loaded.
func (s *Session) Dataset() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Summary returns the cached summary of the live dataset.
func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// LastLoad returns the outcome of the latest upload, if any.
func (s *Session) LastLoad() (LoadReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return LoadReport{}, false
	}
	return *s.last, true
}

// Prompt shows the text Respond would send for message right now.
func (s *Session) Prompt(message string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildPrompt(s.data, s.summary, message)
}

func (s *Session) appendLocked(role chat.Role, content string) {
	s.entries = append(s.entries, chat.Entry{Role: role, Content: content, CreatedAt: s.now()})
}
