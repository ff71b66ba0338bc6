// Package logging appends structured JSON-Lines records to the shared
// log file. Every process gets a ULID invocation id so records from one
// hook run can be grouped after the fact. Logging is best-effort: a
// failed write never fails the caller.
package logging

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type record struct {
	Time       string         `json:"time"`
	Invocation string         `json:"invocation"`
	Component  string         `json:"component"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Logger writes records for one component within one invocation.
type Logger struct {
	mu         sync.Mutex
	path       string
	invocation string
	component  string
	now        func() time.Time
}

// New creates a logger appending to path. An empty path disables output.
func New(path, component string) *Logger {
	return &Logger{
		path:       path,
		invocation: newInvocationID(),
		component:  component,
		now:        time.Now,
	}
}

func newInvocationID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return id.String()
}

// InvocationID returns the id stamped on every record from this logger.
func (l *Logger) InvocationID() string {
	return l.invocation
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.write("info", msg, nil, fields)
}

func (l *Logger) Error(msg string, err error, fields map[string]any) {
	l.write("error", msg, err, fields)
}

func (l *Logger) write(level, msg string, err error, fields map[string]any) {
	if l == nil || l.path == "" {
		return
	}
	rec := record{
		Time:       l.now().UTC().Format(time.RFC3339),
		Invocation: l.invocation,
		Component:  l.component,
		Level:      level,
		Message:    msg,
		Fields:     fields,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	line, jsonErr := json.Marshal(rec)
	if jsonErr != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if mkErr := os.MkdirAll(filepath.Dir(l.path), 0o755); mkErr != nil {
		return
	}
	f, openErr := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if openErr != nil {
		return
	}
	defer f.Close()
	f.Write(append(line, '\n'))
}
