package toast

import (
	"context"
	"log/slog"
	"sync"
)

// EventName is the event name used when notices are emitted as events.
const EventName = "folio:toast"

// Type represents the notice level.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Notice is a single user-facing message.
type Notice struct {
	Level   Type   `json:"level"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Notifier shows notices to the user.
type Notifier interface {
	Show(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Show calls f(n).
func (f NotifierFunc) Show(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

// Success shows a success notice.
//
//	toast.Success(n, "Changes saved!")
func Success(n Notifier, message string) {
	n.Show(Notice{Level: TypeSuccess, Message: message})
}

// Error shows an error notice.
//
//	toast.Error(n, "Failed to update like")
func Error(n Notifier, message string) {
	n.Show(Notice{Level: TypeError, Message: message})
}

// Warning shows a warning notice.
func Warning(n Notifier, message string) {
	n.Show(Notice{Level: TypeWarning, Message: message})
}

// Info shows an info notice.
func Info(n Notifier, message string) {
	n.Show(Notice{Level: TypeInfo, Message: message})
}

// WithTitle shows a notice with a title and message.
//
//	toast.WithTitle(n, toast.TypeSuccess, "Settings", "Your changes have been saved.")
func WithTitle(n Notifier, level Type, title, message string) {
	n.Show(Notice{Level: level, Title: title, Message: message})
}

// Emitter sends a named event with a payload to the client.
type Emitter interface {
	Emit(name string, payload any)
}

// EmitNotifier forwards notices as EventName events.
type EmitNotifier struct {
	Emitter Emitter
}

// Show emits n.
func (e EmitNotifier) Show(n Notice) {
	e.Emitter.Emit(EventName, n)
}

// LogNotifier writes notices to a slog.Logger.
// Error notices are logged at error level, warnings at warn, the rest at info.
type LogNotifier struct {
	Logger *slog.Logger
}

// Show logs n.
func (l LogNotifier) Show(n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Level {
	case TypeError:
		level = slog.LevelError
	case TypeWarning:
		level = slog.LevelWarn
	}
	attrs := []any{"notice", string(n.Level)}
	if n.Title != "" {
		attrs = append(attrs, "title", n.Title)
	}
	logger.Log(context.Background(), level, n.Message, attrs...)
}

// Recorder collects notices. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Show records n.
func (r *Recorder) Show(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns the recorded notices and clears the recorder.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Len returns the number of recorded notices.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}
