// Package notify delivers user-facing notifications (the storefront's
// toasts) to whoever is listening.
package notify

import (
	"time"

	"github.com/decred/slog"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a single user-facing message.
type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Notification) {})

// New returns a notification stamped with the current time.
func New(level Level, title, message string) Notification {
	return Notification{Level: level, Title: title, Message: message, Time: time.Now()}
}

// LogSink writes notifications to a logger.
type LogSink struct {
	Log slog.Logger
}

func (s LogSink) Notify(n Notification) {
	if n.Level == LevelError {
		s.Log.Warnf("%s: %s", n.Title, n.Message)
		return
	}
	s.Log.Infof("%s: %s", n.Title, n.Message)
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

func (m Multi) Notify(n Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}
