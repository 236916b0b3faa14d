// Package notify delivers transient user notifications.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a single message shown to the operator
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives notifications from the state machines
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Logger sends notifications to a slog logger
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a notifier writing to logger, or the default logger when nil
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Success(msg string) { l.logger.Info(msg, "notification", LevelSuccess) }
func (l *Logger) Info(msg string)    { l.logger.Info(msg, "notification", LevelInfo) }
func (l *Logger) Error(msg string)   { l.logger.Error(msg, "notification", LevelError) }

// Writer prints notifications as single lines, colored when the output is a
// terminal
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a notifier printing to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

var (
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	errorColor   = color.New(color.FgRed)
)

func (n *Writer) print(c *color.Color, prefix, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, c.Sprint(prefix)+" "+msg)
}

func (n *Writer) Success(msg string) { n.print(successColor, "✓", msg) }
func (n *Writer) Info(msg string)    { n.print(infoColor, "i", msg) }
func (n *Writer) Error(msg string)   { n.print(errorColor, "✗", msg) }

// Channel forwards notifications on a buffered channel. When the buffer is
// full the notification is dropped rather than blocking the caller.
type Channel struct {
	C   chan Notification
	now func() time.Time
}

// NewChannel creates a channel notifier with the given buffer size
func NewChannel(size int) *Channel {
	if size <= 0 {
		size = 16
	}
	return &Channel{C: make(chan Notification, size), now: time.Now}
}

func (c *Channel) send(level Level, msg string) {
	select {
	case c.C <- Notification{Level: level, Message: msg, At: c.now()}:
	default:
	}
}

func (c *Channel) Success(msg string) { c.send(LevelSuccess, msg) }
func (c *Channel) Info(msg string)    { c.send(LevelInfo, msg) }
func (c *Channel) Error(msg string)   { c.send(LevelError, msg) }

// Recorder keeps every notification in memory
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, Notification{Level: level, Message: msg, At: time.Now()})
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

// All returns the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.list...)
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.list) == 0 {
		return Notification{}, false
	}
	return r.list[len(r.list)-1], true
}

// Discard drops every notification
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Info(string)    {}
func (discard) Error(string)   {}
