// Package notify delivers operator-facing notifications: the toasts and
// confirmation prompts of the hosted console, rendered for a terminal.
package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one operator-facing message.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier receives operator-facing messages. Implementations must be safe
// for concurrent use; background syncs notify from their own goroutines.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
	Info(title, message string)
}

// Confirmer asks the operator a yes/no question and blocks for the answer.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Terminal writes notifications to a terminal and reads confirmations from
// it.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader
}

// NewTerminal creates a terminal notifier reading confirmations from in and
// writing notifications to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		out: out,
		in:  bufio.NewReader(in),
	}
}

func (t *Terminal) Success(title, message string) { t.write("OK", title, message) }
func (t *Terminal) Error(title, message string)   { t.write("ERROR", title, message) }
func (t *Terminal) Info(title, message string)    { t.write("INFO", title, message) }

func (t *Terminal) write(tag, title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if message == "" {
		fmt.Fprintf(t.out, "[%s] %s\n", tag, title)
		return
	}
	fmt.Fprintf(t.out, "[%s] %s: %s\n", tag, title, message)
}

// Confirm prints the prompt and waits for a y/n answer. Anything but an
// explicit yes declines, including EOF.
func (t *Terminal) Confirm(prompt string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Recorder captures notifications for tests and serves canned confirmation
// answers.
type Recorder struct {
	mu      sync.Mutex
	items   []Notification
	Answers []bool // consumed front to back; empty means decline
	prompts []string
}

func (r *Recorder) Success(title, message string) { r.record(LevelSuccess, title, message) }
func (r *Recorder) Error(title, message string)   { r.record(LevelError, title, message) }
func (r *Recorder) Info(title, message string)    { r.record(LevelInfo, title, message) }

func (r *Recorder) record(level Level, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Title: title, Message: message})
}

// Confirm pops the next canned answer, recording the prompt.
func (r *Recorder) Confirm(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	if len(r.Answers) == 0 {
		return false
	}
	answer := r.Answers[0]
	r.Answers = r.Answers[1:]
	return answer
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Prompts returns the confirmation prompts seen so far.
func (r *Recorder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.prompts))
	copy(out, r.prompts)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

var (
	_ Notifier  = (*Terminal)(nil)
	_ Confirmer = (*Terminal)(nil)
	_ Notifier  = (*Recorder)(nil)
	_ Confirmer = (*Recorder)(nil)
)
