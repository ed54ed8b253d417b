// Package post is the status surface the triggers report to.
package post

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/qiniu/x/log"
)

// Level is the severity of a posted message.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return "info"
}

// ParseLevel maps "info", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

// Poster receives status messages.
type Poster interface {
	Post(lvl Level, msg string)
}

// Infof posts a formatted informational message.
func Infof(p Poster, format string, args ...any) {
	p.Post(Info, fmt.Sprintf(format, args...))
}

// Warnf posts a formatted warning.
func Warnf(p Poster, format string, args ...any) {
	p.Post(Warn, fmt.Sprintf(format, args...))
}

// Errorf posts a formatted error.
func Errorf(p Poster, format string, args ...any) {
	p.Post(Error, fmt.Sprintf(format, args...))
}

// Logger posts through a qiniu logger.
type Logger struct {
	l *log.Logger
}

// NewLogger returns a Poster writing to w, dropping messages below lvl.
func NewLogger(w io.Writer, lvl Level) *Logger {
	l := log.New(w, "", log.Llevel|log.LstdFlags)
	l.Level = toQiniu(lvl)
	return &Logger{l: l}
}

func (p *Logger) Post(lvl Level, msg string) {
	msg = strings.TrimRight(msg, "\n")
	switch lvl {
	case Error:
		p.l.Error(msg)
	case Warn:
		p.l.Warn(msg)
	default:
		p.l.Info(msg)
	}
}

func toQiniu(lvl Level) int {
	switch lvl {
	case Warn:
		return log.Lwarn
	case Error:
		return log.Lerror
	}
	return log.Linfo
}

// Message is one recorded post.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every post in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Post(lvl Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Level: lvl, Text: msg})
}

// Messages returns a copy of the recorded posts.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Contains reports whether a post at lvl contains substr.
func (r *Recorder) Contains(lvl Level, substr string) bool {
	for _, m := range r.Messages() {
		if m.Level == lvl && strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}
