// Package notify is the transient notification channel stores report
// success and failure on.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	Success Level = "success"
	Failure Level = "error"
)

type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

type Notifier interface {
	Notify(Notice)
}

// Log writes notices to a zerolog logger.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notify").Logger()}
}

func (l *Log) Notify(n Notice) {
	ev := l.log.Info()
	if n.Level == Failure {
		ev = l.log.Warn()
	}
	ev.Time("at", n.At).Msg(n.Message)
}

// Queue buffers notices until drained, like a toast tray.
type Queue struct {
	mu      sync.Mutex
	pending []Notice
}

func (q *Queue) Notify(n Notice) {
	q.mu.Lock()
	q.pending = append(q.pending, n)
	q.mu.Unlock()
}

// Drain returns the buffered notices oldest first and empties the queue.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, x := range m {
		x.Notify(n)
	}
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) {}
