package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"clipbot/internal/logging"
)

// lanes serialises work per user. Each active user gets one goroutine that
// drains that user's FIFO and exits once it is empty.
type lanes struct {
	mu     sync.Mutex
	queues map[int64]*lane
	wg     sync.WaitGroup
	logger *slog.Logger
}

type lane struct {
	pending []func()
}

func newLanes(logger *slog.Logger) *lanes {
	return &lanes{queues: make(map[int64]*lane), logger: logger}
}

// submit queues fn behind any work already pending for userID.
func (l *lanes) submit(userID int64, fn func()) {
	l.mu.Lock()
	if q, ok := l.queues[userID]; ok {
		q.pending = append(q.pending, fn)
		l.mu.Unlock()
		return
	}
	q := &lane{}
	l.queues[userID] = q
	l.wg.Add(1)
	l.mu.Unlock()

	go l.drain(userID, q, fn)
}

func (l *lanes) drain(userID int64, q *lane, fn func()) {
	defer l.wg.Done()
	for {
		l.run(userID, fn)

		l.mu.Lock()
		if len(q.pending) == 0 {
			delete(l.queues, userID)
			l.mu.Unlock()
			return
		}
		fn = q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		l.mu.Unlock()
	}
}

func (l *lanes) run(userID int64, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.ErrorWithContext(l.logger, "update handler panicked", "handler_panic",
				logging.Int64(logging.FieldUserID, userID),
				logging.String("panic", fmt.Sprint(rec)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report the stack trace; the lane continues with the next update"),
			)
		}
	}()
	fn()
}

// active returns the number of users with queued or running work.
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues)
}

func (l *lanes) wait() {
	l.wg.Wait()
}
