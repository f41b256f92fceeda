// Package queue serializes download jobs per chat. Each active chat
// owns one worker goroutine that drains its FIFO queue; different chats
// download in parallel without blocking each other.
package queue

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
)

// ErrQueueFull is returned by Enqueue when a chat already has the
// maximum number of pending queries.
var ErrQueueFull = errors.New("download queue for this chat is full")

// JobFunc runs one download-and-deliver cycle for a query. The
// cancelled callback must be polled cooperatively; when it returns true
// the job should stop as soon as possible.
type JobFunc func(chatID int64, query string, cancelled func() bool)

// chatState holds one chat's pending queries and its cancel flag. The
// registry entry always points at the chat's newest state; a cancelled
// worker may briefly outlive its replacement but never touches it.
type chatState struct {
	pending   []string
	cancelled atomic.Bool
}

// Manager owns the chat ID to state registry. All registry reads and
// writes happen under a single mutex.
type Manager struct {
	mu       sync.Mutex
	active   map[int64]*chatState
	run      JobFunc
	maxDepth int
}

// NewManager creates a Manager that executes jobs with run. maxDepth
// bounds the number of pending queries per chat.
func NewManager(run JobFunc, maxDepth int) *Manager {
	return &Manager{
		active:   make(map[int64]*chatState),
		run:      run,
		maxDepth: maxDepth,
	}
}

// Enqueue adds a query for a chat. When the chat has no active worker a
// new one is started and Enqueue reports started=true; otherwise the
// query is appended to the existing queue. Enqueue never blocks beyond
// lock acquisition.
func (m *Manager) Enqueue(chatID int64, query string) (started bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.active[chatID]
	if !ok || st.cancelled.Load() {
		// A cancelled state is as good as absent: its worker is about
		// to retire and will never look at the queue again. Appending
		// there would silently drop the query, so start fresh instead.
		st = &chatState{pending: []string{query}}
		m.active[chatID] = st
		go m.work(chatID, st)
		return true, nil
	}

	if len(st.pending) >= m.maxDepth {
		return false, ErrQueueFull
	}
	st.pending = append(st.pending, query)
	return false, nil
}

// Cancel flags the chat's current queue for termination. It is
// idempotent and reports whether there was a job to cancel.
func (m *Manager) Cancel(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.active[chatID]
	if !ok {
		return false
	}
	st.cancelled.Store(true)
	return true
}

// ActiveCount returns the number of chats with a running worker.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// work drains one chat's queue. The emptiness check and retirement
// happen under the same lock Enqueue uses, so a query enqueued between
// jobs is never lost: either the worker sees it here, or Enqueue saw
// the still-present entry and appended to it.
func (m *Manager) work(chatID int64, st *chatState) {
	for {
		m.mu.Lock()
		if st.cancelled.Load() || len(st.pending) == 0 {
			// A cancelled state may already have been replaced by a
			// fresh one in Enqueue; only retire the entry we own.
			if cur, ok := m.active[chatID]; ok && cur == st {
				delete(m.active, chatID)
			}
			m.mu.Unlock()
			log.Printf("Queue finished for chat %d", chatID)
			return
		}
		query := st.pending[0]
		st.pending = st.pending[1:]
		m.mu.Unlock()

		m.run(chatID, query, st.cancelled.Load)
	}
}
