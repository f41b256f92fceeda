package queue_test

import (
	"sync"
	"testing"
	"time"

	"music4u/backend/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobRecorder collects executed queries and lets tests gate job
// completion so queue state can be observed mid-job.
type jobRecorder struct {
	mu      sync.Mutex
	served  []string
	chats   []int64
	release chan struct{}
	running chan struct{}
}

func newJobRecorder(gated bool) *jobRecorder {
	r := &jobRecorder{running: make(chan struct{}, 16)}
	if gated {
		r.release = make(chan struct{})
	}
	return r
}

func (r *jobRecorder) run(chatID int64, query string, cancelled func() bool) {
	if r.release != nil {
		r.running <- struct{}{}
		<-r.release
	}
	if cancelled() {
		return
	}
	r.mu.Lock()
	r.served = append(r.served, query)
	r.chats = append(r.chats, chatID)
	r.mu.Unlock()
}

func (r *jobRecorder) servedQueries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.served...)
}

func waitForIdle(t *testing.T, m *queue.Manager) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.ActiveCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("manager did not return to idle")
}

func TestManager_EnqueueStartsWorkerOnce(t *testing.T) {
	// Arrange
	rec := newJobRecorder(true)
	m := queue.NewManager(rec.run, 20)

	// Act
	started, err := m.Enqueue(1, "first")
	require.NoError(t, err)
	assert.True(t, started, "first enqueue must start a worker")
	<-rec.running

	started, err = m.Enqueue(1, "second")
	require.NoError(t, err)
	assert.False(t, started, "second enqueue must reuse the worker")
	assert.Equal(t, 1, m.ActiveCount())

	close(rec.release)
	waitForIdle(t, m)
}

func TestManager_ServesQueriesInSubmissionOrder(t *testing.T) {
	rec := newJobRecorder(true)
	m := queue.NewManager(rec.run, 20)

	_, err := m.Enqueue(1, "a")
	require.NoError(t, err)
	<-rec.running // worker holds job "a"; the rest queue up behind it

	for _, q := range []string{"b", "c", "d"} {
		_, err := m.Enqueue(1, q)
		require.NoError(t, err)
	}

	close(rec.release)
	for i := 0; i < 3; i++ {
		<-rec.running
	}
	waitForIdle(t, m)

	assert.Equal(t, []string{"a", "b", "c", "d"}, rec.servedQueries())
}

func TestManager_CancelWithoutJobReportsNothing(t *testing.T) {
	m := queue.NewManager(func(int64, string, func() bool) {}, 20)

	assert.False(t, m.Cancel(99), "cancel with no active job must be a no-op")
}

func TestManager_CancelSkipsRemainingQueue(t *testing.T) {
	rec := newJobRecorder(true)
	m := queue.NewManager(rec.run, 20)

	_, err := m.Enqueue(1, "current")
	require.NoError(t, err)
	<-rec.running

	_, err = m.Enqueue(1, "queued-1")
	require.NoError(t, err)
	_, err = m.Enqueue(1, "queued-2")
	require.NoError(t, err)

	assert.True(t, m.Cancel(1))
	assert.True(t, m.Cancel(1), "second cancel must still be accepted as a no-op")

	close(rec.release)
	waitForIdle(t, m)

	// The in-flight job observed the flag; the queued ones never ran.
	assert.Empty(t, rec.servedQueries())
	assert.Equal(t, 0, m.ActiveCount(), "chat must return to absent")
}

func TestManager_EnqueueAfterCancelStartsFreshWorker(t *testing.T) {
	rec := newJobRecorder(true)
	m := queue.NewManager(rec.run, 20)

	_, err := m.Enqueue(1, "doomed")
	require.NoError(t, err)
	<-rec.running

	require.True(t, m.Cancel(1))

	// The cancelled worker has not retired yet; the new request must not
	// land on its dead queue.
	started, err := m.Enqueue(1, "fresh")
	require.NoError(t, err)
	assert.True(t, started, "enqueue after cancel must start a fresh worker")

	<-rec.running
	close(rec.release)
	waitForIdle(t, m)

	assert.Equal(t, []string{"fresh"}, rec.servedQueries())
}

func TestManager_ChatsDoNotBlockEachOther(t *testing.T) {
	firstRunning := make(chan struct{})
	block := make(chan struct{})
	var mu sync.Mutex
	var served []int64

	m := queue.NewManager(func(chatID int64, query string, cancelled func() bool) {
		if chatID == 1 {
			close(firstRunning)
			<-block
		}
		mu.Lock()
		served = append(served, chatID)
		mu.Unlock()
	}, 20)

	_, err := m.Enqueue(1, "slow")
	require.NoError(t, err)
	<-firstRunning

	_, err = m.Enqueue(2, "fast")
	require.NoError(t, err)

	// Chat 2 must complete while chat 1 is still mid-job.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(served) == 1 && served[0] == 2
	}, 2*time.Second, 5*time.Millisecond)

	// Chat 1 is still mid-job and therefore still registered.
	assert.Eventually(t, func() bool { return m.ActiveCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	close(block)
	waitForIdle(t, m)
}

func TestManager_EnqueueRejectsBeyondMaxDepth(t *testing.T) {
	rec := newJobRecorder(true)
	m := queue.NewManager(rec.run, 2)

	_, err := m.Enqueue(1, "running")
	require.NoError(t, err)
	<-rec.running

	_, err = m.Enqueue(1, "p1")
	require.NoError(t, err)
	_, err = m.Enqueue(1, "p2")
	require.NoError(t, err)

	_, err = m.Enqueue(1, "p3")
	assert.ErrorIs(t, err, queue.ErrQueueFull)

	close(rec.release)
	waitForIdle(t, m)
}

func TestManager_EnqueueDuringRetirementIsNotLost(t *testing.T) {
	rec := newJobRecorder(false)
	m := queue.NewManager(rec.run, 20)

	// Hammer enqueue while workers retire; every query must be served.
	for i := 0; i < 50; i++ {
		_, err := m.Enqueue(1, "q")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	waitForIdle(t, m)

	assert.Len(t, rec.servedQueries(), 50)
}
