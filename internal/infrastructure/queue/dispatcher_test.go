package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/ports"
)

type recordingCleanup struct {
	mu    sync.Mutex
	tasks []ports.UnshareTask
	done  chan struct{}
	want  int
}

func newRecordingCleanup(want int) *recordingCleanup {
	return &recordingCleanup{done: make(chan struct{}), want: want}
}

func (r *recordingCleanup) Process(_ context.Context, task ports.UnshareTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	if len(r.tasks) == r.want {
		close(r.done)
	}
	return nil
}

func (r *recordingCleanup) wait(t *testing.T) []ports.UnshareTask {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %d tasks", r.want)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.UnshareTask(nil), r.tasks...)
}

func TestDispatcher_ProcessesAllTasks(t *testing.T) {
	cleanup := newRecordingCleanup(3)
	d := NewDispatcher(2, cleanup, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.UnshareTask{ConversationID: "c1", GroupID: "g1"})
	d.Enqueue(ports.UnshareTask{ConversationID: "c2", GroupID: "g1"})
	d.Enqueue(ports.UnshareTask{ConversationID: "c3", GroupID: "g1"})

	tasks := cleanup.wait(t)
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		seen[task.ConversationID] = true
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if !seen[id] {
			t.Fatalf("task for %s was never processed", id)
		}
	}
}

func TestDispatcher_SameConversationSameShard(t *testing.T) {
	d := NewDispatcher(8, nil, zerolog.Nop())

	// Ordering depends on every task for a conversation landing on the
	// same worker.
	first := d.shardIndex("conversation-42")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("conversation-42"); got != first {
			t.Fatalf("shard moved from %d to %d", first, got)
		}
	}
}

func TestDispatcher_DefaultsWorkerCount(t *testing.T) {
	d := NewDispatcher(0, nil, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}
