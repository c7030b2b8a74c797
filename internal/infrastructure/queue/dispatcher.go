package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes unshare tasks to a fixed set of workers using consistent
// hashing on the conversation id, so tasks touching the same conversation
// are processed in order.
type Dispatcher struct {
	workers []chan ports.UnshareTask
	service ports.CleanupService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.CleanupService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.UnshareTask, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.UnshareTask, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a task to the worker responsible for its conversation.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(task ports.UnshareTask) {
	d.workers[d.shardIndex(task.ConversationID)] <- task
}

// shardIndex maps a conversation id deterministically to a worker index.
func (d *Dispatcher) shardIndex(conversationID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(conversationID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.UnshareTask) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, task); err != nil {
				d.log.Error().Err(err).
					Str("conversation_id", task.ConversationID).
					Str("group_id", task.GroupID).
					Int("worker_id", id).
					Msg("unshare cleanup failed")
			}
		}
	}
}
