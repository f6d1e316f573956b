package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"house-price-backend/internal/database"
)

type inMemoryTask struct {
	queue       string
	payload     []byte
	owner       *InMemoryQueue
	redelivered bool
}

func (t *inMemoryTask) Type() string {
	return t.queue
}

func (t *inMemoryTask) Payload() []byte {
	return t.payload
}

func (t *inMemoryTask) Ack() error {
	return nil
}

// Nack requeues the task once. A task that was already redelivered is dropped.
func (t *inMemoryTask) Nack() error {
	if t.redelivered {
		slog.Warn("dropping task after failed redelivery", "queue", t.queue)
		return nil
	}
	return t.owner.push(&inMemoryTask{queue: t.queue, payload: t.payload, owner: t.owner, redelivered: true})
}

func (t *inMemoryTask) Reject() error {
	return nil
}

// InMemoryQueue is a Publisher and Receiver for single process deployments
// and tests. Tasks are lost when the process exits.
type InMemoryQueue struct {
	mu     sync.RWMutex
	tasks  chan Task
	closed bool
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		tasks: make(chan Task, 100),
	}
}

func (q *InMemoryQueue) push(task *inMemoryTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("in-memory queue is closed")
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("in-memory queue %s is full", task.queue)
	}
}

func (q *InMemoryQueue) publishTaskInternal(queue string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return q.push(&inMemoryTask{queue: queue, payload: data, owner: q})
}

func (q *InMemoryQueue) PublishPredictionRecord(ctx context.Context, record database.PredictionRecord) error {
	return q.publishTaskInternal(PredictionRecordQueue, record)
}

func (q *InMemoryQueue) Tasks() <-chan Task {
	return q.tasks
}

func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		close(q.tasks)
		q.closed = true
	}
}
