package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"house-price-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recordTimeout = 30 * time.Second

// PredictionRecorder consumes queued prediction records and writes them to
// the database. Delivery is at-least-once; SavePrediction ignores records
// whose id is already stored.
type PredictionRecorder struct {
	db       *gorm.DB
	receiver Receiver

	stop     chan struct{}
	stopOnce sync.Once
}

func NewPredictionRecorder(db *gorm.DB, receiver Receiver) *PredictionRecorder {
	return &PredictionRecorder{
		db:       db,
		receiver: receiver,
		stop:     make(chan struct{}),
	}
}

func (rec *PredictionRecorder) Start() {
	slog.Info("starting prediction recorder")

	tasks := rec.receiver.Tasks()
	for {
		select {
		case task, ok := <-tasks:
			if !ok {
				return
			}
			rec.ProcessTask(task)
		case <-rec.stop:
			return
		}
	}
}

func (rec *PredictionRecorder) Stop() {
	slog.Info("stopping prediction recorder")

	rec.stopOnce.Do(func() {
		close(rec.stop)
		rec.receiver.Close()
	})
}

func (rec *PredictionRecorder) ProcessTask(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if task.Type() != PredictionRecordQueue {
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil { // reject unknown message type
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	var record database.PredictionRecord
	if err := json.Unmarshal(task.Payload(), &record); err != nil || record.Id == uuid.Nil || record.UserId == uuid.Nil {
		slog.Error("error unmarshalling prediction record", "error", err)
		if err := task.Reject(); err != nil { // Discard malformed message
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err := rec.processRecord(ctx, record); err != nil {
		slog.Error("error processing task", "queue", task.Type(), "prediction_id", record.Id, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
		return
	}

	slog.Info("successfully processed task", "queue", task.Type(), "prediction_id", record.Id)
	if err := task.Ack(); err != nil {
		slog.Error("error acknowledging message from queue", "error", err)
	}
}

func (rec *PredictionRecorder) processRecord(ctx context.Context, record database.PredictionRecord) error {
	if err := database.SavePrediction(ctx, rec.db, record); err != nil {
		return fmt.Errorf("error storing prediction record: %w", err)
	}
	return nil
}
