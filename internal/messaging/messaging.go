package messaging

import (
	"context"
	"time"

	"house-price-backend/internal/database"
)

const (
	PredictionRecordQueue = "prediction_records"
	RetryDelay            = 5 * time.Second
	MaxConnectRetry       = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	// Nack returns the task to the queue for redelivery.
	Nack() error

	// Reject discards the task.
	Reject() error
}

type Publisher interface {
	PublishPredictionRecord(ctx context.Context, record database.PredictionRecord) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
