package messaging

import (
	"context"
	"fmt"

	"house-price-backend/internal/database"
)

// QueueSink hands prediction records to a queue instead of writing them in
// the request path. A PredictionRecorder on the other side stores them.
type QueueSink struct {
	publisher Publisher
}

func NewQueueSink(publisher Publisher) *QueueSink {
	return &QueueSink{publisher: publisher}
}

func (s *QueueSink) RecordPrediction(ctx context.Context, record database.PredictionRecord) error {
	if err := s.publisher.PublishPredictionRecord(ctx, record); err != nil {
		return fmt.Errorf("error queueing prediction record: %w", err)
	}
	return nil
}
