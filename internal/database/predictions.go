package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionRecord is what the service persists for each successful
// prediction. It is also the payload of queued records, so the id is fixed
// before the record leaves the request and redelivery does not duplicate rows.
type PredictionRecord struct {
	Id             uuid.UUID      `json:"id"`
	UserId         uuid.UUID      `json:"user_id"`
	Input          map[string]any `json:"user_input"`
	PredictedPrice float64        `json:"predicted_price"`
	Timestamp      time.Time      `json:"timestamp"`
}

func NewPredictionRecord(userId uuid.UUID, input map[string]any, price float64) PredictionRecord {
	return PredictionRecord{
		Id:             uuid.New(),
		UserId:         userId,
		Input:          input,
		PredictedPrice: price,
		Timestamp:      time.Now().UTC(),
	}
}

func SavePrediction(ctx context.Context, db *gorm.DB, record PredictionRecord) error {
	input, err := json.Marshal(record.Input)
	if err != nil {
		return fmt.Errorf("error serializing prediction input: %w", err)
	}

	row := Prediction{
		Id:             record.Id,
		UserId:         record.UserId,
		UserInput:      datatypes.JSON(input),
		PredictedPrice: record.PredictedPrice,
		Timestamp:      record.Timestamp,
	}

	if err := db.WithContext(ctx).Where(Prediction{Id: row.Id}).FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("error saving prediction: %w", err)
	}
	return nil
}

func ListPredictions(ctx context.Context, db *gorm.DB, userId uuid.UUID, limit int) ([]Prediction, error) {
	query := db.WithContext(ctx).Where("user_id = ?", userId).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var predictions []Prediction
	if err := query.Find(&predictions).Error; err != nil {
		return nil, fmt.Errorf("error listing predictions: %w", err)
	}
	return predictions, nil
}

var ErrPredictionNotFound = errors.New("prediction not found")

// GetPrediction returns one of the user's predictions. Predictions owned by
// other users are reported as not found.
func GetPrediction(ctx context.Context, db *gorm.DB, userId, predictionId uuid.UUID) (Prediction, error) {
	var prediction Prediction
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", predictionId, userId).First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Prediction{}, ErrPredictionNotFound
		}
		return Prediction{}, fmt.Errorf("error querying prediction: %w", err)
	}
	return prediction, nil
}

// PredictionStore writes prediction records directly to the database.
type PredictionStore struct {
	db *gorm.DB
}

func NewPredictionStore(db *gorm.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

func (s *PredictionStore) RecordPrediction(ctx context.Context, record PredictionRecord) error {
	if err := SavePrediction(ctx, s.db, record); err != nil {
		slog.Error("error recording prediction", "prediction_id", record.Id, "user_id", record.UserId, "error", err)
		return err
	}
	return nil
}
