package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Email     string    `gorm:"size:320;not null;uniqueIndex"`
	Password  string    `gorm:"not null"`
	CreatedAt time.Time

	Predictions []Prediction `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

// Prediction is an append-only record of one price estimate. UserInput holds
// the full feature record the model was given, including derived fields.
type Prediction struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID      `gorm:"type:uuid;not null;index:idx_predictions_user_time,priority:1"`
	UserInput      datatypes.JSON `gorm:"not null"`
	PredictedPrice float64        `gorm:"not null"`
	Timestamp      time.Time      `gorm:"not null;index:idx_predictions_user_time,priority:2"`
}
