package migration_1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Prediction struct {
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_predictions_user_time,priority:1"`
	Timestamp time.Time `gorm:"not null;index:idx_predictions_user_time,priority:2"`
}

const indexName = "idx_predictions_user_time"

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateIndex(&Prediction{}, indexName); err != nil {
		return fmt.Errorf("error creating %s index: %w", indexName, err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Prediction{}, indexName); err != nil {
		return fmt.Errorf("error dropping %s index: %w", indexName, err)
	}
	return nil
}
