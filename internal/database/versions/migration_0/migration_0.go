package migration_0

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Email     string    `gorm:"size:320;not null;uniqueIndex"`
	Password  string    `gorm:"not null"`
	CreatedAt time.Time
}

type Prediction struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID      `gorm:"type:uuid;not null"`
	User           *User          `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	UserInput      datatypes.JSON `gorm:"not null"`
	PredictedPrice float64        `gorm:"not null"`
	Timestamp      time.Time      `gorm:"not null"`
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Prediction{})
}
