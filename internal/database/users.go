package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account. The password must already be hashed.
func CreateUser(ctx context.Context, db *gorm.DB, firstName, lastName, email, passwordHash string) (User, error) {
	user := User{
		Id:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     NormalizeEmail(email),
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}

	err := db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var count int64
		if err := txn.Model(&User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("error checking for existing email: %w", err)
		}
		if count > 0 {
			return ErrEmailExists
		}

		if err := txn.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailExists
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (User, error) {
	var user User
	if err := db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

func GetUser(ctx context.Context, db *gorm.DB, userId uuid.UUID) (User, error) {
	var user User
	if err := db.WithContext(ctx).First(&user, "id = ?", userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}
