// Package users holds the caller identities for the authenticated
// metrics API. Authentication itself lives in the HTTP middleware;
// this package only stores credentials.
package users

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserNotFoundError indicates a missing user record.
type UserNotFoundError struct {
	Email string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user not found: %s", e.Email)
}

type User struct {
	ID           uint   `gorm:"primarykey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	APIKey       string `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GenerateAPIKey issues a new bearer key.
func GenerateAPIKey() string {
	return "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateUser stores a user with a bcrypt password hash and a fresh
// API key.
func CreateUser(db *gorm.DB, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		APIKey:       GenerateAPIKey(),
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by email.
func GetUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &UserNotFoundError{Email: email}
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByAPIKey resolves a bearer key to a user. The final equality
// check is constant time.
func GetUserByAPIKey(db *gorm.DB, apiKey string) (*User, error) {
	if apiKey == "" {
		return nil, &UserNotFoundError{}
	}
	var user User
	err := db.Where("api_key = ?", apiKey).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &UserNotFoundError{}
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(user.APIKey), []byte(apiKey)) != 1 {
		return nil, &UserNotFoundError{}
	}
	return &user, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RotateAPIKey replaces the user's API key and returns the new one.
func RotateAPIKey(db *gorm.DB, userID uint) (string, error) {
	key := GenerateAPIKey()
	result := db.Model(&User{}).Where("id = ?", userID).Update("api_key", key)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", &UserNotFoundError{}
	}
	return key, nil
}
