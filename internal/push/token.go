package push

import (
	"context"
	"errors"
	"time"

	"ember/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceToken is the locally persisted push registration token. At most one
// row exists.
type DeviceToken struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the gorm default.
func (DeviceToken) TableName() string { return "device_tokens" }

// EnsureToken returns the device's stable registration token, generating and
// persisting one on first use.
func EnsureToken(db *gorm.DB) (string, error) {
	if err := db.AutoMigrate(&DeviceToken{}); err != nil {
		return "", err
	}

	var row DeviceToken
	err := db.First(&row).Error
	if err == nil {
		return row.Token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	row = DeviceToken{Token: uuid.NewString()}
	if err := db.Create(&row).Error; err != nil {
		return "", err
	}
	return row.Token, nil
}

// ForwardToken reports the registration token to the token endpoint. The
// endpoint is a stub: when none is configured the token is only logged.
func ForwardToken(ctx context.Context, endpoint, token string) error {
	log := observability.Component("push")
	if endpoint == "" {
		log.Info("device token registered locally", "token", token)
		return nil
	}
	// TODO: post the token once the registration endpoint exists server-side.
	log.Info("device token forwarding stubbed", "endpoint", endpoint, "token", token)
	return nil
}
