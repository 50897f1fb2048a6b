// Package prefs is the local durable preference store. Preferences survive
// process restarts; reads never require the backend. The notification flag
// defaults to true when nothing was ever written.
package prefs

import (
	"context"
	"errors"

	"ember/internal/observability"
	"ember/internal/stream"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notificationsKey = "notifications_enabled"

// Preference is one persisted key-value flag.
type Preference struct {
	Name  string `gorm:"primaryKey"`
	Value bool   `gorm:"not null"`
}

// TableName overrides the gorm default.
func (Preference) TableName() string { return "preferences" }

// Store is the preference store. One Store is shared process-wide.
type Store struct {
	db    *gorm.DB
	log   *observability.Logger
	state *stream.State[bool]
}

// NewStore migrates the preference table and loads the current notification
// flag into the reactive state.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, err
	}
	s := &Store{db: db, log: observability.Component("prefs")}

	enabled, err := s.read(context.Background())
	if err != nil {
		return nil, err
	}
	s.state = stream.NewState(enabled)
	return s, nil
}

func (s *Store) read(ctx context.Context) (bool, error) {
	var pref Preference
	err := s.db.WithContext(ctx).First(&pref, "name = ?", notificationsKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return pref.Value, nil
}

// NotificationsEnabled is a point-in-time durable read of the flag, used
// once per inbound push message.
func (s *Store) NotificationsEnabled(ctx context.Context) (bool, error) {
	return s.read(ctx)
}

// WatchNotifications yields the current flag and every subsequent change
// until ctx ends.
func (s *Store) WatchNotifications(ctx context.Context) <-chan bool {
	return s.state.Watch(ctx)
}

// EnableNotifications durably turns the flag on before returning.
func (s *Store) EnableNotifications(ctx context.Context) error {
	return s.set(ctx, true)
}

// DisableNotifications durably turns the flag off before returning.
func (s *Store) DisableNotifications(ctx context.Context) error {
	return s.set(ctx, false)
}

func (s *Store) set(ctx context.Context, enabled bool) error {
	pref := Preference{Name: notificationsKey, Value: enabled}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&pref).Error
	if err != nil {
		return err
	}
	s.state.Set(enabled)
	s.log.Info("notification preference updated", "enabled", enabled)
	return nil
}
