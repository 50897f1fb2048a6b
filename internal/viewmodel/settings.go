package viewmodel

import (
	"context"

	"ember/internal/observability"
	"ember/internal/stream"
)

// PreferenceStore is the slice of the preference store the settings screen
// needs.
type PreferenceStore interface {
	WatchNotifications(ctx context.Context) <-chan bool
	EnableNotifications(ctx context.Context) error
	DisableNotifications(ctx context.Context) error
}

// SettingsViewModel drives the settings screen's notification toggle.
type SettingsViewModel struct {
	prefs   PreferenceStore
	enabled *stream.State[bool]
	log     *observability.Logger
}

// NewSettingsViewModel creates the view model with the flag's default.
func NewSettingsViewModel(prefs PreferenceStore) *SettingsViewModel {
	return &SettingsViewModel{
		prefs:   prefs,
		enabled: stream.NewState(true),
		log:     observability.Component("viewmodel.settings"),
	}
}

// NotificationsEnabled exposes the toggle state.
func (vm *SettingsViewModel) NotificationsEnabled() *stream.State[bool] {
	return vm.enabled
}

// Start mirrors the persisted flag into the toggle state until ctx ends.
func (vm *SettingsViewModel) Start(ctx context.Context) {
	ch := vm.prefs.WatchNotifications(ctx)
	go func() {
		for v := range ch {
			vm.enabled.Set(v)
		}
	}()
}

// SetNotificationsEnabled persists the toggle durably before returning.
func (vm *SettingsViewModel) SetNotificationsEnabled(ctx context.Context, on bool) error {
	var err error
	if on {
		err = vm.prefs.EnableNotifications(ctx)
	} else {
		err = vm.prefs.DisableNotifications(ctx)
	}
	if err != nil {
		vm.log.Warn("preference write failed", "error", err)
	}
	return err
}
