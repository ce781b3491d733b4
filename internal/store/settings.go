package store

import (
	"fmt"
	"sync"

	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

const settingsDocument = "settings"

// SettingsStore owns the on-device settings document
type SettingsStore struct {
	mu       sync.Mutex
	settings model.Settings
	persist  Persister
	logger   *zap.Logger
}

// DefaultSettings returns the settings applied on first run
func DefaultSettings() model.Settings {
	return model.Settings{
		Theme:                "system",
		DailyMessageLimit:    50,
		NotificationsEnabled: true,
		Locale:               "es",
	}
}

// NewSettingsStore loads the settings document, falling back to defaults
// on first run
func NewSettingsStore(persist Persister, logger *zap.Logger) (*SettingsStore, error) {
	s := &SettingsStore{
		settings: DefaultSettings(),
		persist:  persist,
		logger:   logger,
	}

	found, err := persist.Load(settingsDocument, &s.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings store: %w", err)
	}
	if !found {
		logger.Info("settings store initialized with defaults")
	}

	return s, nil
}

// Get returns the current settings
func (s *SettingsStore) Get() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update merges patch fields into the settings and persists the document
func (s *SettingsStore) Update(patch model.SettingsPatch) model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Theme != nil {
		s.settings.Theme = *patch.Theme
	}
	if patch.DailyMessageLimit != nil {
		s.settings.DailyMessageLimit = *patch.DailyMessageLimit
	}
	if patch.NotificationsEnabled != nil {
		s.settings.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if patch.Locale != nil {
		s.settings.Locale = *patch.Locale
	}
	if patch.LargeText != nil {
		s.settings.LargeText = *patch.LargeText
	}
	if patch.ReduceMotion != nil {
		s.settings.ReduceMotion = *patch.ReduceMotion
	}

	if err := s.persist.Save(settingsDocument, &s.settings); err != nil {
		s.logger.Error("failed to persist settings store", zap.Error(err))
	}

	return s.settings
}
