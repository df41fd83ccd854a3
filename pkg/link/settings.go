package link

import (
	"sync"

	"github.com/robotalks/g4link/pkg/g4/msgs"
)

// SettingsStore owns the device settings shared by the command path and
// session writers.
type SettingsStore struct {
	lock     sync.RWMutex
	settings *msgs.Settings
	version  uint64
}

// NewSettingsStore creates a store. nil initial means msgs.NewSettings.
func NewSettingsStore(initial *msgs.Settings) *SettingsStore {
	if initial == nil {
		initial = msgs.NewSettings()
	} else {
		initial = initial.Clone()
	}
	return &SettingsStore{settings: initial}
}

// Snapshot returns a deep copy of current settings.
func (s *SettingsStore) Snapshot() *msgs.Settings {
	settings, _ := s.VersionedSnapshot()
	return settings
}

// VersionedSnapshot returns a deep copy and the version it was taken at.
func (s *SettingsStore) VersionedSnapshot() (*msgs.Settings, uint64) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.settings.Clone(), s.version
}

// Version returns the number of accepted changes.
func (s *SettingsStore) Version() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.version
}

// Apply applies a setting change and returns the resulting snapshot.
// The store is unchanged if the setting is rejected.
func (s *SettingsStore) Apply(setting *msgs.Setting) (*msgs.Settings, error) {
	var result *msgs.Settings
	err := s.Update(func(settings *msgs.Settings) error {
		if err := settings.Apply(setting); err != nil {
			return err
		}
		result = settings.Clone()
		return nil
	})
	return result, err
}

// Update mutates settings under the write lock.
// fn works on a copy which replaces current settings only if fn succeeds.
func (s *SettingsStore) Update(fn func(*msgs.Settings) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	settings := s.settings.Clone()
	if err := fn(settings); err != nil {
		return err
	}
	s.settings = settings
	s.version++
	return nil
}
