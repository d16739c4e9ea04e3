// Package settings provides cached access to machine-level settings stored
// in SQLite: the security mode and shop defaults applied when creating new
// records.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ErrReadOnly is returned by mutating operations while the security mode is
// read_only. The operator switches modes explicitly (`toolrack config` or
// the settings API).
var ErrReadOnly = errors.New("operation not available in read-only mode")

// Security modes.
const (
	ModeReadOnly   = "read_only"
	ModeFullAccess = "full_access"
)

// Defaults applied when a create request omits a field.
const (
	DefaultFeedRate    = 2.5
	DefaultKnivesCount = 6
	DefaultSetNumber   = 1
	DefaultTolerance   = 0.5
)

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	SetSetting(key, value string) error
	GetSetting(key string) (string, error)
	GetAllSettings() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Settings is the assembled view of all machine settings.
type Settings struct {
	SecurityMode       string  `json:"security_mode"`
	DefaultFeedRate    float64 `json:"default_feed_rate"`
	DefaultKnivesCount int     `json:"default_knives_count"`
	DefaultSetNumber   int     `json:"default_set_number"`
	DefaultTolerance   float64 `json:"default_tolerance"`
}

// Manager provides cached, structured access to machine settings.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Settings
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// Get reads all settings from storage (or cache) and assembles a Settings.
// Unset keys fall back to shop defaults; the security mode defaults to
// full_access so a fresh database is usable immediately.
func (m *Manager) Get() (Settings, error) {
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		s := *m.cached
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return *m.cached, nil
	}

	keys, err := m.store.GetAllSettings()
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}

	s := build(keys)
	m.cached = &s
	m.cachedAt = m.clock.Now()
	return s, nil
}

// Set persists a settings key and invalidates the cache.
func (m *Manager) Set(key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetSetting(key, value); err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}

	m.cached = nil
	return nil
}

// ReadOnly reports whether the machine is in read-only mode. A storage
// error counts as read-only; failing closed here beats allowing edits.
func (m *Manager) ReadOnly() bool {
	s, err := m.Get()
	if err != nil {
		return true
	}
	return s.SecurityMode != ModeFullAccess
}

// Guard returns ErrReadOnly when mutations are currently disallowed.
func (m *Manager) Guard() error {
	if m.ReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func build(keys map[string]string) Settings {
	s := Settings{
		SecurityMode:       ModeFullAccess,
		DefaultFeedRate:    DefaultFeedRate,
		DefaultKnivesCount: DefaultKnivesCount,
		DefaultSetNumber:   DefaultSetNumber,
		DefaultTolerance:   DefaultTolerance,
	}
	if v, ok := keys["security.mode"]; ok {
		s.SecurityMode = v
	}
	if v, ok := keys["defaults.feed_rate"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.DefaultFeedRate = f
		}
	}
	if v, ok := keys["defaults.knives_count"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.DefaultKnivesCount = n
		}
	}
	if v, ok := keys["defaults.set_number"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.DefaultSetNumber = n
		}
	}
	if v, ok := keys["defaults.tolerance"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.DefaultTolerance = f
		}
	}
	return s
}

func validate(key, value string) error {
	switch key {
	case "security.mode":
		if value != ModeReadOnly && value != ModeFullAccess {
			return fmt.Errorf("security.mode must be %q or %q", ModeReadOnly, ModeFullAccess)
		}
	case "defaults.feed_rate", "defaults.tolerance":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
	case "defaults.knives_count", "defaults.set_number":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
	default:
		return fmt.Errorf("unknown settings key %q", key)
	}
	return nil
}
