package settings

import (
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	values map[string]string
	reads  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) SetSetting(key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeStore) GetSetting(key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeStore) GetAllSettings() (map[string]string, error) {
	f.reads++
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestDefaultsOnFreshStore(t *testing.T) {
	m := NewManager(newFakeStore())

	s, err := m.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.SecurityMode != ModeFullAccess {
		t.Errorf("SecurityMode = %q, want %q", s.SecurityMode, ModeFullAccess)
	}
	if s.DefaultFeedRate != 2.5 || s.DefaultKnivesCount != 6 || s.DefaultSetNumber != 1 || s.DefaultTolerance != 0.5 {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestCacheTTL(t *testing.T) {
	store := newFakeStore()
	clock := &fakeClock{now: time.Now()}
	m := NewManagerWithClock(store, clock, time.Minute)

	if _, err := m.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := m.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if store.reads != 1 {
		t.Errorf("reads within TTL = %d, want 1", store.reads)
	}

	clock.advance(2 * time.Minute)
	if _, err := m.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if store.reads != 2 {
		t.Errorf("reads after TTL expiry = %d, want 2", store.reads)
	}
}

func TestSetInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	clock := &fakeClock{now: time.Now()}
	m := NewManagerWithClock(store, clock, time.Minute)

	if _, err := m.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := m.Set("defaults.knives_count", "8"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s, err := m.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.DefaultKnivesCount != 8 {
		t.Errorf("DefaultKnivesCount = %d, want 8 (stale cache)", s.DefaultKnivesCount)
	}
}

func TestValidation(t *testing.T) {
	m := NewManager(newFakeStore())

	cases := []struct {
		key, value string
		wantErr    bool
	}{
		{"security.mode", "full_access", false},
		{"security.mode", "read_only", false},
		{"security.mode", "locked", true},
		{"defaults.feed_rate", "3.2", false},
		{"defaults.feed_rate", "fast", true},
		{"defaults.knives_count", "4", false},
		{"defaults.knives_count", "4.5", true},
		{"defaults.set_number", "2", false},
		{"defaults.tolerance", "0.25", false},
		{"some.unknown", "x", true},
	}
	for _, tc := range cases {
		err := m.Set(tc.key, tc.value)
		if (err != nil) != tc.wantErr {
			t.Errorf("Set(%q, %q): err = %v, wantErr %v", tc.key, tc.value, err, tc.wantErr)
		}
	}
}

func TestGuard(t *testing.T) {
	m := NewManager(newFakeStore())

	if err := m.Guard(); err != nil {
		t.Fatalf("Guard on fresh store: %v", err)
	}

	if err := m.Set("security.mode", ModeReadOnly); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Guard(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Guard in read_only: err = %v, want ErrReadOnly", err)
	}
	if !m.ReadOnly() {
		t.Error("ReadOnly() = false in read_only mode")
	}

	if err := m.Set("security.mode", ModeFullAccess); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Guard(); err != nil {
		t.Errorf("Guard after unlocking: %v", err)
	}
}
