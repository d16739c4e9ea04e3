package config

import (
	"testing"
)

// fakeBackend is a test double for the ConfigBackend interface.
type fakeBackend struct {
	strings map[string]string
	ints    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{strings: make(map[string]string), ints: make(map[string]int)}
}

func (f *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := f.strings[key]
	return v, ok, nil
}

func (f *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := f.ints[key]
	return v, ok, nil
}

func (f *fakeBackend) SetString(key, val string) error {
	f.strings[key] = val
	return nil
}

func (f *fakeBackend) SetInt(key string, val int) error {
	f.ints[key] = val
	return nil
}

func (f *fakeBackend) Delete(key string) error {
	delete(f.strings, key)
	delete(f.ints, key)
	return nil
}

// TestDefaults verifies all default values survive an empty backend.
func TestDefaults(t *testing.T) {
	cfg, err := loadWith(newFakeBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4780 {
		t.Errorf("Server.Port = %d, want 4780", cfg.Server.Port)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
	if !cfg.Backup.Enabled {
		t.Error("Backup.Enabled = false, want true")
	}
	if cfg.Backup.Schedule != "0 2 * * *" {
		t.Errorf("Backup.Schedule = %q", cfg.Backup.Schedule)
	}
	if cfg.Backup.Keep != 10 {
		t.Errorf("Backup.Keep = %d, want 10", cfg.Backup.Keep)
	}
	if cfg.Indexer.PollMillis != 1000 {
		t.Errorf("Indexer.PollMillis = %d, want 1000", cfg.Indexer.PollMillis)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

// TestBackendValues verifies backend values override defaults.
func TestBackendValues(t *testing.T) {
	b := newFakeBackend()
	b.ints["server.port"] = 9000
	b.strings["storage.data_dir"] = "/srv/toolrack"
	b.strings["backup.enabled"] = "false"
	b.ints["backup.keep"] = 3
	b.strings["log.level"] = "debug"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/srv/toolrack" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Backup.Enabled {
		t.Error("Backup.Enabled = true, want false")
	}
	if cfg.Backup.Keep != 3 {
		t.Errorf("Backup.Keep = %d, want 3", cfg.Backup.Keep)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

// TestEnvOverride verifies that environment variables beat backend values.
func TestEnvOverride(t *testing.T) {
	b := newFakeBackend()
	b.ints["server.port"] = 9000
	b.strings["log.level"] = "debug"

	t.Setenv("TOOLRACK_SERVER_PORT", "9100")
	t.Setenv("TOOLRACK_LOG_LEVEL", "warn")
	t.Setenv("TOOLRACK_BACKUP_ENABLED", "false")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Backup.Enabled {
		t.Error("Backup.Enabled = true, want false")
	}
}

// TestBadEnvValueIgnored verifies unparseable env values fall back to
// the existing value instead of failing the load.
func TestBadEnvValueIgnored(t *testing.T) {
	t.Setenv("TOOLRACK_SERVER_PORT", "not-a-port")
	t.Setenv("TOOLRACK_BACKUP_ENABLED", "perhaps")

	cfg, err := loadWith(newFakeBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4780 {
		t.Errorf("Server.Port = %d, want default 4780", cfg.Server.Port)
	}
	if !cfg.Backup.Enabled {
		t.Error("Backup.Enabled = false, want default true")
	}
}

func TestShowAll(t *testing.T) {
	cfg, err := loadWith(newFakeBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	infos := ShowAll(cfg)
	if len(infos) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d entries, want %d", len(infos), len(ValidKeys()))
	}
	byKey := make(map[string]KeyInfo)
	for _, ki := range infos {
		byKey[ki.Key] = ki
	}
	if byKey["server.port"].Value != "4780" {
		t.Errorf("server.port = %q, want 4780", byKey["server.port"].Value)
	}
	if byKey["server.port"].EnvVar != "TOOLRACK_SERVER_PORT" {
		t.Errorf("server.port env = %q", byKey["server.port"].EnvVar)
	}
}
