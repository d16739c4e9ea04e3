package config

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Backup  BackupConfig
	Indexer IndexerConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type BackupConfig struct {
	Enabled  bool
	Schedule string // five-field cron spec
	Keep     int    // retained auto backups
}

type IndexerConfig struct {
	PollMillis int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4780,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Backup: BackupConfig{
			Enabled:  true,
			Schedule: "0 2 * * *",
			Keep:     10,
		},
		Indexer: IndexerConfig{
			PollMillis: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, then applies
// environment variable overrides.
//
// On macOS the backend is UserDefaults (domain: com.toolrack.app).
// On Linux the backend is a JSON file at
// $XDG_CONFIG_HOME/toolrack/config.json.
//
// Environment variables (TOOLRACK_*) override backend values on all
// platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}
