package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:           BackendSQLite,
			Path:              "~/.config/jobtrack",
			SQLiteFile:        "jobtrack.db",
			SQLiteJournalMode: "wal",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			DB:     0,
			Prefix: "jobtrack:",
		},
		Capture: CaptureConfig{
			DefaultStatus:     "interested",
			AutofillFromTitle: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "jobtrack.log",
			AuditLog:   true,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}
