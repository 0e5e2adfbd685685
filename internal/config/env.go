package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable ApplyEnv reads.
const EnvPrefix = "JOBTRACK_"

// ApplyEnv overlays JOBTRACK_* environment variables onto c. Unset
// variables leave the file value alone; unparseable numbers and booleans
// are ignored.
func (c *Config) ApplyEnv() {
	c.Storage.Backend = getEnvString("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Path = getEnvString("STORAGE_PATH", c.Storage.Path)
	c.Storage.SQLiteFile = getEnvString("SQLITE_FILE", c.Storage.SQLiteFile)
	c.Storage.SQLiteJournalMode = getEnvString("SQLITE_JOURNAL_MODE", c.Storage.SQLiteJournalMode)

	c.Redis.Addr = getEnvString("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.Prefix = getEnvString("REDIS_PREFIX", c.Redis.Prefix)

	c.Capture.DefaultStatus = getEnvString("DEFAULT_STATUS", c.Capture.DefaultStatus)
	c.Capture.AutofillFromTitle = getEnvBool("AUTOFILL_FROM_TITLE", c.Capture.AutofillFromTitle)

	c.Logging.Level = strings.ToLower(getEnvString("LOG_LEVEL", c.Logging.Level))
	c.Logging.File = getEnvString("LOG_FILE", c.Logging.File)
	c.Logging.AuditLog = getEnvBool("AUDIT_LOG", c.Logging.AuditLog)
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
