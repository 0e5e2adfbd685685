package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/config"
	"github.com/runnerr0/jobtrack/internal/logging"
	"github.com/runnerr0/jobtrack/internal/storage"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

// session is what a command needs once config is loaded and the store is open.
type session struct {
	cfg      *config.Config
	store    storage.Store
	svc      *tracker.Service
	logger   *zap.Logger
	location string // database path or redis address, for display
}

// openSession loads config, builds the logger and opens the configured store.
// Priority for the backend and path: flags > JOBTRACK_* environment > config file.
func openSession(globals *GlobalFlags) (*session, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, dataDir, globals.Verbose)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	var (
		store    storage.Store
		location string
	)
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rs, err := storage.OpenRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			_ = logger.Sync()
			return nil, err
		}
		store, location = rs, "redis://"+cfg.Redis.Addr
	default:
		dbPath := globals.DBPath
		if dbPath == "" {
			if dbPath, err = cfg.DBPath(); err != nil {
				return nil, err
			}
		}
		ss, err := storage.OpenSQLite(dbPath, cfg.Storage.SQLiteJournalMode)
		if err != nil {
			_ = logger.Sync()
			return nil, err
		}
		ss.SetAuditLog(cfg.Logging.AuditLog)
		store, location = ss, dbPath
	}

	logger.Debug("store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("location", location),
	)
	return newSession(cfg, store, logger, location), nil
}

// newSession wires a tracker service over an already open store.
func newSession(cfg *config.Config, store storage.Store, logger *zap.Logger, location string) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	status, err := storage.ParseStatus(cfg.Capture.DefaultStatus)
	if err != nil {
		status = storage.StatusInterested
	}
	svc := tracker.NewService(store, logger, tracker.Options{
		DefaultStatus:     status,
		AutofillFromTitle: cfg.Capture.AutofillFromTitle,
	})
	return &session{cfg: cfg, store: store, svc: svc, logger: logger, location: location}
}

// Close closes the store and flushes the logger.
func (s *session) Close() error {
	err := s.store.Close()
	_ = s.logger.Sync()
	return err
}

// loadConfig reads the config file named by --config, or the default one
// (creating it on first run), then overlays environment and flag overrides.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals.Config != "" {
		cfg, err = config.LoadOrCreateAt(globals.Config)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.ApplyEnv()
	if globals.Store != "" {
		cfg.Storage.Backend = strings.ToLower(globals.Store)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(globals *GlobalFlags, fn func(*session) error) error {
	sess, err := openSession(globals)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sess.run(fn)
}

// run calls fn and, on failure, logs the error and returns the message
// shown to the user.
func (s *session) run(fn func(*session) error) error {
	if err := fn(s); err != nil {
		return s.report(err)
	}
	return nil
}

// report logs err with its type and stack. Not-found and invalid-input
// errors are shown in full; anything else shows only its message, and the
// cause stays in the log.
func (s *session) report(err error) error {
	var de *apperr.DomainError
	if !errors.As(err, &de) {
		s.logger.Error("command failed", zap.Error(err))
		return err
	}

	fields := []zap.Field{
		zap.String("type", string(de.Type)),
		zap.String("message", de.Message),
		zap.ByteString("stack", de.Stack),
	}
	if de.Err != nil {
		fields = append(fields, zap.NamedError("cause", de.Err))
	}

	switch {
	case apperr.IsNotFound(err), apperr.IsInvalidInput(err):
		s.logger.Warn("command rejected", fields...)
		return errors.New(de.Error())
	default:
		s.logger.Error("command failed", fields...)
		if apperr.TypeOf(err) == apperr.ErrTypeInternal && de.Message == "" {
			return errors.New("internal error")
		}
		return errors.New(de.Message)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const displayTime = "2006-01-02 15:04"

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
