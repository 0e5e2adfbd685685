package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/jobtrack/internal/config"
	"github.com/runnerr0/jobtrack/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestSession returns a session over a migrated in-memory SQLite store.
func newTestSession(t *testing.T) *session {
	t.Helper()
	store, err := storage.OpenSQLite(":memory:", "")
	require.NoError(t, err)

	sess := newSession(config.DefaultConfig(), store, nil, ":memory:")
	t.Cleanup(func() { sess.Close() })
	return sess
}

// newRedisTestSession returns a session over a miniredis-backed store.
func newRedisTestSession(t *testing.T) *session {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()

	store, err := storage.OpenRedis(context.Background(), mr.Addr(), "", 0, cfg.Redis.Prefix)
	require.NoError(t, err)

	sess := newSession(cfg, store, nil, "redis://"+mr.Addr())
	t.Cleanup(func() { sess.Close() })
	return sess
}

// parseOnly parses args without running the matched command.
func parseOnly(args ...string) (*GlobalFlags, *commands, error) {
	parser, globals, cmds := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := parser.ParseArgs(args)
	return globals, cmds, err
}

// writeTestConfig writes a config file that keeps every path under a temp dir.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/config.yaml"
	content := "storage:\n  path: " + dir + "\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
