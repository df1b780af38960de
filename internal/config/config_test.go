package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, env, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	path := filepath.Join(dir, "config", "config."+env+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, ProviderMemory, cfg.RTCProvider)
	assert.Equal(t, "classroom", cfg.ChannelID)
	assert.Equal(t, 5, cfg.ActionLimit)
	assert.Equal(t, 10*time.Second, cfg.ActionInterval)
	assert.Equal(t, 30, cfg.CaptureFPS)
	assert.Empty(t, cfg.CaptureVideo)
	assert.Len(t, cfg.Secret, 32)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	require.NoError(t, cfg.Validate())

	role, err := cfg.Role()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, role)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeConfig(t, dir, "test", `
port: 9090
secret: s3cret
log_level: debug
identity: host
user_id: 42
channel_id: physics
rtc_provider: pion
signal_url: ws://sfu.local/ws
demo_peers: [7, 8]
roster_refresh: 1m
`)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("CLASSROOM_CHANNEL_ID", "chemistry")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, "chemistry", cfg.ChannelID)
	assert.Equal(t, []uint32{7, 8}, cfg.DemoPeers)
	assert.Equal(t, time.Minute, cfg.RosterRefresh)
	require.NoError(t, cfg.Validate())

	id, err := cfg.LocalID()
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID(42), id)
}

func TestValidate(t *testing.T) {
	base := Config{Identity: "guest", ChannelID: "c", UserID: 1, RTCProvider: ProviderMemory}
	require.NoError(t, base.Validate())

	bad := base
	bad.Identity = "teacher"
	assert.ErrorIs(t, bad.Validate(), domain.ErrUnknownRole)

	bad = base
	bad.ChannelID = ""
	assert.ErrorIs(t, bad.Validate(), domain.ErrChannelEmpty)

	bad = base
	bad.UserID = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrStreamIDZero)

	bad = base
	bad.RTCProvider = "agora"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownProvider)

	bad = base
	bad.RTCProvider = ProviderPion
	assert.ErrorIs(t, bad.Validate(), ErrNoSignalURL)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
}

func TestWatchLogLevel(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeConfig(t, dir, "watch", "log_level: info\n")
	t.Setenv("CONFIG_ENV", "watch")

	cfg, err := Load()
	require.NoError(t, err)

	var got atomic.Int32
	got.Store(int32(zerolog.InfoLevel))
	cfg.WatchLogLevel(func(l zerolog.Level) { got.Store(int32(l)) })

	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o644))
	require.Eventually(t, func() bool { return zerolog.Level(got.Load()) == zerolog.ErrorLevel }, 3*time.Second, 20*time.Millisecond)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
