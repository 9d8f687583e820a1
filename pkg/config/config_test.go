package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNormalisesBoardSettings(t *testing.T) {
	t.Setenv("RECORD_STORE_DRIVER", " POSTGRES ")
	t.Setenv("SYNC_INITIAL_POLICY", "newer_wins")
	t.Setenv("SYNC_GRACE_WINDOW", "750ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PUBLIC_BASE_URL", "https://board.example/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, RecordStorePostgres, cfg.RecordStore.Driver)
	assert.Equal(t, SyncPolicyNewerWins, cfg.Sync.InitialPolicy)
	assert.Equal(t, 750*time.Millisecond, cfg.Sync.GraceWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://board.example", cfg.PublicBaseURL)
}

func TestLoadFallsBackOnUnknownValues(t *testing.T) {
	t.Setenv("RECORD_STORE_DRIVER", "sqlite")
	t.Setenv("SYNC_INITIAL_POLICY", "whatever")
	t.Setenv("SYNC_GRACE_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, RecordStoreFile, cfg.RecordStore.Driver)
	assert.Equal(t, SyncPolicyRemoteWins, cfg.Sync.InitialPolicy)
	assert.Equal(t, 2*time.Second, cfg.Sync.GraceWindow)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bad", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}
