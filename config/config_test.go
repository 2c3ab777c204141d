package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKUP_LIMIT", "")
	t.Setenv("LOCAL_STORE", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.BackupLimit)
	assert.Equal(t, int64(10<<20), cfg.ImportMaxBytes)
	assert.Equal(t, "badger", cfg.LocalStore)
	assert.Equal(t, "quiz", cfg.AppName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKUP_LIMIT", "9")
	t.Setenv("LOGIN_RATE", "0.5")
	t.Setenv("LOGIN_BURST", "many")

	cfg := Load()
	assert.Equal(t, 9, cfg.BackupLimit)
	assert.Equal(t, 0.5, cfg.LoginRate)
	assert.Equal(t, 5, cfg.LoginBurst, "unparsable values fall back to the default")
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, (&Config{TimeZone: "Mars/Olympus"}).Location())
	assert.Equal(t, time.UTC, (&Config{TimeZone: "UTC"}).Location())
}

func TestInitLocalStore(t *testing.T) {
	store, closer, err := InitLocalStore(&Config{LocalStore: "badger", BadgerPath: filepath.Join(t.TempDir(), "backups")})
	require.NoError(t, err)
	assert.NotNil(t, store)
	require.NoError(t, closer.Close())

	_, _, err = InitLocalStore(&Config{LocalStore: "sqlite"})
	assert.Error(t, err)
}
