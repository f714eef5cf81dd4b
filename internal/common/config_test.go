package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Files.AcceptedExtensions)
	assert.Equal(t, int64(50<<20), cfg.Files.MaxFileSize)
	assert.Equal(t, 50, cfg.Files.MaxFiles)
	assert.Equal(t, 20, cfg.Pipeline.BatchSize)
	assert.Equal(t, 5, cfg.Pipeline.ConcurrencyLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.BatchPause)
	assert.Equal(t, []string{"2411", "5202", "6202"}, cfg.Pipeline.ValidOperationCodes)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("BATCH_SIZE", "7")
	t.Setenv("BATCH_PAUSE", "2s")
	t.Setenv("VALID_OPERATION_CODES", "1111, 2222")
	t.Setenv("ACCEPTED_EXTENSIONS", "pdf")

	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Pipeline.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.BatchPause)
	assert.Equal(t, []string{"1111", "2222"}, cfg.Pipeline.ValidOperationCodes)
	assert.Equal(t, []string{"pdf"}, cfg.Files.AcceptedExtensions)
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("BATCH_SIZE", "lots")
	t.Setenv("BATCH_PAUSE", "soon")
	t.Setenv("MAX_FILE_SIZE", "huge")

	cfg := LoadConfig()

	assert.Equal(t, 20, cfg.Pipeline.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.BatchPause)
	assert.Equal(t, int64(50<<20), cfg.Files.MaxFileSize)
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Pipeline.ValidOperationCodes = nil
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Files.UploadDir = ""
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Server.Addr = ""
	assert.Error(t, cfg.Validate())
}
