package face

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/reentry/internal/config"
)

func fileConfig(t *testing.T) *config.Config {
	cfg := baseConfig()
	cfg.StoreBackend = config.BackendFile
	cfg.StorePath = filepath.Join(t.TempDir(), "faces.json")
	cfg.MatchThreshold = 0.9
	return cfg
}

func TestOpen_FileBackend(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)

	rt, err := Open(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Pool)
	assert.NoError(t, rt.CheckDatabase(ctx))

	img := texturedPNG(t)
	enrollment, err := rt.Service.Enroll(ctx, "alice", img)
	require.NoError(t, err)
	assert.Equal(t, 1, enrollment.TotalFaces)

	_, err = os.Stat(cfg.StorePath)
	require.NoError(t, err)

	// a second runtime sees the persisted face
	reopened, err := Open(ctx, cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Store.Count())

	result, err := reopened.Service.Recognize(ctx, img)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "alice", result.Identity)
}

func TestOpenPersister_UnknownBackend(t *testing.T) {
	cfg := fileConfig(t)
	cfg.StoreBackend = "redis"

	_, _, err := OpenPersister(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestOpenPersister_PostgresBadURL(t *testing.T) {
	cfg := fileConfig(t)
	cfg.StoreBackend = config.BackendPostgres
	cfg.AutoMigrate = false
	cfg.DatabaseURL = "://not a url"

	_, _, err := OpenPersister(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}
