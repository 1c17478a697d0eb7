package cli

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/atelier/internal/config"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_Types(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		cfg    config.Store
		locker bool
	}{
		{name: "memory", cfg: config.Store{Type: config.StoreMemory}},
		{name: "default", cfg: config.Store{}},
		{name: "file", cfg: config.Store{Type: config.StoreFile}},
		{name: "sqlite", cfg: config.Store{Type: config.StoreSQLite}},
		{name: "sqlite memory", cfg: config.Store{Type: config.StoreSQLite, Path: ":memory:"}},
		{name: "redis", cfg: config.Store{Type: config.StoreRedis, Redis: config.Redis{Addr: mr.Addr(), TTL: time.Hour}}, locker: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := OpenBackend(tt.cfg, t.TempDir())
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, tt.locker, b.Locker != nil)

			ctx := context.Background()
			require.NoError(t, b.Store.Save(ctx, "s1", domain.NewDocument("s1")))
			doc, err := b.Store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "s1", doc.SessionID)
		})
	}
}

func TestOpenBackend_FileLayout(t *testing.T) {
	dir := t.TempDir()
	b, err := OpenBackend(config.Store{Type: config.StoreFile}, dir)
	require.NoError(t, err)

	require.NoError(t, b.Store.Save(context.Background(), "s1", domain.NewDocument("s1")))
	assert.FileExists(t, filepath.Join(SessionsPath(dir), "s1.json"))
}

func TestOpenBackend_Middleware(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	b, err := OpenBackend(config.Store{
		Type:          config.StoreSQLite,
		Path:          ":memory:",
		EncryptionKey: key,
		Mask:          []string{"(?i)prompt"},
	}, t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	doc := domain.NewDocument("s1")
	doc.AIParams.Prompt = "a secret robot"
	require.NoError(t, b.Store.Save(ctx, "s1", doc))

	loaded, err := b.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a secret robot", loaded.AIParams.Prompt, "live reads keep the real prompt")
	assert.Empty(t, loaded.Sealed)
}

func TestOpenBackend_MaskedAtRest(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Store{Type: config.StoreFile, Mask: []string{"(?i)prompt"}}
	ctx := context.Background()

	first, err := OpenBackend(cfg, dir)
	require.NoError(t, err)
	doc := domain.NewDocument("s1")
	doc.AIParams.Prompt = "a secret robot"
	require.NoError(t, first.Store.Save(ctx, "s1", doc))
	require.NoError(t, first.Close())

	second, err := OpenBackend(cfg, dir)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.AIParams.Prompt)
}

func TestOpenBackend_Invalid(t *testing.T) {
	_, err := OpenBackend(config.Store{Type: "s3"}, t.TempDir())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = OpenBackend(config.Store{Type: config.StoreMemory, EncryptionKey: "short"}, t.TempDir())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewStudio(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Type = config.StoreFile
	cfg.History.Limit = 2
	reg := prometheus.NewRegistry()

	dir := t.TempDir()
	studio, backend, err := NewStudio(cfg, StudioOptions{Dir: dir, Registerer: reg})
	require.NoError(t, err)
	defer backend.Close()
	defer studio.Close()

	ctx := context.Background()
	_, err = studio.Open(ctx, "s1")
	require.NoError(t, err)
	for _, a := range []domain.Action{domain.Smooth(), domain.Subdivide(), domain.Retopo()} {
		_, err := studio.Record(ctx, "s1", a)
		require.NoError(t, err)
	}
	h, err := studio.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, h.Past, 2, "history limit is applied")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "collectors are registered")
}
