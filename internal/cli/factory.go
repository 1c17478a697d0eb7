// Package cli holds the wiring shared by the atelier commands.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/config"
	"github.com/aretw0/atelier/pkg/adapters/file"
	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/adapters/redis"
	"github.com/aretw0/atelier/pkg/adapters/sqlite"
	"github.com/aretw0/atelier/pkg/metrics"
	"github.com/aretw0/atelier/pkg/persistence/middleware"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// DataDir is the project-local directory holding persisted sessions.
const DataDir = ".atelier"

// SessionsPath returns the default file store location inside dir.
func SessionsPath(dir string) string {
	return filepath.Join(dir, DataDir, "sessions")
}

// Backend is an opened session store and its optional lock service.
type Backend struct {
	Store   ports.DocumentStore
	Locker  ports.DistributedLocker
	closers []func() error
}

// Close releases the connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBackend builds the store selected by cfg. Relative paths resolve against dir.
// Masking and encryption are layered over the raw store when configured.
func OpenBackend(cfg config.Store, dir string) (*Backend, error) {
	b := &Backend{}

	switch cfg.Type {
	case "", config.StoreMemory:
		b.Store = memory.NewStore()

	case config.StoreFile:
		path := cfg.Path
		if path == "" {
			path = SessionsPath(dir)
		} else if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		b.Store = file.New(path)

	case config.StoreSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(dir, DataDir, "atelier.db")
		} else if !filepath.IsAbs(path) && path != ":memory:" {
			path = filepath.Join(dir, path)
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		st, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		b.Store = st
		b.closers = append(b.closers, st.Close)

	case config.StoreRedis:
		var opts []redis.Option
		prefix := redis.DefaultPrefix
		if cfg.Redis.Prefix != "" {
			prefix = cfg.Redis.Prefix
			opts = append(opts, redis.WithPrefix(prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		st := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		b.Store = st
		b.Locker = redis.NewLocker(st.Client(), prefix)
		b.closers = append(b.closers, st.Close)

	default:
		return nil, fmt.Errorf("%w: unknown store type %q", config.ErrInvalidConfig, cfg.Type)
	}

	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		// Live sessions read through the cache; only the backing store sees masked values.
		mws = append(mws, middleware.NewCacheMiddleware(), middleware.NewMaskingMiddleware(cfg.Mask))
	}
	if cfg.EncryptionKey != "" {
		enc, err := encryptionConfig(cfg)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	b.Store = middleware.Chain(b.Store, mws...)

	return b, nil
}

func encryptionConfig(cfg config.Store) (middleware.EncryptionConfig, error) {
	active, err := config.DecodeKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, err
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.FallbackKeys {
		key, err := config.DecodeKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, err
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

// StudioOptions tunes NewStudio.
type StudioOptions struct {
	// Dir is the project directory relative store paths resolve against.
	Dir    string
	Logger *slog.Logger
	// Registerer, when set, receives the studio collectors.
	Registerer prometheus.Registerer
}

// NewStudio opens the configured backend and builds a Studio over it.
// Closing the returned Backend is the caller's job, after the Studio is closed.
func NewStudio(cfg config.Config, opts StudioOptions) (*atelier.Studio, *Backend, error) {
	backend, err := OpenBackend(cfg.Store, opts.Dir)
	if err != nil {
		return nil, nil, err
	}

	studioOpts := []atelier.Option{
		atelier.WithStore(backend.Store),
		atelier.WithLogger(opts.Logger),
		atelier.WithHistoryLimit(cfg.History.Limit),
		atelier.WithGenerationConfig(cfg.Jobs.Generation),
		atelier.WithExportConfig(cfg.Jobs.Export),
	}
	if backend.Locker != nil {
		studioOpts = append(studioOpts, atelier.WithLocker(backend.Locker))
	}
	if cfg.Store.Redis.LockTTL > 0 {
		studioOpts = append(studioOpts, atelier.WithLockTTL(cfg.Store.Redis.LockTTL))
	}
	if opts.Registerer != nil {
		studioOpts = append(studioOpts, atelier.WithLifecycleHooks(metrics.New(opts.Registerer).Hooks()))
	}

	return atelier.New(studioOpts...), backend, nil
}
