// Package bootstrap opens the runtime dependencies shared by the server and CLIs.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"idportal/internal/cache"
	"idportal/internal/config"
	"idportal/internal/database"
	"idportal/internal/middleware"
	"idportal/internal/repository"
	"idportal/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema connects without running migrations.
	SkipSchema bool
}

// Runtime holds the connections opened by InitRuntime.
type Runtime struct {
	DB      *gorm.DB
	Replica *gorm.DB
	Redis   *redis.Client
}

// Close releases every connection.
func (r *Runtime) Close() error {
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	return database.Close(r.DB, r.Replica)
}

// InitRuntime connects to the database, the optional read replica and Redis,
// then ensures the development admin when configured.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	replica, err := database.ConnectReplica(cfg)
	if err != nil {
		middleware.Logger.Warn("read replica unavailable, reads use the primary", slog.String("error", err.Error()))
		replica = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := cache.Dial(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
		rdb = nil
	}

	rt := &Runtime{DB: db, Replica: replica, Redis: rdb}
	if err := EnsureDevAdmin(ctx, cfg, repository.NewRegistry(db, nil)); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	return rt, nil
}

// EnsureDevAdmin creates the development admin account when
// DEV_BOOTSTRAP_ADMIN is set in the development environment. An existing
// account keeps its password unless DEV_ADMIN_FORCE_CREDENTIALS is set.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, reg repository.Registry) error {
	if cfg == nil || reg == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	accounts := service.NewAccountService(reg, nil, nil)
	existing, err := reg.Admins().GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	switch {
	case existing == nil:
		if _, err := accounts.CreateAdmin(ctx, username, "Development Admin", cfg.DevAdminPassword); err != nil {
			return err
		}
		middleware.Logger.Info("development admin created", slog.String("username", username))
	case cfg.DevAdminForceCreds:
		if err := accounts.ResetAdminPassword(ctx, username, cfg.DevAdminPassword); err != nil {
			return err
		}
		middleware.Logger.Info("development admin credentials reset", slog.String("username", username))
	}
	return nil
}
