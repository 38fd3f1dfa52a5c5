package bootstrap

import (
	"context"
	"testing"

	"idportal/internal/config"
	"idportal/internal/repository"
	"idportal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		DevBootstrapAdmin: true,
		DevAdminUsername:  "admin",
		DevAdminPassword:  "dev-password",
	}
}

func adminHash(t *testing.T, reg repository.Registry) string {
	t.Helper()
	admin, err := reg.Admins().GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	return admin.PasswordHash
}

func TestEnsureDevAdmin_CreatesOnce(t *testing.T) {
	reg := repository.NewRegistry(testutil.NewSQLiteDB(t), nil)
	ctx := context.Background()

	require.NoError(t, EnsureDevAdmin(ctx, devConfig(), reg))
	require.NoError(t, EnsureDevAdmin(ctx, devConfig(), reg))

	admins, err := reg.Admins().List(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(adminHash(t, reg)), []byte("dev-password")))
}

func TestEnsureDevAdmin_ForceCredentials(t *testing.T) {
	reg := repository.NewRegistry(testutil.NewSQLiteDB(t), nil)
	ctx := context.Background()
	require.NoError(t, EnsureDevAdmin(ctx, devConfig(), reg))

	cfg := devConfig()
	cfg.DevAdminPassword = "rotated-password"
	require.NoError(t, EnsureDevAdmin(ctx, cfg, reg))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(adminHash(t, reg)), []byte("dev-password")),
		"password kept without force")

	cfg.DevAdminForceCreds = true
	require.NoError(t, EnsureDevAdmin(ctx, cfg, reg))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(adminHash(t, reg)), []byte("rotated-password")))
}

func TestEnsureDevAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name string
		cfg  func() *config.Config
	}{
		{"production", func() *config.Config { c := devConfig(); c.Env = "production"; return c }},
		{"disabled", func() *config.Config { c := devConfig(); c.DevBootstrapAdmin = false; return c }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := repository.NewRegistry(testutil.NewSQLiteDB(t), nil)
			require.NoError(t, EnsureDevAdmin(context.Background(), tt.cfg(), reg))
			admins, err := reg.Admins().List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, admins)
		})
	}
}

func TestEnsureDevAdmin_RequiresPassword(t *testing.T) {
	reg := repository.NewRegistry(testutil.NewSQLiteDB(t), nil)
	cfg := devConfig()
	cfg.DevAdminPassword = ""

	err := EnsureDevAdmin(context.Background(), cfg, reg)
	require.Error(t, err)

	admins, listErr := reg.Admins().List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, admins)
}
