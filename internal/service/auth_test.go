package service

import (
	"testing"
	"time"

	"idportal/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-1234567890"

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()
	ts := NewTokenService(testSecret, time.Hour)

	token, err := ts.Issue(17, models.RoleOfficer)
	require.NoError(t, err)

	p, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(17), p.ID)
	assert.Equal(t, models.RoleOfficer, p.Role)
}

func TestTokenService_Rejects(t *testing.T) {
	t.Parallel()
	ts := NewTokenService(testSecret, time.Hour)

	other := NewTokenService("a-completely-different-secret-value-xyz", time.Hour)
	foreign, err := other.Issue(1, models.RoleAdmin)
	require.NoError(t, err)
	_, err = ts.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenService(testSecret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(1, models.RoleAdmin)
	require.NoError(t, err)
	_, err = ts.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "citizen", "iss": tokenIssuer, "aud": tokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := badRole.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ts.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ts.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := NewTokenService("", time.Hour).Issue(1, models.RoleAdmin)
	assert.Error(t, err)
}
