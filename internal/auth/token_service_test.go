package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yudhapratama/learnhub/internal/models"
)

func testUser() *models.User {
	user := &models.User{
		Email:           "student@example.com",
		Provider:        models.ProviderLocal,
		IsEmailVerified: true,
	}
	user.ID = "user-123"
	return user
}

func newTestTokenService(t *testing.T, clock func() time.Time) *TokenService {
	t.Helper()

	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "learnhub-test",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    720 * time.Hour,
		Clock:         clock,
	})
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecrets(t *testing.T) {
	_, err := NewTokenService(TokenConfig{RefreshSecret: "x"})
	require.Error(t, err)

	_, err = NewTokenService(TokenConfig{AccessSecret: "x"})
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, func() time.Time { return current })

	token, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "student@example.com", claims.Email)
	require.Equal(t, models.ProviderLocal, claims.Provider)
	require.True(t, claims.IsEmailVerified)
	require.Equal(t, current.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, func() time.Time { return current })

	token, err := svc.IssueRefreshToken(testUser())
	require.NoError(t, err)

	subject, err := svc.ParseRefreshToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", subject)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, func() time.Time { return current })

	access, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(testUser())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseRefreshToken(access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokensRejected(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, func() time.Time { return current })

	access, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(testUser())
	require.NoError(t, err)

	current = current.Add(16 * time.Minute)
	_, err = svc.ParseAccessToken(access)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The refresh token lives much longer.
	_, err = svc.ParseRefreshToken(refresh)
	require.NoError(t, err)

	current = current.Add(721 * time.Hour)
	_, err = svc.ParseRefreshToken(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, func() time.Time { return current })

	token, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token + "x")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseAccessToken("")
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService(TokenConfig{
		AccessSecret:  "different-secret",
		RefreshSecret: "refresh-secret",
		Clock:         func() time.Time { return current },
	})
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
