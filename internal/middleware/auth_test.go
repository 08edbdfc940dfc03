package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/yudhapratama/learnhub/internal/auth"
	"github.com/yudhapratama/learnhub/internal/models"
)

func newMiddlewareTestRouter(t *testing.T, verified bool) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := iauth.NewTokenService(iauth.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	require.NoError(t, err)

	user := &models.User{Email: "user@example.com", Provider: models.ProviderLocal, IsEmailVerified: verified}
	user.ID = "user-123"
	token, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)

	engine := gin.New()
	engine.GET("/open", Auth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	engine.GET("/verified-only", Auth(tokens), RequireVerifiedEmail(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return engine, token
}

func TestAuthAcceptsCookieAndBearer(t *testing.T) {
	engine, token := newMiddlewareTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-123", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	engine, _ := newMiddlewareTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired tokens are rejected like any other invalid token.
	expired, err := iauth.NewTokenService(iauth.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Clock:         func() time.Time { return time.Now().Add(-time.Hour) },
	})
	require.NoError(t, err)
	user := &models.User{Email: "user@example.com"}
	user.ID = "user-123"
	token, err := expired.IssueAccessToken(user)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireVerifiedEmail(t *testing.T) {
	engine, unverifiedToken := newMiddlewareTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/verified-only", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: unverifiedToken})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Please verify your email first")

	engine, verifiedToken := newMiddlewareTestRouter(t, true)
	req = httptest.NewRequest(http.MethodGet, "/verified-only", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: verifiedToken})
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
