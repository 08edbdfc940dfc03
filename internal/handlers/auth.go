package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/yudhapratama/learnhub/internal/auth"
	"github.com/yudhapratama/learnhub/internal/middleware"
	"github.com/yudhapratama/learnhub/internal/services"
	"github.com/yudhapratama/learnhub/pkg/crypto"
	"github.com/yudhapratama/learnhub/pkg/errors"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/response"
)

// AuthHandler manages authentication flows: register, login, the Google
// OAuth dance, refresh, logout, verify, and me.
type AuthHandler struct {
	auth        *services.AuthService
	google      *iauth.GoogleProvider
	cookies     CookieConfig
	frontendURL string
}

// NewAuthHandler wires an AuthHandler. The google provider may be nil when
// OAuth is not configured; the Google routes then answer 503.
func NewAuthHandler(auth *services.AuthService, google *iauth.GoogleProvider, cookies CookieConfig, frontendURL string) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		google:      google,
		cookies:     cookies,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

type registerRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":    user,
		"message": "Registration successful. Please check your email to verify your account.",
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.ValidateCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, err := h.auth.IssueTokenPair(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	setSessionCookies(c, h.cookies, pair)
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil || refreshToken == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, pair, err := h.auth.RotateRefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		clearSessionCookies(c, h.cookies)
		response.Error(c, err)
		return
	}

	setSessionCookies(c, h.cookies, pair)
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// POST /api/auth/logout
//
// Logout never fails. The access token is parsed best-effort so the server
// side session can be revoked, but a missing or expired token still gets its
// cookies cleared and a 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, err := h.auth.Tokens().ParseAccessToken(accessTokenFromRequest(c)); err == nil {
		if err := h.auth.Revoke(c.Request.Context(), claims.Subject); err != nil {
			logger.WithModule("handlers.auth").Warn("session revoke failed",
				zap.String("user_id", claims.Subject),
				zap.Error(err))
		}
	}

	clearSessionCookies(c, h.cookies)
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// accessTokenFromRequest reads the access token from the session cookie or,
// failing that, an Authorization bearer header.
func accessTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// GET /api/auth/verify?token=...
func (h *AuthHandler) Verify(c *gin.Context) {
	user, err := h.auth.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":    user,
		"message": "Email verified successfully",
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// GET /api/auth/google
func (h *AuthHandler) GoogleBegin(c *gin.Context) {
	if h.google == nil {
		response.Error(c, errors.ErrUnavailable)
		return
	}

	state, err := crypto.GenerateToken(24)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	setStateCookie(c, h.cookies, state)
	c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

// GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		response.Error(c, errors.ErrUnavailable)
		return
	}

	state := c.Query("state")
	cookieState, err := c.Cookie(oauthStateCookie)
	clearStateCookie(c, h.cookies)
	if err != nil || state == "" || !crypto.TokensEqual(state, cookieState) {
		response.Error(c, errors.NewBadRequest("OAuth state mismatch"))
		return
	}

	code := c.Query("code")
	if code == "" {
		response.Error(c, errors.NewBadRequest("OAuth code is missing"))
		return
	}

	identity, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized.WithInternal(err))
		return
	}

	user, err := h.auth.UpsertOAuthIdentity(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, err := h.auth.IssueTokenPair(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	setSessionCookies(c, h.cookies, pair)
	if h.frontendURL != "" {
		c.Redirect(http.StatusFound, h.frontendURL)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}
