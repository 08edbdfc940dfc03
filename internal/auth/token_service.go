package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yudhapratama/learnhub/internal/models"
)

// Fallback token lifetimes, overridable via configuration.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// ErrInvalidToken is the single failure surfaced for any rejected token:
// malformed, wrong signature, wrong secret, or expired. Callers never learn
// which, and neither do clients.
var ErrInvalidToken = errors.New("token: invalid")

// TokenConfig bundles the configuration required to build a TokenService.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Clock         func() time.Time
}

// AccessClaims represents the claims embedded in issued access tokens.
type AccessClaims struct {
	Email           string `json:"email,omitempty"`
	Provider        string `json:"provider"`
	IsEmailVerified bool   `json:"is_email_verified"`
	jwt.RegisteredClaims
}

// RefreshClaims carries the minimal payload of a refresh token: the subject only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenPair couples the two signed session tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService signs and validates the access/refresh token pair using
// separate secrets and lifetimes.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService constructs a TokenService from the provided configuration.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("token service: access secret must be provided")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("token service: refresh secret must be provided")
	}

	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}

	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           now,
	}, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs a short-lived token carrying the user's identity claims.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("token service: user is required")
	}

	now := s.now()
	claims := &AccessClaims{
		Email:           user.Email,
		Provider:        user.Provider,
		IsEmailVerified: user.IsEmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("token service: sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken signs a long-lived token carrying only the subject.
func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("token service: user is required")
	}

	now := s.now()
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("token service: sign refresh token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken validates a signed access token and returns its claims.
// All failures collapse into ErrInvalidToken.
func (s *TokenService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(tokenString, &claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseRefreshToken validates a signed refresh token and returns the subject.
func (s *TokenService) ParseRefreshToken(tokenString string) (string, error) {
	var claims RefreshClaims
	if err := s.parse(tokenString, &claims, s.refreshSecret); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	if tokenString == "" {
		return ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return ErrInvalidToken
	}

	if s.issuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != s.issuer {
			return ErrInvalidToken
		}
	}

	return nil
}
