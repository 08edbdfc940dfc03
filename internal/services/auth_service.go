package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yudhapratama/learnhub/internal/auth"
	"github.com/yudhapratama/learnhub/internal/models"
	"github.com/yudhapratama/learnhub/pkg/crypto"
	apperrors "github.com/yudhapratama/learnhub/pkg/errors"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/mail"
	"github.com/yudhapratama/learnhub/pkg/metrics"
)

// AuthService implements credential checks, the refresh-token lifecycle,
// OAuth account upserts, and email verification on top of the user table.
type AuthService struct {
	db            *gorm.DB
	tokens        *auth.TokenService
	verifications *VerificationService
	mailer        mail.Mailer
	log           *zap.Logger
}

// NewAuthService wires an AuthService from its dependencies. The mailer may
// be nil when outbound email is disabled.
func NewAuthService(db *gorm.DB, tokens *auth.TokenService, verifications *VerificationService, mailer mail.Mailer) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("auth service: token service is required")
	}
	if verifications == nil {
		return nil, errors.New("auth service: verification service is required")
	}

	return &AuthService{
		db:            db,
		tokens:        tokens,
		verifications: verifications,
		mailer:        mailer,
		log:           logger.WithModule("services.auth"),
	}, nil
}

// Tokens exposes the underlying token service for transport-layer concerns
// such as cookie lifetimes.
func (s *AuthService) Tokens() *auth.TokenService { return s.tokens }

// Register creates a local account and kicks off email verification. The
// account is created unverified; a failure to deliver the verification email
// does not fail the registration.
func (s *AuthService) Register(ctx context.Context, name, email, password, confirmPassword string) (*models.User, error) {
	if password != confirmPassword {
		return nil, apperrors.NewBadRequest("Passwords do not match")
	}

	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return nil, apperrors.NewConflict("Email already registered")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Wrap(err, "failed to check existing account")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Provider:     models.ProviderLocal,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("Email already registered")
		}
		return nil, apperrors.Wrap(err, "failed to create account")
	}

	metrics.Registrations.WithLabelValues(models.ProviderLocal).Inc()

	// Token persistence is part of the registration; only the email itself is
	// best-effort (the verification service sends it in the background).
	if _, _, err := s.verifications.CreateToken(ctx, user.ID, user.Email); err != nil {
		return nil, apperrors.Wrap(err, "failed to create verification token")
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// ValidateCredentials checks an email/password pair. Unknown accounts and
// OAuth-only accounts burn a dummy hash comparison so response timing does
// not reveal whether the email exists.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			crypto.FakeVerifyPassword(password)
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(err, "failed to look up account")
	}

	if user.PasswordHash == nil {
		crypto.FakeVerifyPassword(password)
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(*user.PasswordHash, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// IssueTokenPair signs an access/refresh pair for the user and persists the
// refresh token digest. The digest is stored before the pair is returned, so
// a token the caller ever sees is always redeemable.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *models.User) (*auth.TokenPair, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("auth service: user is required")
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign access token")
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign refresh token")
	}

	digest := crypto.HashToken(refreshToken)
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token_hash", digest).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to persist refresh token")
	}

	return &auth.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RotateRefreshToken redeems a refresh token for a fresh pair and invalidates
// the presented token. Each token is redeemable at most once: the stored
// digest is swapped with a compare-and-set, so a concurrent redeem of the
// same token loses and gets an unauthorized error.
func (s *AuthService) RotateRefreshToken(ctx context.Context, refreshToken string) (*models.User, *auth.TokenPair, error) {
	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		metrics.TokenRotations.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrUnauthorized
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		metrics.TokenRotations.WithLabelValues("failure").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrUnauthorized
		}
		return nil, nil, apperrors.Wrap(err, "failed to look up account")
	}

	presented := crypto.HashToken(refreshToken)
	if user.RefreshTokenHash == nil || !crypto.TokensEqual(*user.RefreshTokenHash, presented) {
		metrics.TokenRotations.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrUnauthorized
	}

	accessToken, err := s.tokens.IssueAccessToken(&user)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to sign access token")
	}
	newRefresh, err := s.tokens.IssueRefreshToken(&user)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to sign refresh token")
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", user.ID, presented).
		Update("refresh_token_hash", crypto.HashToken(newRefresh))
	if result.Error != nil {
		return nil, nil, apperrors.Wrap(result.Error, "failed to rotate refresh token")
	}
	if result.RowsAffected == 0 {
		metrics.TokenRotations.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrUnauthorized
	}

	metrics.TokenRotations.WithLabelValues("success").Inc()
	sanitized := user.Sanitized()
	return &sanitized, &auth.TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Revoke clears the stored refresh token digest for the user. Revoking an
// already-revoked session is a no-op, not an error.
func (s *AuthService) Revoke(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("auth service: user id is required")
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", nil).Error; err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}
	return nil
}

// UpsertOAuthIdentity resolves an OAuth identity to a local account. Matching
// runs on the provider subject first, then on email so an existing local
// account gets linked rather than duplicated. Unknown identities create a new
// account that is email-verified from the start.
func (s *AuthService) UpsertOAuthIdentity(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if identity == nil || identity.Subject == "" {
		return nil, errors.New("auth service: identity is required")
	}
	email := strings.TrimSpace(strings.ToLower(identity.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("OAuth identity is missing an email address")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("provider_id = ?", identity.Subject).First(&user).Error
	if err == nil {
		sanitized := user.Sanitized()
		return &sanitized, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(err, "failed to look up account")
	}

	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"provider":          models.ProviderGoogle,
			"provider_id":       identity.Subject,
			"is_email_verified": true,
		}
		if user.Avatar == "" && identity.Picture != "" {
			updates["avatar"] = identity.Picture
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(err, "failed to link account")
		}
		if err := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&user).Error; err != nil {
			return nil, apperrors.Wrap(err, "failed to reload account")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		subject := identity.Subject
		user = models.User{
			Name:            identity.Name,
			Email:           email,
			Provider:        models.ProviderGoogle,
			ProviderID:      &subject,
			Avatar:          identity.Picture,
			IsEmailVerified: true,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Lost a race with a concurrent upsert of the same identity.
				if lookupErr := s.db.WithContext(ctx).
					Where("provider_id = ?", identity.Subject).
					First(&user).Error; lookupErr != nil {
					return nil, apperrors.Wrap(lookupErr, "failed to resolve account")
				}
			} else {
				return nil, apperrors.Wrap(err, "failed to create account")
			}
		} else {
			metrics.Registrations.WithLabelValues(models.ProviderGoogle).Inc()
		}

	default:
		return nil, apperrors.Wrap(err, "failed to look up account")
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// The token is destroyed whether it succeeds or turns out to be expired, so
// a link can never be replayed.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	verification, err := s.verifications.Consume(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, ErrVerificationNotFound):
			metrics.EmailVerifications.WithLabelValues("invalid").Inc()
			return nil, apperrors.NewBadRequest("Invalid token")
		case errors.Is(err, ErrVerificationExpired):
			metrics.EmailVerifications.WithLabelValues("expired").Inc()
			return nil, apperrors.NewBadRequest("Token expired")
		default:
			return nil, apperrors.Wrap(err, "failed to verify email")
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", verification.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.EmailVerifications.WithLabelValues("invalid").Inc()
			return nil, apperrors.NewBadRequest("Invalid token")
		}
		return nil, apperrors.Wrap(err, "failed to look up account")
	}

	if !user.IsEmailVerified {
		if err := s.db.WithContext(ctx).
			Model(&user).
			Update("is_email_verified", true).Error; err != nil {
			return nil, apperrors.Wrap(err, "failed to mark email verified")
		}
		user.IsEmailVerified = true
		s.sendWelcomeEmail(user.Email, user.Name)
	}

	metrics.EmailVerifications.WithLabelValues("verified").Inc()
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// GetUser loads a single account by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to look up account")
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

func (s *AuthService) sendWelcomeEmail(email, name string) {
	if s.mailer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		greeting := name
		if greeting == "" {
			greeting = "there"
		}
		message := mail.Message{
			To:      []string{email},
			Subject: "Welcome to LearnHub",
			Body:    fmt.Sprintf("Hi %s,\n\nYour email address is confirmed and your account is ready to use.\n\nHappy learning!\n", greeting),
		}
		if err := s.mailer.Send(ctx, message); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			s.log.Warn("welcome email not sent", zap.String("email", email), zap.Error(err))
		}
	}()
}
