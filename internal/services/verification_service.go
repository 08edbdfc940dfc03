package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yudhapratama/learnhub/internal/models"
	"github.com/yudhapratama/learnhub/pkg/crypto"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/mail"
)

const (
	defaultVerificationExpiry     = 24 * time.Hour
	defaultVerificationTokenBytes = 32
)

var (
	// ErrVerificationNotFound indicates the token does not exist or was already consumed.
	ErrVerificationNotFound = errors.New("email verification: not found")
	// ErrVerificationExpired indicates the token lapsed before it was used.
	ErrVerificationExpired = errors.New("email verification: expired")
)

// VerificationOption customises the VerificationService.
type VerificationOption func(*VerificationService)

// WithVerificationBaseURL sets the base URL used in verification links.
func WithVerificationBaseURL(url string) VerificationOption {
	return func(s *VerificationService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithVerificationExpiry overrides the token lifetime.
func WithVerificationExpiry(d time.Duration) VerificationOption {
	return func(s *VerificationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithVerificationTokenSize adjusts the number of random bytes in generated tokens.
func WithVerificationTokenSize(size int) VerificationOption {
	return func(s *VerificationService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// WithVerificationClock injects a custom time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *VerificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// VerificationService manages email verification tokens for local registrations.
// Tokens are single use: consuming one deletes the row.
type VerificationService struct {
	db          *gorm.DB
	mailer      mail.Mailer
	baseURL     string
	expiry      time.Duration
	tokenLength int
	now         func() time.Time
	log         *zap.Logger
}

// NewVerificationService constructs a verification service with the provided dependencies.
func NewVerificationService(db *gorm.DB, mailer mail.Mailer, opts ...VerificationOption) (*VerificationService, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}

	service := &VerificationService{
		db:          db,
		mailer:      mailer,
		expiry:      defaultVerificationExpiry,
		tokenLength: defaultVerificationTokenBytes,
		now:         time.Now,
		log:         logger.WithModule("services.verification"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateToken issues a verification token for the given user, replacing any
// earlier tokens. The verification email is dispatched in the background;
// only a failure to persist the token is an error, a failed send is logged
// and the caller never sees it.
func (s *VerificationService) CreateToken(ctx context.Context, userID, email string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	email = strings.TrimSpace(strings.ToLower(email))
	if userID == "" {
		return "", "", errors.New("verification service: user id is required")
	}
	if email == "" {
		return "", "", errors.New("verification service: email is required")
	}

	token, err := crypto.GenerateHexToken(s.tokenLength)
	if err != nil {
		return "", "", fmt.Errorf("verification service: generate token: %w", err)
	}

	verification := models.VerificationToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.expiry),
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.VerificationToken{}).Error; err != nil {
		return "", "", fmt.Errorf("verification service: cleanup existing: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&verification).Error; err != nil {
		return "", "", fmt.Errorf("verification service: create token: %w", err)
	}

	link := s.verificationLink(token)
	s.sendVerificationEmail(email, link)

	return token, link, nil
}

func (s *VerificationService) sendVerificationEmail(email, link string) {
	if s.mailer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		message := mail.Message{
			To:      []string{email},
			Subject: "Confirm your LearnHub account",
			Body:    s.verificationBody(link),
		}
		if err := s.mailer.Send(ctx, message); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			s.log.Warn("verification email not sent", zap.String("email", email), zap.Error(err))
		}
	}()
}

// Consume validates a verification token and deletes it so it cannot be
// replayed. Expired tokens are purged on sight before the error is returned.
func (s *VerificationService) Consume(ctx context.Context, token string) (*models.VerificationToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrVerificationNotFound
	}

	var verification models.VerificationToken
	if err := s.db.WithContext(ctx).
		Where("token = ?", token).
		First(&verification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("verification service: find token: %w", err)
	}

	if verification.ExpiresAt.Before(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&verification).Error; err != nil {
			return nil, fmt.Errorf("verification service: purge expired token: %w", err)
		}
		return nil, ErrVerificationExpired
	}

	if err := s.db.WithContext(ctx).Delete(&verification).Error; err != nil {
		return nil, fmt.Errorf("verification service: consume token: %w", err)
	}

	return &verification, nil
}

// PurgeExpired removes all tokens whose expiry has passed and reports how many
// rows were deleted.
func (s *VerificationService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.VerificationToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("verification service: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *VerificationService) verificationLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, token)
}

func (s *VerificationService) verificationBody(link string) string {
	return fmt.Sprintf("Welcome to LearnHub!\n\nPlease confirm your email address by visiting the link below:\n%s\n\nThe link is valid for 24 hours. If you did not create an account, you can ignore this message.\n", link)
}
