package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yudhapratama/learnhub/internal/database/testutil"
	"github.com/yudhapratama/learnhub/internal/models"
	"github.com/yudhapratama/learnhub/pkg/mail"
)

func seedVerificationUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Name: "Student", Email: email, Provider: models.ProviderLocal}
	require.NoError(t, db.Create(user).Error)
	return user
}

type captureMailer struct {
	sent chan mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent <- msg
	return m.err
}

func TestVerificationCreateAndConsume(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	user := seedVerificationUser(t, db, "user@example.com")
	current := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	svc, err := NewVerificationService(db, nil,
		WithVerificationClock(func() time.Time { return current }),
		WithVerificationExpiry(12*time.Hour),
		WithVerificationBaseURL("https://app.example.com"),
	)
	require.NoError(t, err)

	token, link, err := svc.CreateToken(context.Background(), user.ID, user.Email)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Contains(t, link, token)

	var stored models.VerificationToken
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, user.ID, stored.UserID)
	require.Equal(t, token, stored.Token)

	consumed, err := svc.Consume(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, consumed.UserID)

	// A consumed token is gone; replaying the link fails.
	_, err = svc.Consume(context.Background(), token)
	require.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationCreateReplacesPriorTokens(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	user := seedVerificationUser(t, db, "user@example.com")

	svc, err := NewVerificationService(db, nil)
	require.NoError(t, err)

	first, _, err := svc.CreateToken(context.Background(), user.ID, user.Email)
	require.NoError(t, err)
	second, _, err := svc.CreateToken(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), first)
	require.ErrorIs(t, err, ErrVerificationNotFound)

	_, err = svc.Consume(context.Background(), second)
	require.NoError(t, err)
}

func TestVerificationExpiredTokenPurgedOnRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	user := seedVerificationUser(t, db, "verify@example.com")
	current := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	svc, err := NewVerificationService(db, nil,
		WithVerificationClock(func() time.Time { return current }),
		WithVerificationExpiry(time.Hour),
	)
	require.NoError(t, err)

	token, _, err := svc.CreateToken(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	_, err = svc.Consume(context.Background(), token)
	require.ErrorIs(t, err, ErrVerificationExpired)

	// The expired row was removed, so the second attempt reports not found.
	_, err = svc.Consume(context.Background(), token)
	require.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationPurgeExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	one := seedVerificationUser(t, db, "one@example.com")
	two := seedVerificationUser(t, db, "two@example.com")
	three := seedVerificationUser(t, db, "three@example.com")
	current := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	svc, err := NewVerificationService(db, nil,
		WithVerificationClock(func() time.Time { return current }),
		WithVerificationExpiry(time.Hour),
	)
	require.NoError(t, err)

	_, _, err = svc.CreateToken(context.Background(), one.ID, one.Email)
	require.NoError(t, err)
	_, _, err = svc.CreateToken(context.Background(), two.ID, two.Email)
	require.NoError(t, err)

	current = current.Add(90 * time.Minute)
	fresh, _, err := svc.CreateToken(context.Background(), three.ID, three.Email)
	require.NoError(t, err)

	purged, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, purged)

	_, err = svc.Consume(context.Background(), fresh)
	require.NoError(t, err)
}

func TestVerificationEmailIsFireAndForget(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	user := seedVerificationUser(t, db, "user@example.com")

	// A broken mailer must not surface to the caller; only persistence counts.
	mailer := &captureMailer{sent: make(chan mail.Message, 1), err: errors.New("smtp down")}
	svc, err := NewVerificationService(db, mailer, WithVerificationBaseURL("https://app.example.com"))
	require.NoError(t, err)

	token, link, err := svc.CreateToken(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	select {
	case msg := <-mailer.sent:
		require.Equal(t, []string{user.Email}, msg.To)
		require.Contains(t, msg.Body, link)
	case <-time.After(2 * time.Second):
		t.Fatal("verification email was never dispatched")
	}

	var stored models.VerificationToken
	require.NoError(t, db.Where("token = ?", token).First(&stored).Error)
	require.Equal(t, user.ID, stored.UserID)
}
