package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yudhapratama/learnhub/internal/database/testutil"
	"github.com/yudhapratama/learnhub/internal/models"
	"github.com/yudhapratama/learnhub/internal/services"
)

func TestRunOncePurgesExpiredTokens(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	current := time.Date(2024, 4, 1, 6, 0, 0, 0, time.UTC)

	stale := &models.User{Name: "Stale", Email: "one@example.com", Provider: models.ProviderLocal}
	require.NoError(t, db.Create(stale).Error)
	fresh := &models.User{Name: "Fresh", Email: "two@example.com", Provider: models.ProviderLocal}
	require.NoError(t, db.Create(fresh).Error)

	verifications, err := services.NewVerificationService(db, nil,
		services.WithVerificationClock(func() time.Time { return current }),
		services.WithVerificationExpiry(time.Hour),
	)
	require.NoError(t, err)

	_, _, err = verifications.CreateToken(context.Background(), stale.ID, stale.Email)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, _, err = verifications.CreateToken(context.Background(), fresh.ID, fresh.Email)
	require.NoError(t, err)

	cleaner := NewCleaner(verifications)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining []models.VerificationToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, fresh.ID, remaining[0].UserID)
}

func TestCleanerWithoutServiceIsInert(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
	<-cleaner.Stop().Done()
}
