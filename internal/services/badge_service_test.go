package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"placehub/internal/badges"
	"placehub/internal/config"
	"placehub/internal/events"
	"placehub/internal/models"
)

var longBody = strings.TrimSpace(strings.Repeat("lovely ", 100))

func newTestService(t *testing.T, userIDs ...int64) (BadgeService, *fakeStore) {
	t.Helper()
	store := newFakeStore(badges.Definitions(), userIDs...)
	logger := zaptest.NewLogger(t)
	ledger := NewAwardLedger(store.catalog, store.users, store.awards, nil, nil, logger)
	svc := NewBadgeService(store.collection(), ledger, badges.NewRuleSet(config.DefaultBadgeConfig()), nil, logger)
	return svc, store
}

// weekly returns n start times seven days apart from 2025-03-01, a Saturday.
func weekly(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2025, time.March, 1+7*i, 12, 0, 0, 0, time.UTC)
	}
	return out
}

func TestOnReviewCreated_GrantsReviewBadges(t *testing.T) {
	svc, store := newTestService(t, 1)
	r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 10, PlaceCategory: "cafe", Body: longBody, PhotoCount: 2})

	require.NoError(t, svc.OnReviewCreated(context.Background(), 1, r.ID))

	assert.Equal(t, []string{badges.BadgeWordsmith, badges.BadgeFirstReviewer}, store.awards.heldBy(1))
}

func TestOnReviewCreated_FirstReviewerOnlyForFirstReview(t *testing.T) {
	svc, store := newTestService(t, 1, 2)
	store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 10, Body: "great"})
	second := store.activity.addReview(models.Review{AuthorID: 2, PlaceID: 10, Body: "agreed"})

	require.NoError(t, svc.OnReviewCreated(context.Background(), 2, second.ID))

	assert.Empty(t, store.awards.heldBy(2))
}

func TestOnReviewCreated_FreshPerspectiveOnFifthFirstReview(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1, 2)

	// Place 6 is reviewed by someone else first, so it does not count.
	store.activity.addReview(models.Review{AuthorID: 2, PlaceID: 6, Body: "first"})

	for _, place := range []int64{1, 2, 3, 4, 6} {
		r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: place, Body: "nice"})
		require.NoError(t, svc.OnReviewCreated(ctx, 1, r.ID))
		assert.NotContains(t, store.awards.heldBy(1), badges.BadgeFreshPerspective)
	}

	r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 5, Body: "nice"})
	require.NoError(t, svc.OnReviewCreated(ctx, 1, r.ID))
	assert.Contains(t, store.awards.heldBy(1), badges.BadgeFreshPerspective)
}

func TestOnReviewCreated_CategoryBadge(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1)

	for place := int64(1); place <= 5; place++ {
		r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: place, PlaceCategory: "museum", Body: "art"})
		require.NoError(t, svc.OnReviewCreated(ctx, 1, r.ID))
		if place < 5 {
			assert.NotContains(t, store.awards.heldBy(1), badges.BadgeCultureBuff)
		}
	}

	held := store.awards.heldBy(1)
	assert.Contains(t, held, badges.BadgeCultureBuff)
	assert.NotContains(t, held, badges.BadgeFoodie)
}

func TestOnReviewCreated_NoOps(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1, 2)
	draft := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 1, Body: longBody, Status: models.ReviewStatusDraft})
	published := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 2, Body: longBody})

	require.NoError(t, svc.OnReviewCreated(ctx, 1, 404))
	require.NoError(t, svc.OnReviewCreated(ctx, 1, draft.ID))
	require.NoError(t, svc.OnReviewCreated(ctx, 2, published.ID))

	assert.Empty(t, store.awards.heldBy(1))
	assert.Empty(t, store.awards.heldBy(2))
}

func TestOnReviewCreated_UnknownUserIsNoop(t *testing.T) {
	svc, store := newTestService(t)
	r := store.activity.addReview(models.Review{AuthorID: 5, PlaceID: 1, Body: longBody})

	require.NoError(t, svc.OnReviewCreated(context.Background(), 5, r.ID))
	assert.Empty(t, store.awards.heldBy(5))
}

func TestOnReviewLiked(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 3)
	r := store.activity.addReview(models.Review{AuthorID: 3, PlaceID: 1, Body: longBody, LikesCount: 19})

	require.NoError(t, svc.OnReviewLiked(ctx, r.ID))
	assert.Empty(t, store.awards.heldBy(3), "like trigger evaluates only the like rule")

	store.activity.mu.Lock()
	r.LikesCount = 20
	store.activity.mu.Unlock()

	require.NoError(t, svc.OnReviewLiked(ctx, r.ID))
	assert.Equal(t, []string{badges.BadgeCrowdFavorite}, store.awards.heldBy(3))

	require.NoError(t, svc.OnReviewLiked(ctx, 404))
}

func TestOnEventBadgesCheck_WeeklyStreakAndHost(t *testing.T) {
	svc, store := newTestService(t, 1)
	store.activity.attended[1] = weekly(4)
	store.activity.hosted[1] = 10

	require.NoError(t, svc.OnEventBadgesCheck(context.Background(), 1))

	assert.Equal(t, []string{
		badges.BadgeSocialButterfly,
		badges.BadgePopularHost,
		badges.BadgeWeekendWarrior,
	}, store.awards.heldBy(1))
}

func TestOnEventBadgesCheck_MonthlyNightAndInnerCircle(t *testing.T) {
	svc, store := newTestService(t, 1)

	var attended []time.Time
	for i := 0; i < 6; i++ {
		// 2025-08 through 2026-01, late evening.
		attended = append(attended, time.Date(2025, time.August+time.Month(i), 2, 23, 0, 0, 0, time.UTC))
	}
	store.activity.attended[1] = attended
	store.activity.coAttendees[1] = map[int64]int{2: 5, 3: 5, 4: 6, 5: 1}

	require.NoError(t, svc.OnEventBadgesCheck(context.Background(), 1))

	assert.Equal(t, []string{
		badges.BadgeSocialButterfly,
		badges.BadgeNightOwl,
		badges.BadgeMonthlyRegular,
		badges.BadgeInnerCircle,
	}, store.awards.heldBy(1))
}

func TestOnEventBadgesCheck_NoActivity(t *testing.T) {
	svc, store := newTestService(t, 1)

	require.NoError(t, svc.OnEventBadgesCheck(context.Background(), 1))
	assert.Empty(t, store.awards.heldBy(1))
}

func TestTriggers_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection refused")
	svc, store := newTestService(t, 1)
	store.activity.err = dbErr

	assert.ErrorIs(t, svc.OnReviewCreated(ctx, 1, 1), dbErr)
	assert.ErrorIs(t, svc.OnReviewLiked(ctx, 1), dbErr)
	assert.ErrorIs(t, svc.OnEventBadgesCheck(ctx, 1), dbErr)

	granted, err := svc.OnManualRecheck(ctx, 1)
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, granted)
}

func TestOnEventBadgesCheck_LedgerErrorAborts(t *testing.T) {
	dbErr := errors.New("deadlock detected")
	svc, store := newTestService(t, 1)
	store.activity.attended[1] = weekly(4)
	store.awards.err = dbErr

	assert.ErrorIs(t, svc.OnEventBadgesCheck(context.Background(), 1), dbErr)
}

func TestOnManualRecheck_NoDuplicateAcrossTriggers(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1)
	r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 1, Body: longBody})

	require.NoError(t, svc.OnReviewCreated(ctx, 1, r.ID))
	require.Equal(t, []string{badges.BadgeWordsmith, badges.BadgeFirstReviewer}, store.awards.heldBy(1))

	granted, err := svc.OnManualRecheck(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, granted)
	assert.Empty(t, granted)

	assert.Equal(t, int64(1), store.catalog.total(badges.BadgeWordsmith))
	assert.Equal(t, int64(1), store.catalog.total(badges.BadgeFirstReviewer))
}

func TestOnManualRecheck_ReturnsGrantedIDs(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1)
	store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 1, Body: longBody, LikesCount: 25})
	store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 2, Body: "short"})
	store.activity.attended[1] = []time.Time{
		time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 17, 12, 0, 0, 0, time.UTC),
	}

	granted, err := svc.OnManualRecheck(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		badges.BadgeWordsmith,
		badges.BadgeFirstReviewer,
		badges.BadgeCrowdFavorite,
		badges.BadgeSocialButterfly,
	}, granted)

	again, err := svc.OnManualRecheck(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestOnManualRecheck_UnknownUser(t *testing.T) {
	svc, store := newTestService(t)
	store.activity.addReview(models.Review{AuthorID: 9, PlaceID: 1, Body: longBody})

	granted, err := svc.OnManualRecheck(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, granted)
}

func TestListUserBadges(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1)

	_, err := svc.ListUserBadges(ctx, 2)
	assert.True(t, IsNotFoundError(err))

	views, err := svc.ListUserBadges(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	store.activity.attended[1] = weekly(3)
	require.NoError(t, svc.OnEventBadgesCheck(ctx, 1))

	views, err = svc.ListUserBadges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, badges.BadgeSocialButterfly, views[0].BadgeID)
	assert.Equal(t, models.BadgeCategoryEvent, views[0].Category)
	assert.False(t, views[0].EarnedAt.IsZero())
}

func TestListUserBadges_EarnedOrderAndStoreError(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1)

	store.activity.attended[1] = weekly(3)
	require.NoError(t, svc.OnEventBadgesCheck(ctx, 1))
	r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 1, Body: longBody})
	require.NoError(t, svc.OnReviewCreated(ctx, 1, r.ID))

	views, err := svc.ListUserBadges(ctx, 1)
	require.NoError(t, err)
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.BadgeID
	}
	assert.Equal(t, store.awards.heldBy(1), ids)
	assert.Equal(t, badges.BadgeSocialButterfly, ids[0])

	store.users.err = errors.New("connection reset")
	_, err = svc.ListUserBadges(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeInternal, GetServiceError(err).Type)
}

func TestRegisterTriggers(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, 1, 2, 3)
	bus := events.NewInMemoryEventBus(nil, zap.NewNop())
	require.NoError(t, RegisterTriggers(bus, svc))
	assert.Equal(t, 3, bus.Stats().HandlersCount)

	r := store.activity.addReview(models.Review{AuthorID: 1, PlaceID: 1, Body: longBody})
	require.NoError(t, bus.Publish(ctx, events.NewReviewCreatedEvent(r.ID, 1)))
	assert.Contains(t, store.awards.heldBy(1), badges.BadgeWordsmith)

	store.activity.attended[2] = weekly(3)
	store.activity.attended[3] = weekly(3)
	require.NoError(t, bus.Publish(ctx, events.NewEventCompletedEvent(42, 1, []int64{2, 3})))

	assert.Equal(t, []string{badges.BadgeSocialButterfly}, store.awards.heldBy(2))
	assert.Equal(t, []string{badges.BadgeSocialButterfly}, store.awards.heldBy(3))
	assert.NotContains(t, store.awards.heldBy(1), badges.BadgeSocialButterfly)
}

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(nil)

	require.NoError(t, SeedCatalog(ctx, store.catalog, badges.Definitions(), zap.NewNop()))
	list, err := store.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(badges.Definitions()))

	store.catalog.badges[badges.BadgeFoodie].TotalAwarded = 4
	require.NoError(t, SeedCatalog(ctx, store.catalog, badges.Definitions(), zap.NewNop()))
	assert.Equal(t, int64(4), store.catalog.total(badges.BadgeFoodie))
}

func TestSeedCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		defs []models.Badge
	}{
		{"duplicate id", []models.Badge{
			{BadgeID: "a", Name: "A", Category: models.BadgeCategoryReview},
			{BadgeID: "a", Name: "A again", Category: models.BadgeCategoryReview},
		}},
		{"bad category", []models.Badge{{BadgeID: "b", Name: "B", Category: "misc"}}},
		{"missing name", []models.Badge{{BadgeID: "c", Category: models.BadgeCategoryEvent}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(nil)
			err := SeedCatalog(context.Background(), store.catalog, tt.defs, zap.NewNop())
			require.Error(t, err)
			assert.Equal(t, ErrorTypeValidation, GetServiceError(err).Type)
		})
	}
}

func TestNewServiceCollection(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(nil, 1)
	bus := events.NewInMemoryEventBus(nil, zap.NewNop())
	cfg := &config.Config{Badges: config.DefaultBadgeConfig()}

	sc, err := NewServiceCollection(store.collection(), bus, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sc.Initialize(ctx))

	b, err := store.catalog.GetByID(ctx, badges.BadgeInnerCircle)
	require.NoError(t, err)
	require.NotNil(t, b)

	store.activity.attended[1] = weekly(3)
	granted, err := sc.Badges.OnManualRecheck(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{badges.BadgeSocialButterfly}, granted)

	_, err = NewServiceCollection(nil, bus, cfg, nil, nil)
	assert.Error(t, err)
}
