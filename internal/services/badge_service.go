package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"placehub/internal/badges"
	"placehub/internal/models"
	"placehub/internal/monitoring"
	"placehub/internal/repositories"
)

// badgeService evaluates rules against activity facts and hands every
// earned badge to the ledger. It keeps no state between calls.
type badgeService struct {
	activity repositories.ActivityRepository
	users    repositories.UserRepository
	catalog  repositories.BadgeRepository
	ledger   AwardLedger
	rules    *badges.RuleSet
	metrics  *monitoring.BadgeMetrics
	logger   *zap.Logger
}

// NewBadgeService creates the evaluation orchestrator.
func NewBadgeService(
	repos *repositories.Collection,
	ledger AwardLedger,
	rules *badges.RuleSet,
	metrics *monitoring.BadgeMetrics,
	logger *zap.Logger,
) BadgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &badgeService{
		activity: repos.Activity,
		users:    repos.User,
		catalog:  repos.Badge,
		ledger:   ledger,
		rules:    rules,
		metrics:  metrics,
		logger:   logger,
	}
}

// ===============================
// TRIGGERS
// ===============================

func (s *badgeService) OnReviewCreated(ctx context.Context, userID, reviewID int64) (err error) {
	defer s.observe(TriggerReviewCreated, time.Now(), &err)

	review, err := s.activity.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("load review %d: %w", reviewID, err)
	}
	if review == nil {
		s.logger.Debug("Review not found or unpublished", zap.Int64("review_id", reviewID))
		return nil
	}
	if review.AuthorID != userID {
		s.logger.Warn("Review author does not match trigger user",
			zap.Int64("review_id", reviewID),
			zap.Int64("user_id", userID),
			zap.Int64("author_id", review.AuthorID),
		)
		return nil
	}

	stats, err := s.loadAuthorStats(ctx, userID)
	if err != nil {
		return err
	}
	facts, err := s.reviewFacts(ctx, review, stats)
	if err != nil {
		return err
	}

	_, err = s.grant(ctx, userID, badges.EarnedReview(s.rules.Review, facts))
	return err
}

func (s *badgeService) OnReviewLiked(ctx context.Context, reviewID int64) (err error) {
	defer s.observe(TriggerReviewLiked, time.Now(), &err)

	review, err := s.activity.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("load review %d: %w", reviewID, err)
	}
	if review == nil {
		return nil
	}

	earned := badges.EarnedReview(s.rules.Like, badges.ReviewFacts{Review: *review})
	_, err = s.grant(ctx, review.AuthorID, earned)
	return err
}

func (s *badgeService) OnEventBadgesCheck(ctx context.Context, userID int64) (err error) {
	defer s.observe(TriggerEventCheck, time.Now(), &err)

	_, err = s.checkEvents(ctx, userID)
	return err
}

// OnManualRecheck evaluates every review the user authored, then the event
// rules once. A badge earned by several reviews reaches the ledger once per
// review; only the first call grants it.
func (s *badgeService) OnManualRecheck(ctx context.Context, userID int64) (granted []string, err error) {
	defer s.observe(TriggerManualRecheck, time.Now(), &err)

	granted = []string{}

	reviewIDs, err := s.activity.ListReviewIDsByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of user %d: %w", userID, err)
	}

	if len(reviewIDs) > 0 {
		stats, err := s.loadAuthorStats(ctx, userID)
		if err != nil {
			return nil, err
		}

		for _, reviewID := range reviewIDs {
			review, err := s.activity.GetReview(ctx, reviewID)
			if err != nil {
				return nil, fmt.Errorf("load review %d: %w", reviewID, err)
			}
			if review == nil {
				continue
			}

			facts, err := s.reviewFacts(ctx, review, stats)
			if err != nil {
				return nil, err
			}

			earned := badges.EarnedReview(s.rules.Review, facts)
			earned = append(earned, badges.EarnedReview(s.rules.Like, facts)...)

			ids, err := s.grant(ctx, userID, earned)
			if err != nil {
				return nil, err
			}
			granted = append(granted, ids...)
		}
	}

	ids, err := s.checkEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	granted = append(granted, ids...)

	s.logger.Info("Manual badge recheck completed",
		zap.Int64("user_id", userID),
		zap.Int("reviews", len(reviewIDs)),
		zap.Strings("granted", granted),
	)
	return granted, nil
}

// ListUserBadges returns the user's badges in the order they were earned.
// Awards whose catalog entry has since vanished are skipped.
func (s *badgeService) ListUserBadges(ctx context.Context, userID int64) ([]UserBadgeView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, NewNotFoundError("user not found")
	}

	views := make([]UserBadgeView, 0, len(user.Badges))
	for _, award := range user.Badges {
		badge, err := s.catalog.GetByID(ctx, award.BadgeID)
		if err != nil {
			return nil, NewInternalError("failed to load badge", err)
		}
		if badge == nil {
			continue
		}
		views = append(views, UserBadgeView{
			BadgeID:     badge.BadgeID,
			Name:        badge.Name,
			Description: badge.Description,
			Category:    badge.Category,
			Tier:        badge.Tier,
			EarnedAt:    award.EarnedAt,
		})
	}
	return views, nil
}

// ===============================
// FACT LOADING
// ===============================

// authorStats are the per-user review counts shared by every review the
// user wrote.
type authorStats struct {
	photoReviews int
	firstReviews int
	categories   map[string]int
}

func (s *badgeService) loadAuthorStats(ctx context.Context, userID int64) (*authorStats, error) {
	stats := &authorStats{categories: make(map[string]int, len(badges.CategoryBadges))}
	counts := make([]int, len(badges.CategoryBadges))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.activity.CountPhotoReviews(gctx, userID)
		stats.photoReviews = n
		return wrapRead("count photo reviews", err)
	})
	g.Go(func() error {
		n, err := s.activity.CountFirstReviews(gctx, userID)
		stats.firstReviews = n
		return wrapRead("count first reviews", err)
	})
	for i, cb := range badges.CategoryBadges {
		g.Go(func() error {
			n, err := s.activity.CountCategoryPlaces(gctx, userID, cb.Category)
			counts[i] = n
			return wrapRead("count "+cb.Category+" places", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, cb := range badges.CategoryBadges {
		stats.categories[cb.Category] = counts[i]
	}
	return stats, nil
}

func (s *badgeService) reviewFacts(ctx context.Context, review *models.Review, stats *authorStats) (badges.ReviewFacts, error) {
	placeReviews, err := s.activity.CountPlaceReviews(ctx, review.PlaceID)
	if err != nil {
		return badges.ReviewFacts{}, wrapRead("count place reviews", err)
	}
	return badges.ReviewFacts{
		Review:             *review,
		PlaceReviewCount:   placeReviews,
		PhotoReviewCount:   stats.photoReviews,
		FirstReviewCount:   stats.firstReviews,
		CategoryPlaceCount: stats.categories[review.PlaceCategory],
	}, nil
}

func (s *badgeService) eventFacts(ctx context.Context, userID int64) (badges.EventFacts, error) {
	var facts badges.EventFacts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		times, err := s.activity.AttendedEventTimes(gctx, userID)
		facts.AttendedAt = times
		return wrapRead("load attended events", err)
	})
	g.Go(func() error {
		n, err := s.activity.MaxHostedAttendance(gctx, userID)
		facts.MaxHostedAttendees = n
		return wrapRead("load hosted attendance", err)
	})
	g.Go(func() error {
		co, err := s.activity.CoAttendeeCounts(gctx, userID)
		facts.CoAttendees = co
		return wrapRead("load co-attendees", err)
	})
	if err := g.Wait(); err != nil {
		return badges.EventFacts{}, err
	}
	return facts, nil
}

func (s *badgeService) checkEvents(ctx context.Context, userID int64) ([]string, error) {
	facts, err := s.eventFacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.grant(ctx, userID, badges.EarnedEvent(s.rules.Event, facts))
}

// ===============================
// HELPERS
// ===============================

// grant sends every earned id to the ledger in order and returns those
// newly recorded. The first data-store error aborts the batch.
func (s *badgeService) grant(ctx context.Context, userID int64, earned []string) ([]string, error) {
	var granted []string
	for _, badgeID := range earned {
		ok, err := s.ledger.Award(ctx, userID, badgeID)
		if err != nil {
			return granted, err
		}
		if ok {
			granted = append(granted, badgeID)
		}
	}
	return granted, nil
}

func (s *badgeService) observe(trigger string, start time.Time, errp *error) {
	s.metrics.ObserveEvaluation(trigger, time.Since(start), *errp)
	if *errp != nil {
		s.logger.Error("Badge evaluation failed",
			zap.String("trigger", trigger),
			zap.Error(*errp),
		)
	}
}

func wrapRead(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
