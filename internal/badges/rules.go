package badges

import (
	"time"

	"placehub/internal/config"
	"placehub/internal/models"
)

// ReviewFacts is the snapshot the review triggered rules read. Counts are
// taken after the review was committed, so they include it.
type ReviewFacts struct {
	Review             models.Review
	PlaceReviewCount   int
	PhotoReviewCount   int
	FirstReviewCount   int
	CategoryPlaceCount int
}

// EventFacts is the snapshot the event triggered rules read.
type EventFacts struct {
	// Start times of completed events the user attended, ascending.
	AttendedAt         []time.Time
	MaxHostedAttendees int
	// Co-attendee id to number of completed events shared with the user.
	CoAttendees map[int64]int
}

func (f EventFacts) Attended() int {
	return len(f.AttendedAt)
}

// ReviewRule pairs a badge with the predicate that earns it.
type ReviewRule struct {
	BadgeID string
	Earned  func(ReviewFacts) bool
}

// EventRule pairs a badge with the predicate that earns it.
type EventRule struct {
	BadgeID string
	Earned  func(EventFacts) bool
}

// RuleSet is the full, ordered list of rules per trigger. Adding a badge
// means appending a rule here and a definition to the catalog.
type RuleSet struct {
	Review []ReviewRule
	Like   []ReviewRule
	Event  []EventRule
}

// NewRuleSet builds the rules with thresholds taken from cfg.
func NewRuleSet(cfg config.BadgeConfig) *RuleSet {
	loc := cfg.Location()
	weekday := cfg.Weekday()

	rs := &RuleSet{
		Review: []ReviewRule{
			{BadgeWordsmith, func(f ReviewFacts) bool {
				return AtLeast(f.Review.WordCount(), cfg.ReviewWords)
			}},
			{BadgeShutterbug, func(f ReviewFacts) bool {
				return AtLeast(f.PhotoReviewCount, cfg.PhotoReviews)
			}},
			{BadgeFirstReviewer, func(f ReviewFacts) bool {
				return f.PlaceReviewCount == 1
			}},
			{BadgeFreshPerspective, func(f ReviewFacts) bool {
				return AtLeast(f.FirstReviewCount, cfg.FreshPlaces)
			}},
		},
		Like: []ReviewRule{
			{BadgeCrowdFavorite, func(f ReviewFacts) bool {
				return AtLeast(f.Review.LikesCount, cfg.ReviewLikes)
			}},
		},
	}

	for _, cb := range CategoryBadges {
		category := cb.Category
		rs.Review = append(rs.Review, ReviewRule{cb.BadgeID, func(f ReviewFacts) bool {
			return f.Review.PlaceCategory == category && AtLeast(f.CategoryPlaceCount, cfg.CategoryPlaces)
		}})
	}

	rs.Event = []EventRule{
		{BadgeSocialButterfly, func(f EventFacts) bool {
			return AtLeast(f.Attended(), cfg.EventsAttended)
		}},
	}
	tiers := cfg.RegularTiers
	if len(tiers) < len(RegularTierBadges) {
		tiers = config.DefaultBadgeConfig().RegularTiers
	}
	for i, id := range RegularTierBadges {
		threshold := tiers[i]
		rs.Event = append(rs.Event, EventRule{id, func(f EventFacts) bool {
			return AtLeast(f.Attended(), threshold)
		}})
	}
	rs.Event = append(rs.Event,
		EventRule{BadgePopularHost, func(f EventFacts) bool {
			return AtLeast(f.MaxHostedAttendees, cfg.PopularHostSize)
		}},
		EventRule{BadgeNightOwl, func(f EventFacts) bool {
			return AnyInWindow(f.AttendedAt, cfg.LateNightStart, cfg.LateNightEnd, loc)
		}},
		EventRule{BadgeWeekendWarrior, func(f EventFacts) bool {
			return WeeklyStreak(OnWeekday(f.AttendedAt, weekday, loc), cfg.WeeklyStreak, loc)
		}},
		EventRule{BadgeMonthlyRegular, func(f EventFacts) bool {
			return MonthlyStreak(f.AttendedAt, cfg.MonthlyStreak, loc)
		}},
		EventRule{BadgeInnerCircle, func(f EventFacts) bool {
			return InnerCircle(f.Attended(), f.CoAttendees, cfg.InnerCircleFriends, cfg.InnerCircleSharedEvent)
		}},
	)

	return rs
}

// EarnedReview returns the ids of the rules in rules that hold for f, in
// rule order.
func EarnedReview(rules []ReviewRule, f ReviewFacts) []string {
	var out []string
	for _, r := range rules {
		if r.Earned(f) {
			out = append(out, r.BadgeID)
		}
	}
	return out
}

// EarnedEvent returns the ids of the event rules that hold for f.
func EarnedEvent(rules []EventRule, f EventFacts) []string {
	var out []string
	for _, r := range rules {
		if r.Earned(f) {
			out = append(out, r.BadgeID)
		}
	}
	return out
}
