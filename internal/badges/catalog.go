package badges

import "placehub/internal/models"

// Badge ids. These are the catalog primary keys; renaming one orphans
// every award already granted under the old id.
const (
	BadgeWordsmith        = "wordsmith"
	BadgeShutterbug       = "shutterbug"
	BadgeFirstReviewer    = "first_reviewer"
	BadgeFreshPerspective = "fresh_perspective"
	BadgeCrowdFavorite    = "crowd_favorite"

	BadgeFoodie      = "foodie"
	BadgeCafeHopper  = "cafe_hopper"
	BadgeCultureBuff = "culture_buff"
	BadgeNatureLover = "nature_lover"
	BadgeBarfly      = "barfly"

	BadgeSocialButterfly = "social_butterfly"
	BadgeRegularBronze   = "regular_bronze"
	BadgeRegularSilver   = "regular_silver"
	BadgeRegularGold     = "regular_gold"
	BadgePopularHost     = "popular_host"
	BadgeNightOwl        = "night_owl"
	BadgeWeekendWarrior  = "weekend_warrior"
	BadgeMonthlyRegular  = "monthly_regular"
	BadgeInnerCircle     = "inner_circle"
)

// CategoryBadge maps a place category to the badge for reviewing many
// distinct places in it.
type CategoryBadge struct {
	Category string
	BadgeID  string
}

var CategoryBadges = []CategoryBadge{
	{"restaurant", BadgeFoodie},
	{"cafe", BadgeCafeHopper},
	{"museum", BadgeCultureBuff},
	{"park", BadgeNatureLover},
	{"bar", BadgeBarfly},
}

// RegularTierBadges is ordered to match config.BadgeConfig.RegularTiers.
var RegularTierBadges = []string{BadgeRegularBronze, BadgeRegularSilver, BadgeRegularGold}

func tier(t string) *string { return &t }

// Definitions returns the catalog seed. Every id a rule references has an
// entry here.
func Definitions() []models.Badge {
	return []models.Badge{
		{BadgeID: BadgeWordsmith, Name: "Wordsmith", Description: "Wrote a review of 100 words or more", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeShutterbug, Name: "Shutterbug", Description: "Posted 10 reviews with photos", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeFirstReviewer, Name: "First Reviewer", Description: "Wrote the first review of a place", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeFreshPerspective, Name: "Fresh Perspective Explorer", Description: "Was first to review 5 places", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeCrowdFavorite, Name: "Crowd Favorite", Description: "A review received 20 likes", Category: models.BadgeCategoryReview},

		{BadgeID: BadgeFoodie, Name: "Foodie", Description: "Reviewed 5 different restaurants", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeCafeHopper, Name: "Cafe Hopper", Description: "Reviewed 5 different cafes", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeCultureBuff, Name: "Culture Buff", Description: "Reviewed 5 different museums", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeNatureLover, Name: "Nature Lover", Description: "Reviewed 5 different parks", Category: models.BadgeCategoryReview},
		{BadgeID: BadgeBarfly, Name: "Barfly", Description: "Reviewed 5 different bars", Category: models.BadgeCategoryReview},

		{BadgeID: BadgeSocialButterfly, Name: "Social Butterfly", Description: "Attended 3 events", Category: models.BadgeCategoryEvent},
		{BadgeID: BadgeRegularBronze, Name: "Regular", Description: "Attended 10 events", Category: models.BadgeCategoryEvent, Tier: tier(models.BadgeTierBronze)},
		{BadgeID: BadgeRegularSilver, Name: "Regular", Description: "Attended 25 events", Category: models.BadgeCategoryEvent, Tier: tier(models.BadgeTierSilver)},
		{BadgeID: BadgeRegularGold, Name: "Regular", Description: "Attended 50 events", Category: models.BadgeCategoryEvent, Tier: tier(models.BadgeTierGold)},
		{BadgeID: BadgePopularHost, Name: "Popular Host", Description: "Hosted an event with 10 attendees", Category: models.BadgeCategoryEvent},
		{BadgeID: BadgeNightOwl, Name: "Night Owl", Description: "Attended an event starting after 10pm", Category: models.BadgeCategoryEvent},
		{BadgeID: BadgeWeekendWarrior, Name: "Weekend Warrior", Description: "Attended events 4 Saturdays in a row", Category: models.BadgeCategoryEvent},
		{BadgeID: BadgeMonthlyRegular, Name: "Monthly Regular", Description: "Attended events 6 months in a row", Category: models.BadgeCategoryEvent},
		{BadgeID: BadgeInnerCircle, Name: "Inner Circle", Description: "Shared 5 events with each of 3 friends", Category: models.BadgeCategorySocial},
	}
}
