package repositories

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"placehub/internal/database"
	"placehub/internal/models"
)

type activityRepository struct {
	*BaseRepository
}

// NewActivityRepository creates the read-only activity reader.
func NewActivityRepository(db *database.Manager, logger *zap.Logger) ActivityRepository {
	return &activityRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// ===============================
// REVIEWS
// ===============================

func (r *activityRepository) GetReview(ctx context.Context, reviewID int64) (*models.Review, error) {
	query := `
		SELECT r.id, r.author_id, r.place_id, r.event_id, r.body,
		       r.photo_count, r.likes_count, r.status, r.created_at, p.category
		FROM reviews r
		JOIN places p ON p.id = r.place_id
		WHERE r.id = $1 AND r.status = 'published'`

	rv := &models.Review{}
	err := r.QueryRowContext(ctx, query, reviewID).Scan(
		&rv.ID, &rv.AuthorID, &rv.PlaceID, &rv.EventID, &rv.Body,
		&rv.PhotoCount, &rv.LikesCount, &rv.Status, &rv.CreatedAt, &rv.PlaceCategory,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		r.GetLogger().Error("Failed to get review", zap.Error(err), zap.Int64("review_id", reviewID))
		return nil, fmt.Errorf("get review %d: %w", reviewID, err)
	}
	return rv, nil
}

func (r *activityRepository) ListReviewIDsByAuthor(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT id FROM reviews
		WHERE author_id = $1 AND status = 'published'
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews for user %d: %w", userID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan review id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *activityRepository) CountPlaceReviews(ctx context.Context, placeID int64) (int, error) {
	return r.countQuery(ctx, "count place reviews",
		`SELECT COUNT(*) FROM reviews WHERE place_id = $1 AND status = 'published'`, placeID)
}

func (r *activityRepository) CountPhotoReviews(ctx context.Context, userID int64) (int, error) {
	return r.countQuery(ctx, "count photo reviews",
		`SELECT COUNT(*) FROM reviews WHERE author_id = $1 AND status = 'published' AND photo_count > 0`, userID)
}

func (r *activityRepository) CountFirstReviews(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reviews r
		WHERE r.author_id = $1
		  AND r.status = 'published'
		  AND NOT EXISTS (
		      SELECT 1 FROM reviews o
		      WHERE o.place_id = r.place_id
		        AND o.status = 'published'
		        AND (o.created_at < r.created_at OR (o.created_at = r.created_at AND o.id < r.id))
		  )`
	return r.countQuery(ctx, "count first reviews", query, userID)
}

func (r *activityRepository) CountCategoryPlaces(ctx context.Context, userID int64, category string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT r.place_id)
		FROM reviews r
		JOIN places p ON p.id = r.place_id
		WHERE r.author_id = $1 AND r.status = 'published' AND p.category = $2`
	return r.countQuery(ctx, "count category places", query, userID, category)
}

// ===============================
// EVENTS
// ===============================

func (r *activityRepository) AttendedEventTimes(ctx context.Context, userID int64) ([]time.Time, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT e.starts_at
		FROM event_attendees a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1 AND e.status = 'completed'
		ORDER BY e.starts_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attended events for user %d: %w", userID, err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan event time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *activityRepository) MaxHostedAttendance(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COALESCE(MAX(n), 0) FROM (
		    SELECT COUNT(a.user_id) AS n
		    FROM events e
		    LEFT JOIN event_attendees a ON a.event_id = e.id AND a.user_id <> e.host_id
		    WHERE e.host_id = $1 AND e.status = 'completed'
		    GROUP BY e.id
		) hosted`
	return r.countQuery(ctx, "max hosted attendance", query, userID)
}

func (r *activityRepository) CoAttendeeCounts(ctx context.Context, userID int64) (map[int64]int, error) {
	query := `
		SELECT other.user_id, COUNT(*)
		FROM event_attendees mine
		JOIN events e ON e.id = mine.event_id AND e.status = 'completed'
		JOIN event_attendees other ON other.event_id = mine.event_id AND other.user_id <> mine.user_id
		WHERE mine.user_id = $1
		  AND EXISTS (
		      SELECT 1 FROM friendships f
		      WHERE f.status = 'accepted'
		        AND ((f.requester_id = $1 AND f.addressee_id = other.user_id)
		          OR (f.addressee_id = $1 AND f.requester_id = other.user_id))
		  )
		GROUP BY other.user_id`

	rows, err := r.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("co-attendee counts for user %d: %w", userID, err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan co-attendee: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
