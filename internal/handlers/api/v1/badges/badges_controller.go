package badges

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"placehub/internal/response"
	"placehub/internal/services"
)

// BadgeController exposes badge triggers to internal callers and the admin
// recalculate action.
type BadgeController struct {
	badges          services.BadgeService
	logger          *zap.Logger
	responseBuilder *response.Builder
}

func NewBadgeController(badges services.BadgeService, logger *zap.Logger, responseBuilder *response.Builder) *BadgeController {
	return &BadgeController{
		badges:          badges,
		logger:          logger,
		responseBuilder: responseBuilder,
	}
}

// RegisterRoutes mounts the trigger and admin endpoints on r.
func (c *BadgeController) RegisterRoutes(r chi.Router) {
	r.Route("/internal/badges", func(r chi.Router) {
		r.Post("/users/{userID}/reviews/{reviewID}", c.ReviewCreated)
		r.Post("/reviews/{reviewID}/likes", c.ReviewLiked)
		r.Post("/users/{userID}/events", c.EventCheck)
	})
	r.Route("/admin/users/{userID}/badges", func(r chi.Router) {
		r.Get("/", c.ListUserBadges)
		r.Post("/recalculate", c.Recalculate)
	})
}

// ReviewCreated handles POST /internal/badges/users/{userID}/reviews/{reviewID}
func (c *BadgeController) ReviewCreated(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathID(w, r, "userID")
	if !ok {
		return
	}
	reviewID, ok := c.pathID(w, r, "reviewID")
	if !ok {
		return
	}

	if err := c.badges.OnReviewCreated(r.Context(), userID, reviewID); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewInternalError("badge evaluation failed", err))
		return
	}
	c.responseBuilder.WriteNoContent(w)
}

// ReviewLiked handles POST /internal/badges/reviews/{reviewID}/likes
func (c *BadgeController) ReviewLiked(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := c.pathID(w, r, "reviewID")
	if !ok {
		return
	}

	if err := c.badges.OnReviewLiked(r.Context(), reviewID); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewInternalError("badge evaluation failed", err))
		return
	}
	c.responseBuilder.WriteNoContent(w)
}

// EventCheck handles POST /internal/badges/users/{userID}/events
func (c *BadgeController) EventCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := c.badges.OnEventBadgesCheck(r.Context(), userID); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewInternalError("badge evaluation failed", err))
		return
	}
	c.responseBuilder.WriteNoContent(w)
}

// RecalculateResponse lists the badges a recheck granted.
type RecalculateResponse struct {
	UserID  int64    `json:"user_id"`
	Granted []string `json:"granted"`
}

// Recalculate handles POST /admin/users/{userID}/badges/recalculate
func (c *BadgeController) Recalculate(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathID(w, r, "userID")
	if !ok {
		return
	}

	granted, err := c.badges.OnManualRecheck(r.Context(), userID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewInternalError("badge recalculation failed", err))
		return
	}

	c.logger.Info("Badges recalculated via admin API",
		zap.Int64("user_id", userID),
		zap.Int("granted", len(granted)),
	)
	c.responseBuilder.WriteSuccess(w, r, RecalculateResponse{UserID: userID, Granted: granted})
}

// ListUserBadges handles GET /admin/users/{userID}/badges
func (c *BadgeController) ListUserBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathID(w, r, "userID")
	if !ok {
		return
	}

	views, err := c.badges.ListUserBadges(r.Context(), userID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, views)
}

// pathID parses a positive integer path parameter, writing a 400 on failure.
func (c *BadgeController) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(fmt.Sprintf("invalid %s: %q", name, raw), err))
		return 0, false
	}
	return id, true
}
