package services

import (
	"context"
	"sync"
	"time"

	"placehub/internal/models"
	"placehub/internal/repositories"
)

// fakeActivity derives every aggregate from an in-memory list of published
// reviews, kept in creation order.
type fakeActivity struct {
	mu          sync.Mutex
	reviews     []*models.Review
	attended    map[int64][]time.Time
	hosted      map[int64]int
	coAttendees map[int64]map[int64]int
	err         error
}

func newFakeActivity() *fakeActivity {
	return &fakeActivity{
		attended:    make(map[int64][]time.Time),
		hosted:      make(map[int64]int),
		coAttendees: make(map[int64]map[int64]int),
	}
}

func (f *fakeActivity) addReview(r models.Review) *models.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.reviews) + 1)
	if r.Status == "" {
		r.Status = models.ReviewStatusPublished
	}
	f.reviews = append(f.reviews, &r)
	return &r
}

func (f *fakeActivity) published() []*models.Review {
	var out []*models.Review
	for _, r := range f.reviews {
		if r.Status == models.ReviewStatusPublished {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeActivity) GetReview(_ context.Context, reviewID int64) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.published() {
		if r.ID == reviewID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeActivity) ListReviewIDsByAuthor(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ids := []int64{}
	for _, r := range f.published() {
		if r.AuthorID == userID {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (f *fakeActivity) CountPlaceReviews(_ context.Context, placeID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, r := range f.published() {
		if r.PlaceID == placeID {
			n++
		}
	}
	return n, nil
}

func (f *fakeActivity) CountPhotoReviews(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, r := range f.published() {
		if r.AuthorID == userID && r.PhotoCount > 0 {
			n++
		}
	}
	return n, nil
}

func (f *fakeActivity) CountFirstReviews(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	firstByPlace := make(map[int64]int64)
	for _, r := range f.published() {
		if _, ok := firstByPlace[r.PlaceID]; !ok {
			firstByPlace[r.PlaceID] = r.AuthorID
		}
	}
	n := 0
	for _, author := range firstByPlace {
		if author == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeActivity) CountCategoryPlaces(_ context.Context, userID int64, category string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	places := make(map[int64]bool)
	for _, r := range f.published() {
		if r.AuthorID == userID && r.PlaceCategory == category {
			places[r.PlaceID] = true
		}
	}
	return len(places), nil
}

func (f *fakeActivity) AttendedEventTimes(_ context.Context, userID int64) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]time.Time{}, f.attended[userID]...), nil
}

func (f *fakeActivity) MaxHostedAttendance(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.hosted[userID], nil
}

func (f *fakeActivity) CoAttendeeCounts(_ context.Context, userID int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]int)
	for id, n := range f.coAttendees[userID] {
		out[id] = n
	}
	return out, nil
}

type fakeUsers struct {
	ids    map[int64]bool
	awards *fakeAwards
	err    error
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.ids[id] {
		return nil, nil
	}
	held, err := f.awards.ListByUser(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Badges: held}, nil
}

func (f *fakeUsers) Exists(_ context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

// fakeCatalog also records invalidations so tests can see the ledger
// refreshing cached entries.
type fakeCatalog struct {
	mu          sync.Mutex
	badges      map[string]*models.Badge
	invalidated []string
	err         error
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*models.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.badges[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeCatalog) List(context.Context) ([]*models.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Badge, 0, len(f.badges))
	for _, b := range f.badges {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCatalog) Upsert(_ context.Context, b *models.Badge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *b
	if existing, ok := f.badges[b.BadgeID]; ok {
		cp.TotalAwarded = existing.TotalAwarded
	}
	f.badges[b.BadgeID] = &cp
	return nil
}

func (f *fakeCatalog) Invalidate(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
}

func (f *fakeCatalog) total(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.badges[id]; ok {
		return b.TotalAwarded
	}
	return 0
}

type awardKey struct {
	userID  int64
	badgeID string
}

// fakeAwards grants under a mutex, matching the single-transaction grant
// of the Postgres repository.
type fakeAwards struct {
	mu      sync.Mutex
	catalog *fakeCatalog
	held    map[awardKey]time.Time
	order   []awardKey
	err     error
}

func (f *fakeAwards) Grant(_ context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	key := awardKey{userID, badgeID}
	if _, ok := f.held[key]; ok {
		return false, nil
	}
	f.held[key] = earnedAt
	f.order = append(f.order, key)

	f.catalog.mu.Lock()
	f.catalog.badges[badgeID].TotalAwarded++
	f.catalog.mu.Unlock()
	return true, nil
}

func (f *fakeAwards) ListByUser(_ context.Context, userID int64) ([]models.UserBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.UserBadge{}
	for _, key := range f.order {
		if key.userID == userID {
			out = append(out, models.UserBadge{UserID: userID, BadgeID: key.badgeID, EarnedAt: f.held[key]})
		}
	}
	return out, nil
}

func (f *fakeAwards) heldBy(userID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, key := range f.order {
		if key.userID == userID {
			ids = append(ids, key.badgeID)
		}
	}
	return ids
}

type fakeStore struct {
	activity *fakeActivity
	users    *fakeUsers
	catalog  *fakeCatalog
	awards   *fakeAwards
}

// newFakeStore seeds the catalog with defs and registers userIDs.
func newFakeStore(defs []models.Badge, userIDs ...int64) *fakeStore {
	catalog := &fakeCatalog{badges: make(map[string]*models.Badge)}
	for i := range defs {
		b := defs[i]
		catalog.badges[b.BadgeID] = &b
	}
	awards := &fakeAwards{catalog: catalog, held: make(map[awardKey]time.Time)}
	users := &fakeUsers{ids: make(map[int64]bool), awards: awards}
	for _, id := range userIDs {
		users.ids[id] = true
	}
	return &fakeStore{
		activity: newFakeActivity(),
		users:    users,
		catalog:  catalog,
		awards:   awards,
	}
}

func (s *fakeStore) collection() *repositories.Collection {
	return &repositories.Collection{
		User:     s.users,
		Badge:    s.catalog,
		Award:    s.awards,
		Activity: s.activity,
	}
}
