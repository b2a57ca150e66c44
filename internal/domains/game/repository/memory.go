package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"game-tracker-backend/internal/domains/game/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository giữ games trong map, bảo vệ bởi RWMutex
type MemoryRepository struct {
	mu    sync.RWMutex
	games map[string]*model.Game
	now   func() time.Time
}

var _ RepositoryInterface = (*MemoryRepository)(nil)

// NewMemoryRepository tạo store in-memory, dùng cho test và STORE_DRIVER=memory
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		games: make(map[string]*model.Game),
		now:   time.Now,
	}
}

// WithClock overrides the timestamp source.
func (r *MemoryRepository) WithClock(now func() time.Time) *MemoryRepository {
	r.now = now
	return r
}

func (r *MemoryRepository) Create(ctx context.Context, game *model.Game) (*model.Game, error) {
	stored := game.Clone()
	stored.ID = primitive.NewObjectID().Hex()
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.mu.Lock()
	r.games[stored.ID] = stored
	r.mu.Unlock()

	return stored.Clone(), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[strings.ToLower(id)]
	if !ok {
		return nil, model.NewGameNotFound()
	}
	return g.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.Game, error) {
	filter = filter.Normalize()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	out := make([]*model.Game, 0, len(r.games))
	for _, g := range r.games {
		if filter.Status != "" && string(g.Status) != filter.Status {
			continue
		}
		if search != "" && !matchesSearch(g, search) {
			continue
		}
		out = append(out, g.Clone())
	}
	r.mu.RUnlock()

	sortGames(out, filter.Sort, filter.Order)
	return out, nil
}

func (r *MemoryRepository) SearchTitles(ctx context.Context, query string, limit int) ([]*model.Game, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*model.Game{}, nil
	}

	r.mu.RLock()
	out := make([]*model.Game, 0)
	for _, g := range r.games {
		if strings.Contains(strings.ToLower(g.Title), q) {
			out = append(out, g.Clone())
		}
	}
	r.mu.RUnlock()

	sortGames(out, model.SortTitle, model.OrderAsc)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, game *model.Game) (*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.games[strings.ToLower(id)]
	if !ok {
		return nil, model.NewGameNotFound()
	}

	updated := game.Clone()
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now().UTC()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}
	r.games[existing.ID] = updated

	return updated.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(id)
	if _, ok := r.games[key]; !ok {
		return model.NewGameNotFound()
	}
	delete(r.games, key)
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func matchesSearch(g *model.Game, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(g.Title), lowerQuery) {
		return true
	}
	if g.Developer != nil && strings.Contains(strings.ToLower(*g.Developer), lowerQuery) {
		return true
	}
	if g.Publisher != nil && strings.Contains(strings.ToLower(*g.Publisher), lowerQuery) {
		return true
	}
	return false
}

// sortGames orders by the requested field, ID ascending as tiebreak
func sortGames(games []*model.Game, field, order string) {
	compare := func(a, b *model.Game) int {
		switch field {
		case model.SortRating:
			return compareFloat(a.Rating, b.Rating)
		case model.SortHoursPlayed:
			return compareFloat(a.HoursPlayed, b.HoursPlayed)
		case model.SortStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		case model.SortPlatform:
			return strings.Compare(string(a.Platform), string(b.Platform))
		default:
			return strings.Compare(a.Title, b.Title)
		}
	}

	sort.SliceStable(games, func(i, j int) bool {
		c := compare(games[i], games[j])
		if c == 0 {
			return games[i].ID < games[j].ID
		}
		if order == model.OrderDesc {
			return c > 0
		}
		return c < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
