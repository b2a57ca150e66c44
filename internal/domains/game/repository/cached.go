package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"game-tracker-backend/internal/domains/game/model"
	"game-tracker-backend/pkg/cache"
	"game-tracker-backend/pkg/logger"
)

const (
	gameKeyPrefix    = "game:"
	listKeyPrefix    = "games:list:"
	listKeyPattern   = listKeyPrefix + "*"
	DefaultGameCache = 15 * time.Minute
)

// cachedRepository bọc một RepositoryInterface bằng cache-aside.
// Cache lỗi thì coi như miss, request không bao giờ fail vì cache.
//
// gen tăng sau mỗi write. Một read chỉ được ghi lại vào cache khi gen không
// đổi trong lúc nó fetch từ store, nên dữ liệu cũ không quay lại cache sau
// khi write đã invalidate.
type cachedRepository struct {
	inner RepositoryInterface
	cache cache.Cache
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewCachedRepository wraps inner with a read-through cache on GetByID and List.
func NewCachedRepository(inner RepositoryInterface, c cache.Cache, ttl time.Duration) RepositoryInterface {
	if ttl <= 0 {
		ttl = DefaultGameCache
	}
	return &cachedRepository{inner: inner, cache: c, ttl: ttl}
}

func gameKey(id string) string {
	return gameKeyPrefix + strings.ToLower(id)
}

func listKey(f model.ListFilter) string {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	return fmt.Sprintf("%s%s|%x|%s|%s", listKeyPrefix, f.Status, search, f.Sort, f.Order)
}

func (r *cachedRepository) Create(ctx context.Context, game *model.Game) (*model.Game, error) {
	created, err := r.inner.Create(ctx, game)
	if err != nil {
		return nil, err
	}
	r.invalidateLists(ctx)
	return created, nil
}

func (r *cachedRepository) GetByID(ctx context.Context, id string) (*model.Game, error) {
	key := gameKey(id)

	var g model.Game
	found, err := r.cache.Get(ctx, key, &g)
	if err == nil && found {
		return &g, nil
	}
	if err != nil {
		logger.Warn("game cache get failed", err)
	}

	gen := r.generation()
	fetched, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, gen, key, fetched)
	return fetched, nil
}

func (r *cachedRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.Game, error) {
	filter = filter.Normalize()
	key := listKey(filter)

	var games []*model.Game
	found, err := r.cache.Get(ctx, key, &games)
	if err == nil && found && games != nil {
		return games, nil
	}

	gen := r.generation()
	games, err = r.inner.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, gen, key, games)
	return games, nil
}

// SearchTitles không cache: kết quả phụ thuộc prefix người dùng đang gõ
func (r *cachedRepository) SearchTitles(ctx context.Context, query string, limit int) ([]*model.Game, error) {
	return r.inner.SearchTitles(ctx, query, limit)
}

func (r *cachedRepository) Update(ctx context.Context, id string, game *model.Game) (*model.Game, error) {
	updated, err := r.inner.Update(ctx, id, game)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return updated, nil
}

func (r *cachedRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedRepository) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

func (r *cachedRepository) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// fill ghi value vào cache nếu không có write nào xảy ra kể từ gen
func (r *cachedRepository) fill(ctx context.Context, gen uint64, key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		logger.Debug("skip stale cache fill", map[string]interface{}{"key": key})
		return
	}
	if err := r.cache.Set(ctx, key, value, r.ttl); err != nil {
		logger.Warn("game cache set failed", err)
	}
}

// invalidate chạy sau khi write vào store đã xong
func (r *cachedRepository) invalidate(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	if err := r.cache.Delete(ctx, gameKey(id)); err != nil {
		logger.Warn("game cache delete failed", err)
	}
	r.deleteLists(ctx)
}

func (r *cachedRepository) invalidateLists(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.deleteLists(ctx)
}

func (r *cachedRepository) deleteLists(ctx context.Context) {
	if err := r.cache.DeletePattern(ctx, listKeyPattern); err != nil {
		logger.Warn("game list cache invalidation failed", err)
	}
}
