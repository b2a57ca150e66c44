package container

import (
	"context"
	"fmt"
	"time"

	"game-tracker-backend/internal/config"
	"game-tracker-backend/internal/domains/game/handler"
	"game-tracker-backend/internal/domains/game/repository"
	"game-tracker-backend/internal/domains/game/service"
	infraCache "game-tracker-backend/internal/infrastructure/cache"
	"game-tracker-backend/internal/infrastructure/database"
	"game-tracker-backend/pkg/cache"
	"game-tracker-backend/pkg/logger"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa tất cả dependencies của application.
// Thứ tự khởi tạo: Config -> Infrastructure (store, cache) -> Repository -> Service -> Handler
type Container struct {
	// INFRASTRUCTURE LAYER
	Config   *config.Config
	Mongo    *database.MongoDB    // nil trừ khi STORE_DRIVER=mongo
	Postgres *database.PostgresDB // nil trừ khi STORE_DRIVER=postgres
	Cache    cache.Cache          // nil khi CACHE_DRIVER=none

	// REPOSITORY LAYER
	GameRepo repository.RepositoryInterface

	// SERVICE LAYER
	GameService service.ServiceInterface

	// HANDLER LAYER
	GameHandler *handler.GameHandler
}

// NewContainer load config từ environment rồi build dependency graph
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Build(ctx, cfg)
}

// Build dựng container từ config đã có. Lỗi ở bất kỳ bước nào đều fatal.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.Info("Initializing DI container", map[string]interface{}{
		"environment":  cfg.App.Environment,
		"store_driver": cfg.Store.Driver,
		"cache_driver": cfg.Cache.Driver,
	})

	c := &Container{Config: cfg}

	store, err := c.initStore(ctx)
	if err != nil {
		c.Cleanup(context.Background())
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	c.initCache(ctx)

	c.GameRepo = store
	if c.Cache != nil {
		c.GameRepo = repository.NewCachedRepository(store, c.Cache, cfg.Cache.TTL)
	}

	c.GameService = service.NewGameService(c.GameRepo)
	c.GameHandler = handler.NewGameHandler(c.GameService)

	logger.Info("DI container initialized", nil)
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initStore(ctx context.Context) (repository.RepositoryInterface, error) {
	switch c.Config.Store.Driver {
	case config.StoreMongo:
		mongoCfg, err := config.LoadMongoConfig()
		if err != nil {
			return nil, err
		}

		// Gateway connect lazily; index được tạo best-effort lúc startup
		c.Mongo = database.NewMongoDB(mongoCfg)
		indexCtx, cancel := context.WithTimeout(ctx, mongoCfg.ConnectTimeout)
		defer cancel()
		if err := c.Mongo.EnsureIndexes(indexCtx); err != nil {
			logger.Warn("MongoDB not reachable at startup, will connect on first request", err)
		}

		return repository.NewMongoRepository(c.Mongo), nil

	case config.StorePostgres:
		dbConfig, err := config.LoadDatabaseConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load database config: %w", err)
		}

		db := database.NewPostgresDB(dbConfig)

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := db.Connect(connectCtx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Postgres = db

		if err := repository.EnsurePostgresSchema(connectCtx, db.Pool); err != nil {
			return nil, err
		}

		return repository.NewPostgresRepository(db), nil

	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart", nil)
		return repository.NewMemoryRepository(), nil
	}

	return nil, &config.ConfigError{Key: "STORE_DRIVER", Reason: fmt.Sprintf("unsupported value %q", c.Config.Store.Driver)}
}

func (c *Container) initCache(ctx context.Context) {
	switch c.Config.Cache.Driver {
	case config.CacheRedis:
		redisCache := infraCache.NewRedisCache(
			c.Config.Redis.Host,
			c.Config.Redis.Password,
			c.Config.Redis.DB,
		)

		// Redis failure không critical - cached repository coi lỗi là cache miss
		if err := redisCache.Connect(ctx); err != nil {
			logger.Warn("Redis connection failed (non-critical)", err)
		} else {
			logger.Info("Redis connected", map[string]interface{}{"host": c.Config.Redis.Host})
		}
		c.Cache = redisCache

	case config.CacheMemory:
		c.Cache = cache.NewMemoryCache()
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup(ctx context.Context) {
	logger.Info("Cleaning up container resources", nil)

	if c.Mongo != nil {
		if err := c.Mongo.Close(ctx); err != nil {
			logger.Warn("Failed to close MongoDB", err)
		}
	}

	if c.Postgres != nil {
		if stats, err := c.Postgres.Stats(); err == nil {
			logger.Info("Database pool stats at shutdown", map[string]interface{}{
				"total_conns":    stats.TotalConns,
				"idle_conns":     stats.IdleConns,
				"acquired_conns": stats.AcquiredConns,
			})
		}
		c.Postgres.Close()
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			logger.Warn("Failed to close Redis", err)
		}
	}

	logger.Info("Container cleanup completed", nil)
}
