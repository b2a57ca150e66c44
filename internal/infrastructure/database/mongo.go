package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"game-tracker-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"
)

// ErrGatewayClosed is returned by Client after Close.
var ErrGatewayClosed = errors.New("mongo gateway is closed")

// MongoConfig chứa thông tin kết nối MongoDB
type MongoConfig struct {
	URI        string
	Database   string
	Collection string

	MaxPoolSize    uint64
	MaxRetries     int
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
}

// ConnectFunc establishes and verifies one client.
type ConnectFunc func(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error)

// MongoDB là Persistence Gateway: giữ một client dùng chung cho toàn process.
//
// Client được tạo lazily ở lần gọi đầu tiên. Các caller đồng thời cùng chờ
// một lần connect duy nhất; nếu lần đó thất bại thì không có gì được cache
// và lần gọi sau sẽ thử lại.
type MongoDB struct {
	Config *MongoConfig

	connect ConnectFunc
	group   singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
	closed bool
}

// NewMongoDB tạo gateway. Chưa mở connection nào cho tới Open hoặc Client.
func NewMongoDB(cfg *MongoConfig) *MongoDB {
	return &MongoDB{
		Config:  cfg,
		connect: connectWithRetry,
	}
}

// WithConnectFunc replaces the dial step, mainly for tests.
func (db *MongoDB) WithConnectFunc(fn ConnectFunc) *MongoDB {
	db.connect = fn
	return db
}

// Open eagerly establishes the connection so startup fails fast.
func (db *MongoDB) Open(ctx context.Context) error {
	_, err := db.Client(ctx)
	return err
}

// Client trả về client đang sống, hoặc join lần connect đang chạy
func (db *MongoDB) Client(ctx context.Context) (*mongo.Client, error) {
	db.mu.RLock()
	client, closed := db.client, db.closed
	db.mu.RUnlock()

	if closed {
		return nil, ErrGatewayClosed
	}
	if client != nil {
		return client, nil
	}

	ch := db.group.DoChan("connect", func() (interface{}, error) {
		db.mu.RLock()
		existing := db.client
		db.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		// Lần connect dùng chung không bị huỷ theo request đã khởi động nó
		connectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), db.connectBudget())
		defer cancel()

		c, err := db.connect(connectCtx, db.Config)
		if err != nil {
			return nil, err
		}

		db.mu.Lock()
		defer db.mu.Unlock()
		if db.closed {
			_ = c.Disconnect(context.Background())
			return nil, ErrGatewayClosed
		}
		db.client = c
		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("mongo connect: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			logger.Error("[MONGO] Connection failed", res.Err)
			return nil, fmt.Errorf("mongo connect: %w", res.Err)
		}
		if res.Shared {
			logger.Debug("[MONGO] Joined in-flight connection attempt", nil)
		}
		return res.Val.(*mongo.Client), nil
	}
}

// connectBudget bao trọn mọi attempt và khoảng backoff giữa chúng
func (db *MongoDB) connectBudget() time.Duration {
	attempts := db.Config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	budget := db.Config.ConnectTimeout * time.Duration(attempts)
	for attempt := 1; attempt < attempts; attempt++ {
		budget += db.Config.RetryDelay * time.Duration(1<<uint(attempt-1))
	}
	if budget <= 0 {
		budget = 10 * time.Second
	}
	return budget
}

// Collection trả về handle của games collection
func (db *MongoDB) Collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := db.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(db.Config.Database).Collection(db.Config.Collection), nil
}

// EnsureIndexes tạo index cho các field hay query/sort
func (db *MongoDB) EnsureIndexes(ctx context.Context) error {
	coll, err := db.Collection(ctx)
	if err != nil {
		return err
	}

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetName("idx_games_title")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("idx_games_status")},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	logger.Info("[MONGO] Indexes ensured", map[string]interface{}{"collection": db.Config.Collection})
	return nil
}

// HealthCheck ping MongoDB với timeout ngắn
func (db *MongoDB) HealthCheck(ctx context.Context) error {
	client, err := db.Client(ctx)
	if err != nil {
		return err
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(healthCtx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// Close disconnects the cached client. Later Client calls fail.
func (db *MongoDB) Close(ctx context.Context) error {
	db.mu.Lock()
	client := db.client
	db.client = nil
	db.closed = true
	db.mu.Unlock()

	if client == nil {
		return nil
	}

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	logger.Info("[MONGO] Connection closed", nil)
	return nil
}

// connectWithRetry thực hiện connect + ping với exponential backoff
func connectWithRetry(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("[MONGO] Connection attempt", map[string]interface{}{
			"attempt": attempt,
			"max":     attempts,
		})

		connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		client, err := mongo.Connect(connectCtx, opts)
		if err == nil {
			err = client.Ping(connectCtx, nil)
			if err != nil {
				_ = client.Disconnect(context.Background())
			}
		}
		cancel()

		if err == nil {
			logger.Info("[MONGO] Connected", map[string]interface{}{"database": cfg.Database})
			return client, nil
		}
		lastErr = err

		if attempt < attempts {
			// delay = base_delay * 2^(attempt-1)
			delay := cfg.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, lastErr)
}
