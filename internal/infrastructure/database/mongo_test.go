package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func testMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "gametracker_test",
		Collection:     "games",
		MaxRetries:     1,
		ConnectTimeout: time.Second,
	}
}

func TestMongoDB_ConcurrentFirstAccessConnectsOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	fake := &mongo.Client{}

	db := NewMongoDB(testMongoConfig()).WithConnectFunc(func(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return fake, nil
	})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*mongo.Client, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = db.Client(context.Background())
		}(i)
	}

	// let every goroutine reach the in-flight attempt before it completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, fake, results[i])
	}

	// cached afterwards
	c, err := db.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, fake, c)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMongoDB_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &mongo.Client{}

	db := NewMongoDB(testMongoConfig()).WithConnectFunc(func(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
		close(started)
		select {
		case <-release:
			return fake, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := db.Client(leaderCtx)
		leaderErr <- err
	}()
	<-started

	type result struct {
		client *mongo.Client
		err    error
	}
	waiter := make(chan result, 1)
	go func() {
		c, err := db.Client(context.Background())
		waiter <- result{c, err}
	}()

	// waiter join attempt đang chạy rồi leader bỏ cuộc
	time.Sleep(50 * time.Millisecond)
	cancelLeader()

	err := <-leaderErr
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	got := <-waiter
	require.NoError(t, got.err)
	assert.Same(t, fake, got.client)

	c, err := db.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, fake, c)
}

func TestMongoDB_ConnectBudget(t *testing.T) {
	cfg := testMongoConfig()
	cfg.MaxRetries = 3
	cfg.ConnectTimeout = time.Second
	cfg.RetryDelay = 100 * time.Millisecond

	assert.Equal(t, 3300*time.Millisecond, NewMongoDB(cfg).connectBudget())
}

func TestMongoDB_FailedAttemptIsNotCached(t *testing.T) {
	var calls int32
	fake := &mongo.Client{}
	boom := errors.New("server selection timeout")

	db := NewMongoDB(testMongoConfig()).WithConnectFunc(func(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return fake, nil
	})

	_, err := db.Client(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	c, err := db.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, fake, c)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMongoDB_ClosedGatewayRejectsCalls(t *testing.T) {
	db := NewMongoDB(testMongoConfig()).WithConnectFunc(func(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
		t.Fatal("connect must not be called after Close")
		return nil, nil
	})

	require.NoError(t, db.Close(context.Background()))

	_, err := db.Client(context.Background())
	assert.ErrorIs(t, err, ErrGatewayClosed)
}
