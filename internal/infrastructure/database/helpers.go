package database

import (
	"context"
	"fmt"
	"time"

	"game-tracker-backend/pkg/logger"
)

// PoolStats là snapshot thống kê của connection pool
type PoolStats struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

// Ping kiểm tra database connection có còn sống không
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Stats trả về thống kê hiện tại của pool
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	s := db.Pool.Stat()
	return &PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}, nil
}

// Close đóng tất cả connections trong pool.
// Safe to call multiple times.
func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}

	logger.Info("[DATABASE] Closing database connection pool...", nil)
	db.Pool.Close()
	db.Pool = nil
}
