package config

import (
	"fmt"
	"strconv"
	"time"

	"game-tracker-backend/internal/infrastructure/database"
)

// LoadDatabaseConfig đọc config PostgreSQL từ environment variables và trả về DBConfig
func LoadDatabaseConfig() (*database.DBConfig, error) {
	// Parse integers
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNECTIONS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNECTIONS: %w", err)
	}

	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNECTIONS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNECTIONS: %w", err)
	}

	maxRetries, err := strconv.Atoi(getEnv("DB_MAX_RETRIES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_RETRIES: %w", err)
	}

	// Parse durations
	maxConnLifetime, err := time.ParseDuration(getEnv("DB_MAX_CONN_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONN_LIFETIME: %w", err)
	}

	maxConnIdleTime, err := time.ParseDuration(getEnv("DB_MAX_CONN_IDLE_TIME", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONN_IDLE_TIME: %w", err)
	}

	healthCheckPeriod, err := time.ParseDuration(getEnv("DB_HEALTH_CHECK_PERIOD", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_HEALTH_CHECK_PERIOD: %w", err)
	}

	retryDelay, err := time.ParseDuration(getEnv("DB_RETRY_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_RETRY_DELAY: %w", err)
	}

	connectTimeout, err := time.ParseDuration(getEnv("DB_CONNECT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONNECT_TIMEOUT: %w", err)
	}

	return &database.DBConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              port,
		Username:          getEnv("DB_USER", "gametracker"),
		Password:          getEnv("DB_PASSWORD", "secret"),
		DBName:            getEnv("DB_NAME", "gametracker_dev"),
		MaxConns:          int32(maxConns),
		MinConns:          int32(minConns),
		MaxConnLifetime:   maxConnLifetime,
		MaxConnIdleTime:   maxConnIdleTime,
		HealthCheckPeriod: healthCheckPeriod,
		MaxRetries:        maxRetries,
		RetryDelay:        retryDelay,
		ConnectTimeout:    connectTimeout,
	}, nil
}

// LoadMongoConfig đọc config MongoDB. MONGODB_URI là bắt buộc.
func LoadMongoConfig() (*database.MongoConfig, error) {
	uri := getEnv("MONGODB_URI", "")
	if uri == "" {
		return nil, &ConfigError{Key: "MONGODB_URI", Reason: "must be set"}
	}

	maxPoolSize, err := strconv.ParseUint(getEnv("MONGODB_MAX_POOL_SIZE", "50"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_MAX_POOL_SIZE: %w", err)
	}

	maxRetries, err := strconv.Atoi(getEnv("MONGODB_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_MAX_RETRIES: %w", err)
	}

	connectTimeout, err := time.ParseDuration(getEnv("MONGODB_CONNECT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_CONNECT_TIMEOUT: %w", err)
	}

	retryDelay, err := time.ParseDuration(getEnv("MONGODB_RETRY_DELAY", "500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_RETRY_DELAY: %w", err)
	}

	return &database.MongoConfig{
		URI:            uri,
		Database:       getEnv("MONGODB_DATABASE", "gametracker"),
		Collection:     getEnv("MONGODB_COLLECTION", "games"),
		MaxPoolSize:    maxPoolSize,
		MaxRetries:     maxRetries,
		RetryDelay:     retryDelay,
		ConnectTimeout: connectTimeout,
	}, nil
}
