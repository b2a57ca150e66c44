package repository

import (
	"context"

	"game-tracker-backend/internal/domains/game/model"
)

// RepositoryInterface defines all data access operations for the Game collection.
// Implementations return *model.GameError for not-found and persistence failures.
type RepositoryInterface interface {
	// Create inserts a new game; the store assigns ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, game *model.Game) (*model.Game, error)

	// GetByID returns GAME_NOT_FOUND if no document matches.
	GetByID(ctx context.Context, id string) (*model.Game, error)

	// List applies the status / search filter and sort. Never fails on empty results.
	List(ctx context.Context, filter model.ListFilter) ([]*model.Game, error)

	// SearchTitles is the autocomplete query: title substring, title ascending, at most limit rows.
	SearchTitles(ctx context.Context, query string, limit int) ([]*model.Game, error)

	// Update replaces the mutable fields of an existing game and refreshes UpdatedAt.
	Update(ctx context.Context, id string, game *model.Game) (*model.Game, error)

	// Delete removes the game permanently.
	Delete(ctx context.Context, id string) error

	// Ping reports store availability for health checks.
	Ping(ctx context.Context) error
}
