package service

import (
	"context"

	"game-tracker-backend/internal/domains/game/model"
)

// ServiceInterface - business logic của Game domain
type ServiceInterface interface {
	CreateGame(ctx context.Context, req *model.CreateGameRequest) (*model.Game, error)
	GetGame(ctx context.Context, id string) (*model.Game, error)
	ListGames(ctx context.Context, filter model.ListFilter) ([]*model.Game, error)
	SearchGames(ctx context.Context, query string) ([]model.GameSummary, error)
	UpdateGame(ctx context.Context, id string, req *model.UpdateGameRequest) (*model.Game, error)
	DeleteGame(ctx context.Context, id string) error
	GetStats(ctx context.Context) (*model.Stats, error)
	Health(ctx context.Context) error
}
