package service

import (
	"context"
	"strings"

	"game-tracker-backend/internal/domains/game/model"
	"game-tracker-backend/internal/domains/game/repository"
	"game-tracker-backend/pkg/logger"
)

type gameService struct {
	repo repository.RepositoryInterface
}

// NewGameService creates a new game service instance
func NewGameService(repo repository.RepositoryInterface) ServiceInterface {
	return &gameService{
		repo: repo,
	}
}

func (s *gameService) CreateGame(ctx context.Context, req *model.CreateGameRequest) (*model.Game, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, req.ToGame())
	if err != nil {
		return nil, err
	}

	logger.Info("game created", map[string]interface{}{
		"game_id": created.ID,
		"title":   created.Title,
	})
	return created, nil
}

func (s *gameService) GetGame(ctx context.Context, id string) (*model.Game, error) {
	if err := model.ValidateID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *gameService) ListGames(ctx context.Context, filter model.ListFilter) ([]*model.Game, error) {
	return s.repo.List(ctx, filter.Normalize())
}

// SearchGames trả về tối đa SearchLimit summaries; query rỗng -> []
func (s *gameService) SearchGames(ctx context.Context, query string) ([]model.GameSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.GameSummary{}, nil
	}

	games, err := s.repo.SearchTitles(ctx, query, model.SearchLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.GameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, g.ToSummary())
	}
	return summaries, nil
}

// UpdateGame merge partial update lên bản hiện tại rồi validate toàn bộ entity.
// Last write wins: hai update đồng thời không được phát hiện.
func (s *gameService) UpdateGame(ctx context.Context, id string, req *model.UpdateGameRequest) (*model.Game, error) {
	if err := model.ValidateID(id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := existing.Clone()
	merged.Status = model.NormalizeStatus(string(merged.Status))
	req.Apply(merged)

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, merged)
	if err != nil {
		return nil, err
	}

	logger.Info("game updated", map[string]interface{}{
		"game_id": updated.ID,
	})
	return updated, nil
}

func (s *gameService) DeleteGame(ctx context.Context, id string) error {
	if err := model.ValidateID(id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("game deleted", map[string]interface{}{
		"game_id": id,
	})
	return nil
}

func (s *gameService) GetStats(ctx context.Context) (*model.Stats, error) {
	games, err := s.repo.List(ctx, model.ListFilter{}.Normalize())
	if err != nil {
		return nil, err
	}
	return model.ComputeStats(games), nil
}

func (s *gameService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
