package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"game-tracker-backend/internal/domains/game/model"
	"game-tracker-backend/internal/infrastructure/database"
	"game-tracker-backend/internal/shared/utils"
	pkgdb "game-tracker-backend/pkg/database"
	"game-tracker-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const gameColumns = `
	id, title, platform, status, rating, hours_played,
	image_url, notes, developer, publisher, genres, platforms,
	created_at, updated_at`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id           CHAR(24) PRIMARY KEY,
		title        VARCHAR(200) NOT NULL,
		platform     TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'Plan to Play',
		rating       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 10),
		hours_played DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (hours_played >= 0),
		image_url    TEXT,
		notes        VARCHAR(2000),
		developer    TEXT,
		publisher    TEXT,
		genres       TEXT[] NOT NULL DEFAULT '{}',
		platforms    TEXT[] NOT NULL DEFAULT '{}',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		CHECK (updated_at >= created_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_title ON games (title)`,
	`CREATE INDEX IF NOT EXISTS idx_games_status ON games (status)`,
}

// sortColumns whitelist: field name của API -> column
var sortColumns = map[string]string{
	model.SortTitle:       "title",
	model.SortRating:      "rating",
	model.SortStatus:      "status",
	model.SortPlatform:    "platform",
	model.SortHoursPlayed: "hours_played",
}

// searchColumns là các cột được free-text search match (OR)
var searchColumns = []string{"title", "developer", "publisher"}

type postgresRepository struct {
	db   *database.PostgresDB
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository tạo repository instance trên một PostgresDB đã Connect
func NewPostgresRepository(db *database.PostgresDB) RepositoryInterface {
	return &postgresRepository{
		db:   db,
		pool: db.Pool,
		now:  time.Now,
	}
}

// EnsurePostgresSchema tạo bảng games và index trong một transaction
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return pkgdb.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}

// timestamp truncates to the microsecond precision of TIMESTAMPTZ
func (r *postgresRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *postgresRepository) Create(ctx context.Context, game *model.Game) (*model.Game, error) {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + gameColumns

	now := r.timestamp()
	row := r.pool.QueryRow(ctx, query,
		primitive.NewObjectID().Hex(),
		game.Title,
		string(game.Platform),
		string(game.Status),
		game.Rating,
		game.HoursPlayed,
		game.ImageURL,
		game.Notes,
		game.Developer,
		game.Publisher,
		nonNil(game.Genres),
		nonNil(game.Platforms),
		now,
		now,
	)

	created, err := scanGame(row)
	if err != nil {
		logger.Error("Create: database error", err)
		return nil, model.NewPersistenceError("create", err)
	}
	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	g, err := scanGame(r.pool.QueryRow(ctx, query, strings.ToLower(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewGameNotFound()
		}
		logger.Error("GetByID: database error", err)
		return nil, model.NewPersistenceError("get", err)
	}
	return g, nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.Game, error) {
	filter = filter.Normalize()
	where, args := buildWhereClause(filter)

	query := `SELECT ` + gameColumns + ` FROM games` + where + orderClause(filter.Sort, filter.Order)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("List: database error", err)
		return nil, model.NewPersistenceError("list", err)
	}

	return collectGames(rows, "list")
}

func (r *postgresRepository) SearchTitles(ctx context.Context, query string, limit int) ([]*model.Game, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Game{}, nil
	}

	sql := `SELECT ` + gameColumns + ` FROM games
		WHERE title ILIKE '%' || $1 || '%' ESCAPE '\'` +
		orderClause(model.SortTitle, model.OrderAsc) + ` LIMIT $2`

	rows, err := r.pool.Query(ctx, sql, utils.EscapeLike(query), limit)
	if err != nil {
		logger.Error("SearchTitles: database error", err)
		return nil, model.NewPersistenceError("search", err)
	}

	return collectGames(rows, "search")
}

func (r *postgresRepository) Update(ctx context.Context, id string, game *model.Game) (*model.Game, error) {
	query := `
		UPDATE games SET
			title = $2, platform = $3, status = $4, rating = $5, hours_played = $6,
			image_url = $7, notes = $8, developer = $9, publisher = $10,
			genres = $11, platforms = $12, updated_at = GREATEST($13, created_at)
		WHERE id = $1
		RETURNING ` + gameColumns

	row := r.pool.QueryRow(ctx, query,
		strings.ToLower(id),
		game.Title,
		string(game.Platform),
		string(game.Status),
		game.Rating,
		game.HoursPlayed,
		game.ImageURL,
		game.Notes,
		game.Developer,
		game.Publisher,
		nonNil(game.Genres),
		nonNil(game.Platforms),
		r.timestamp(),
	)

	updated, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewGameNotFound()
		}
		logger.Error("Update: database error", err)
		return nil, model.NewPersistenceError("update", err)
	}
	return updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, strings.ToLower(id))
	if err != nil {
		logger.Error("Delete: database error", err)
		return model.NewPersistenceError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewGameNotFound()
	}
	return nil
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ========================================
// HELPERS
// ========================================

func buildWhereClause(filter model.ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, model.StatusAliases(model.NormalizeStatus(filter.Status)))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, utils.EscapeLike(search))
		n := len(args)

		matches := make([]string, 0, len(searchColumns))
		for _, column := range searchColumns {
			matches = append(matches, fmt.Sprintf(`%s ILIKE '%%' || $%d || '%%' ESCAPE '\'`, column, n))
		}
		conditions = append(conditions, "("+utils.JoinWithOr(matches)+")")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + utils.JoinWithAnd(conditions), args
}

func orderClause(field, order string) string {
	column, ok := sortColumns[field]
	if !ok {
		column = "title"
	}
	dir := "ASC"
	if order == model.OrderDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, dir)
}

func scanGame(row pgx.Row) (*model.Game, error) {
	var g model.Game
	var platform, status string

	err := row.Scan(
		&g.ID,
		&g.Title,
		&platform,
		&status,
		&g.Rating,
		&g.HoursPlayed,
		&g.ImageURL,
		&g.Notes,
		&g.Developer,
		&g.Publisher,
		&g.Genres,
		&g.Platforms,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.ID = strings.TrimSpace(g.ID)
	g.Platform = model.Platform(platform)
	g.Status = model.NormalizeStatus(status)
	g.Genres = nonNil(g.Genres)
	g.Platforms = nonNil(g.Platforms)
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return &g, nil
}

func collectGames(rows pgx.Rows, op string) ([]*model.Game, error) {
	defer rows.Close()

	games := make([]*model.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			logger.Error("scan game", err)
			return nil, model.NewPersistenceError(op, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		logger.Error("iterate games", err)
		return nil, model.NewPersistenceError(op, err)
	}
	return games, nil
}
