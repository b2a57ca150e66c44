package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"game-tracker-backend/internal/domains/game/model"
	"game-tracker-backend/internal/domains/game/service"
	"game-tracker-backend/internal/shared/middleware"
	"game-tracker-backend/internal/shared/response"
	"game-tracker-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	service service.ServiceInterface
}

func NewGameHandler(svc service.ServiceInterface) *GameHandler {
	return &GameHandler{
		service: svc,
	}
}

// RegisterRoutes gắn các route của game lên router group
func (h *GameHandler) RegisterRoutes(r gin.IRouter) {
	games := r.Group("/games")
	{
		games.GET("", h.ListGames)
		games.GET("/search", h.SearchGames)
		games.GET("/stats", h.GetStats)
		games.GET("/:id", h.GetGame)
		games.POST("", h.CreateGame)
		games.PUT("/:id", h.UpdateGame)
		games.DELETE("/:id", h.DeleteGame)
	}
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /games?status=&search=&sort=&order=
// ════════════════════════════════════════════════════════════════

func (h *GameHandler) ListGames(c *gin.Context) {
	filter := model.ListFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", model.SortTitle),
		Order:  c.DefaultQuery("order", model.OrderAsc),
	}

	games, err := h.service.ListGames(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, gin.H{"games": games})
}

// ════════════════════════════════════════════════════════════════
// AUTOCOMPLETE: GET /games/search?q=
// ════════════════════════════════════════════════════════════════

func (h *GameHandler) SearchGames(c *gin.Context) {
	summaries, err := h.service.SearchGames(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, summaries)
}

// GetStats - GET /games/stats
func (h *GameHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, stats)
}

// ════════════════════════════════════════════════════════════════
// READ: GET /games/:id
// ════════════════════════════════════════════════════════════════

func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.service.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, game)
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /games
// ════════════════════════════════════════════════════════════════

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req model.CreateGameRequest
	if err := bindJSON(c, &req); err != nil {
		h.handleError(c, err)
		return
	}

	game, err := h.service.CreateGame(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, game)
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PUT /games/:id (partial)
// ════════════════════════════════════════════════════════════════

func (h *GameHandler) UpdateGame(c *gin.Context) {
	id := c.Param("id")
	if err := model.ValidateID(id); err != nil {
		h.handleError(c, err)
		return
	}

	var req model.UpdateGameRequest
	if err := bindJSON(c, &req); err != nil {
		h.handleError(c, err)
		return
	}

	game, err := h.service.UpdateGame(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, game)
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /games/:id
// ════════════════════════════════════════════════════════════════

func (h *GameHandler) DeleteGame(c *gin.Context) {
	if err := h.service.DeleteGame(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, response.Message{Message: "Game deleted successfully"})
}

// Health - GET /health
func (h *GameHandler) Health(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		logger.Error("health check failed", err)
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}

	response.OK(c, gin.H{"status": "ok"})
}

// ========================================
// HELPERS
// ========================================

// handleError map domain error sang HTTP response. 5xx luôn được log kèm request id.
func (h *GameHandler) handleError(c *gin.Context, err error) {
	status, message, code := model.MapErrorToHTTP(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorWithFields("request failed", err, map[string]interface{}{
			"request_id": middleware.GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		response.ErrorResponse(c, status, code, message)
		return
	}

	if details := model.GetErrorDetails(err); len(details) > 0 {
		response.ErrorWithDetails(c, status, code, message, details)
		return
	}
	response.ErrorResponse(c, status, code, message)
}

// bindJSON decode body với unknown fields bị từ chối (xem router setup),
// lỗi decode được chuyển thành validation error có tên field.
func bindJSON(c *gin.Context, dest interface{}) error {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.Is(err, io.EOF):
		return model.NewValidationError(map[string]string{"body": "request body is required"})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return model.NewValidationError(map[string]string{field: "must be of type " + typeErr.Type.String()})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return model.NewValidationError(map[string]string{"body": "malformed JSON"})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return model.NewValidationError(map[string]string{field: "unknown field"})
	default:
		return model.NewValidationError(map[string]string{"body": err.Error()})
	}
}
