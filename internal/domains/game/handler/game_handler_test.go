package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"game-tracker-backend/internal/domains/game/model"
	"game-tracker-backend/internal/domains/game/repository"
	"game-tracker-backend/internal/domains/game/service"
	"game-tracker-backend/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true
	os.Exit(m.Run())
}

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

// steppingClock advances one second per call so updatedAt is strictly after createdAt
type steppingClock struct {
	t time.Time
}

func (c *steppingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestRouter(repo repository.RepositoryInterface) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())

	h := NewGameHandler(service.NewGameService(repo))
	r.GET("/health", h.Health)
	h.RegisterRoutes(r)
	return r
}

func newMemoryRouter() *gin.Engine {
	clock := &steppingClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return newTestRouter(repository.NewMemoryRepository().WithClock(clock.Now))
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createGame(t *testing.T, r http.Handler, body map[string]interface{}) model.Game {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/games", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Game](t, w)
}

func TestCreateThenUpdate(t *testing.T) {
	r := newMemoryRouter()

	created := createGame(t, r, map[string]interface{}{
		"title":       "Elden Ring",
		"platform":    "PC",
		"status":      "Playing",
		"rating":      9,
		"hoursPlayed": 40,
	})
	assert.Len(t, created.ID, 24)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	assert.Equal(t, model.StatusPlaying, created.Status)

	w := doRequest(t, r, http.MethodPut, "/games/"+created.ID, map[string]interface{}{"rating": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[model.Game](t, w)
	assert.Equal(t, 10.0, updated.Rating)
	assert.Equal(t, "Elden Ring", updated.Title)
	assert.Equal(t, 40.0, updated.HoursPlayed)
	assert.Equal(t, model.PlatformPC, updated.Platform)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt))

	w = doRequest(t, r, http.MethodGet, "/games/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.0, decode[model.Game](t, w).Rating)
}

func TestCreateGame_Defaults(t *testing.T) {
	r := newMemoryRouter()

	created := createGame(t, r, map[string]interface{}{"title": "Outer Wilds", "platform": "PC"})
	assert.Equal(t, model.StatusPlanToPlay, created.Status)
	assert.Equal(t, 0.0, created.Rating)
	assert.Equal(t, 0.0, created.HoursPlayed)
	assert.NotNil(t, created.Genres)
}

func TestCreateGame_Invalid(t *testing.T) {
	r := newMemoryRouter()

	testCases := []struct {
		name  string
		body  interface{}
		field string
	}{
		{
			name:  "missing title",
			body:  map[string]interface{}{"platform": "PC"},
			field: "title",
		},
		{
			name:  "unknown platform",
			body:  map[string]interface{}{"title": "Doom", "platform": "Amiga"},
			field: "platform",
		},
		{
			name:  "rating above range",
			body:  map[string]interface{}{"title": "Doom", "platform": "PC", "rating": 11},
			field: "rating",
		},
		{
			name:  "negative hours",
			body:  map[string]interface{}{"title": "Doom", "platform": "PC", "hoursPlayed": -1},
			field: "hoursPlayed",
		},
		{
			name:  "bad image url",
			body:  map[string]interface{}{"title": "Doom", "platform": "PC", "imageUrl": "not a url"},
			field: "imageUrl",
		},
		{
			name:  "wrong type",
			body:  `{"title":"Doom","platform":"PC","rating":"ten"}`,
			field: "rating",
		},
		{
			name:  "unknown field",
			body:  `{"title":"Doom","platform":"PC","owner":"me"}`,
			field: "owner",
		},
		{
			name:  "malformed json",
			body:  `{"title":`,
			field: "body",
		},
		{
			name:  "empty body",
			body:  "",
			field: "body",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, "/games", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			body := decode[errorBody](t, w)
			assert.NotEmpty(t, body.Error)
			assert.Contains(t, body.Error, tc.field)
			assert.Equal(t, model.CodeValidation, body.Code)
			assert.Contains(t, body.Details, tc.field)
		})
	}
}

func TestGetGame_Errors(t *testing.T) {
	r := newMemoryRouter()

	w := doRequest(t, r, http.MethodGet, "/games/000000000000000000000000", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Game not found", decode[errorBody](t, w).Error)

	w = doRequest(t, r, http.MethodGet, "/games/not-an-id", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, model.CodeInvalidID, body.Code)
}

func TestUpdateGame_Errors(t *testing.T) {
	r := newMemoryRouter()
	created := createGame(t, r, map[string]interface{}{"title": "Celeste", "platform": "PC"})

	w := doRequest(t, r, http.MethodPut, "/games/not-an-id", map[string]interface{}{"rating": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPut, "/games/000000000000000000000000", map[string]interface{}{"rating": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodPut, "/games/"+created.ID, map[string]interface{}{"rating": -2})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Details, "rating")

	w = doRequest(t, r, http.MethodPut, "/games/"+created.ID, map[string]interface{}{"title": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Details, "title")
}

func TestListGames(t *testing.T) {
	r := newMemoryRouter()

	w := doRequest(t, r, http.MethodGet, "/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"games":[]}`, w.Body.String())

	createGame(t, r, map[string]interface{}{"title": "Hades", "platform": "Nintendo Switch", "status": "Completed", "developer": "Supergiant Games", "rating": 10})
	createGame(t, r, map[string]interface{}{"title": "Bastion", "platform": "PC", "status": "Completed", "developer": "Supergiant Games", "rating": 8})
	createGame(t, r, map[string]interface{}{"title": "Pyre", "platform": "PC", "status": "Dropped", "publisher": "Supergiant Games"})
	createGame(t, r, map[string]interface{}{"title": "Super Mario Odyssey", "platform": "Nintendo Switch", "status": "Playing"})

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{"all, title ascending", "", []string{"Bastion", "Hades", "Pyre", "Super Mario Odyssey"}},
		{"status filter", "?status=Completed", []string{"Bastion", "Hades"}},
		{"legacy status filter", "?status=Wishlist", []string{}},
		{"search is a union over title, developer and publisher", "?search=super", []string{"Bastion", "Hades", "Pyre", "Super Mario Odyssey"}},
		{"search and status", "?search=supergiant&status=Dropped", []string{"Pyre"}},
		{"sort by rating desc", "?sort=rating&order=desc", []string{"Hades", "Bastion", "Pyre", "Super Mario Odyssey"}},
		{"unknown sort falls back", "?sort=price", []string{"Bastion", "Hades", "Pyre", "Super Mario Odyssey"}},
		{"no match", "?search=zelda", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodGet, "/games"+tc.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			body := decode[struct {
				Games []model.Game `json:"games"`
			}](t, w)
			require.NotNil(t, body.Games)

			titles := make([]string, 0, len(body.Games))
			for _, g := range body.Games {
				titles = append(titles, g.Title)
			}
			assert.Equal(t, tc.expected, titles)
		})
	}
}

func TestSearchGames(t *testing.T) {
	r := newMemoryRouter()
	createGame(t, r, map[string]interface{}{"title": "The Legend of Zelda", "platform": "Nintendo Switch", "imageUrl": "https://img.example.com/zelda.png"})
	createGame(t, r, map[string]interface{}{"title": "Zelda II", "platform": "Other", "developer": "Nintendo"})
	createGame(t, r, map[string]interface{}{"title": "Metroid", "platform": "Other", "developer": "Nintendo"})

	w := doRequest(t, r, http.MethodGet, "/games/search?q=ZELDA", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summaries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "The Legend of Zelda", summaries[0]["title"])
	assert.Equal(t, "https://img.example.com/zelda.png", summaries[0]["coverImage"])
	assert.NotContains(t, summaries[0], "platform")

	w = doRequest(t, r, http.MethodGet, "/games/search?q=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/games/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSearchGames_LimitedToTen(t *testing.T) {
	r := newMemoryRouter()
	for i := 0; i < 12; i++ {
		createGame(t, r, map[string]interface{}{"title": "Mega Man " + string(rune('A'+i)), "platform": "Other"})
	}

	w := doRequest(t, r, http.MethodGet, "/games/search?q=mega", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summaries []model.GameSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	assert.Len(t, summaries, model.SearchLimit)
	assert.Equal(t, "Mega Man A", summaries[0].Title)
}

func TestDeleteGame_Twice(t *testing.T) {
	r := newMemoryRouter()
	created := createGame(t, r, map[string]interface{}{"title": "Celeste", "platform": "PC"})

	w := doRequest(t, r, http.MethodDelete, "/games/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Game deleted successfully"}`, w.Body.String())

	w = doRequest(t, r, http.MethodDelete, "/games/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Game not found", decode[errorBody](t, w).Error)

	w = doRequest(t, r, http.MethodGet, "/games/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	r := newMemoryRouter()
	createGame(t, r, map[string]interface{}{"title": "Hades", "platform": "PC", "status": "Completed", "rating": 10, "hoursPlayed": 60})
	createGame(t, r, map[string]interface{}{"title": "Celeste", "platform": "PC", "status": "Playing", "rating": 7, "hoursPlayed": 10.5})
	createGame(t, r, map[string]interface{}{"title": "Pyre", "platform": "Nintendo Switch"})

	w := doRequest(t, r, http.MethodGet, "/games/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[model.Stats](t, w)
	assert.Equal(t, 3, stats.TotalGames)
	assert.Equal(t, 70.5, stats.TotalHours)
	assert.Equal(t, 8.5, stats.AverageRating)
	assert.Equal(t, 33.33, stats.CompletionRate)
	assert.Equal(t, 2, stats.ByPlatform[model.PlatformPC])
	require.Len(t, stats.TopRated, 2)
	assert.Equal(t, "Hades", stats.TopRated[0].Title)
}

// failingRepository returns persistence errors for every read
type failingRepository struct {
	*repository.MemoryRepository
}

func (failingRepository) List(context.Context, model.ListFilter) ([]*model.Game, error) {
	return nil, model.NewPersistenceError("list", errors.New("mongo: server selection timeout on 10.0.0.7"))
}

func (failingRepository) GetByID(context.Context, string) (*model.Game, error) {
	return nil, model.NewPersistenceError("get", errors.New("connection reset by peer"))
}

func (failingRepository) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestPersistenceFailure_IsGeneric500(t *testing.T) {
	r := newTestRouter(failingRepository{repository.NewMemoryRepository()})

	for _, path := range []string{"/games", "/games/000000000000000000000000", "/games/stats"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(t, r, http.MethodGet, path, nil)
			require.Equal(t, http.StatusInternalServerError, w.Code)

			body := decode[errorBody](t, w)
			assert.Equal(t, "Internal server error", body.Error)
			assert.NotContains(t, w.Body.String(), "10.0.0.7")
			assert.NotContains(t, w.Body.String(), "connection reset")
			assert.Empty(t, body.Details)
		})
	}
}

func TestHealth(t *testing.T) {
	w := doRequest(t, newMemoryRouter(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(t, newTestRouter(failingRepository{repository.NewMemoryRepository()}), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).Error)
}
