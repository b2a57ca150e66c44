package repository

import (
	"testing"
	"time"

	"game-tracker-backend/internal/domains/game/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildListQuery(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		assert.Empty(t, buildListQuery(model.ListFilter{}))
	})

	t.Run("status only", func(t *testing.T) {
		q := buildListQuery(model.ListFilter{Status: "Completed"})
		assert.Equal(t, bson.M{"status": "Completed"}, q)
	})

	t.Run("status with legacy aliases", func(t *testing.T) {
		q := buildListQuery(model.ListFilter{Status: "On Hold"})
		assert.Equal(t, bson.M{"status": bson.M{"$in": []string{"On Hold", "Paused"}}}, q)
	})

	t.Run("search is an escaped OR over three fields", func(t *testing.T) {
		q := buildListQuery(model.ListFilter{Search: "c++ (beta)"})

		or, ok := q["$or"].(bson.A)
		require.True(t, ok)
		require.Len(t, or, 3)

		expected := primitive.Regex{Pattern: `c\+\+ \(beta\)`, Options: "i"}
		assert.Equal(t, bson.M{"title": expected}, or[0])
		assert.Equal(t, bson.M{"developer": expected}, or[1])
		assert.Equal(t, bson.M{"publisher": expected}, or[2])
	})
}

func TestSortSpec(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}, sortSpec(model.SortTitle, model.OrderAsc))
	assert.Equal(t, bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}, sortSpec(model.SortRating, model.OrderDesc))
}

func TestBuildUpdate(t *testing.T) {
	notes := "finish DLC"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	update := buildUpdate(&model.Game{
		Title:    "Elden Ring",
		Platform: model.PlatformPC,
		Status:   model.StatusPlaying,
		Rating:   10,
		Notes:    &notes,
	}, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, 10.0, set["rating"])
	assert.Equal(t, "finish DLC", set["notes"])
	assert.Equal(t, now, set["updatedAt"])
	assert.Equal(t, []string{}, set["genres"])
	assert.NotContains(t, set, "createdAt")

	unset, ok := update["$unset"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, unset, "imageUrl")
	assert.Contains(t, unset, "developer")
	assert.NotContains(t, unset, "notes")
}

func TestGameDocumentRoundTrip(t *testing.T) {
	dev := "Supergiant Games"
	g := &model.Game{
		Title:     "Hades",
		Platform:  model.PlatformNintendoSwitch,
		Status:    model.StatusCompleted,
		Rating:    9,
		Developer: &dev,
	}

	doc := newGameDocument(g)
	doc.ID = primitive.NewObjectID()

	out := doc.toModel()
	assert.Equal(t, doc.ID.Hex(), out.ID)
	assert.Equal(t, "Hades", out.Title)
	assert.Equal(t, model.StatusCompleted, out.Status)
	assert.Equal(t, &dev, out.Developer)
	assert.NotNil(t, out.Genres)
}

func TestGameDocumentLegacyStatusReadsCanonical(t *testing.T) {
	testCases := map[string]model.Status{
		"Wishlist":   model.StatusPlanToPlay,
		"In Library": model.StatusPlanToPlay,
		"Paused":     model.StatusOnHold,
		"Dropped":    model.StatusDropped,
	}

	for stored, expected := range testCases {
		t.Run(stored, func(t *testing.T) {
			doc := &gameDocument{ID: primitive.NewObjectID(), Title: "Celeste", Platform: "PC", Status: stored}
			assert.Equal(t, expected, doc.toModel().Status)
		})
	}
}
