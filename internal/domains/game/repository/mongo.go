package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"game-tracker-backend/internal/domains/game/model"
	"game-tracker-backend/internal/infrastructure/database"
	"game-tracker-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// gameDocument là representation lưu trong MongoDB
type gameDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Platform    string             `bson:"platform"`
	Status      string             `bson:"status"`
	Rating      float64            `bson:"rating"`
	HoursPlayed float64            `bson:"hoursPlayed"`
	ImageURL    *string            `bson:"imageUrl,omitempty"`
	Notes       *string            `bson:"notes,omitempty"`
	Developer   *string            `bson:"developer,omitempty"`
	Publisher   *string            `bson:"publisher,omitempty"`
	Genres      []string           `bson:"genres"`
	Platforms   []string           `bson:"platforms"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func newGameDocument(g *model.Game) *gameDocument {
	return &gameDocument{
		Title:       g.Title,
		Platform:    string(g.Platform),
		Status:      string(g.Status),
		Rating:      g.Rating,
		HoursPlayed: g.HoursPlayed,
		ImageURL:    g.ImageURL,
		Notes:       g.Notes,
		Developer:   g.Developer,
		Publisher:   g.Publisher,
		Genres:      nonNil(g.Genres),
		Platforms:   nonNil(g.Platforms),
	}
}

func (d *gameDocument) toModel() *model.Game {
	return &model.Game{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Platform:    model.Platform(d.Platform),
		Status:      model.NormalizeStatus(d.Status),
		Rating:      d.Rating,
		HoursPlayed: d.HoursPlayed,
		ImageURL:    d.ImageURL,
		Notes:       d.Notes,
		Developer:   d.Developer,
		Publisher:   d.Publisher,
		Genres:      nonNil(d.Genres),
		Platforms:   nonNil(d.Platforms),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type mongoRepository struct {
	db  *database.MongoDB
	now func() time.Time
}

// NewMongoRepository tạo repository dùng Persistence Gateway.
// Collection được lấy từ gateway ở mỗi call nên connection chỉ mở khi cần.
func NewMongoRepository(db *database.MongoDB) RepositoryInterface {
	return &mongoRepository{
		db:  db,
		now: time.Now,
	}
}

// timestamp truncates to BSON datetime precision so returned values match stored ones
func (r *mongoRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *mongoRepository) collection(ctx context.Context, op string) (*mongo.Collection, error) {
	coll, err := r.db.Collection(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(op, err)
	}
	return coll, nil
}

func (r *mongoRepository) Create(ctx context.Context, game *model.Game) (*model.Game, error) {
	coll, err := r.collection(ctx, "create")
	if err != nil {
		return nil, err
	}

	doc := newGameDocument(game)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = r.timestamp()
	doc.UpdatedAt = doc.CreatedAt

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		logger.Error("Create: database error", err)
		return nil, model.NewPersistenceError("create", err)
	}

	return doc.toModel(), nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*model.Game, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.NewInvalidGameID(id)
	}

	coll, err := r.collection(ctx, "get")
	if err != nil {
		return nil, err
	}

	var doc gameDocument
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.NewGameNotFound()
		}
		logger.Error("GetByID: database error", err)
		return nil, model.NewPersistenceError("get", err)
	}

	return doc.toModel(), nil
}

func (r *mongoRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.Game, error) {
	filter = filter.Normalize()

	coll, err := r.collection(ctx, "list")
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sortSpec(filter.Sort, filter.Order))

	cursor, err := coll.Find(ctx, buildListQuery(filter), opts)
	if err != nil {
		logger.Error("List: database error", err)
		return nil, model.NewPersistenceError("list", err)
	}

	return decodeGames(ctx, cursor, "list")
}

func (r *mongoRepository) SearchTitles(ctx context.Context, query string, limit int) ([]*model.Game, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Game{}, nil
	}

	coll, err := r.collection(ctx, "search")
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(sortSpec(model.SortTitle, model.OrderAsc)).
		SetProjection(bson.M{"title": 1, "imageUrl": 1}).
		SetLimit(int64(limit))

	cursor, err := coll.Find(ctx, bson.M{"title": containsPattern(query)}, opts)
	if err != nil {
		logger.Error("SearchTitles: database error", err)
		return nil, model.NewPersistenceError("search", err)
	}

	return decodeGames(ctx, cursor, "search")
}

func (r *mongoRepository) Update(ctx context.Context, id string, game *model.Game) (*model.Game, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.NewInvalidGameID(id)
	}

	coll, err := r.collection(ctx, "update")
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc gameDocument
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, buildUpdate(game, r.timestamp()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.NewGameNotFound()
		}
		logger.Error("Update: database error", err)
		return nil, model.NewPersistenceError("update", err)
	}

	return doc.toModel(), nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.NewInvalidGameID(id)
	}

	coll, err := r.collection(ctx, "delete")
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		logger.Error("Delete: database error", err)
		return model.NewPersistenceError("delete", err)
	}
	if res.DeletedCount == 0 {
		return model.NewGameNotFound()
	}
	return nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// ========================================
// QUERY BUILDERS
// ========================================

// containsPattern: case-insensitive substring match, input được escape
func containsPattern(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

func buildListQuery(filter model.ListFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		// document cũ có thể còn lưu status legacy
		if aliases := model.StatusAliases(model.NormalizeStatus(filter.Status)); len(aliases) > 1 {
			query["status"] = bson.M{"$in": aliases}
		} else {
			query["status"] = aliases[0]
		}
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"developer": pattern},
			bson.M{"publisher": pattern},
		}
	}
	return query
}

func sortSpec(field, order string) bson.D {
	dir := 1
	if order == model.OrderDesc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

// buildUpdate $set mọi mutable field; optional field rỗng thì $unset
func buildUpdate(g *model.Game, now time.Time) bson.M {
	set := bson.M{
		"title":       g.Title,
		"platform":    string(g.Platform),
		"status":      string(g.Status),
		"rating":      g.Rating,
		"hoursPlayed": g.HoursPlayed,
		"genres":      nonNil(g.Genres),
		"platforms":   nonNil(g.Platforms),
		"updatedAt":   now,
	}
	unset := bson.M{}

	optional := map[string]*string{
		"imageUrl":  g.ImageURL,
		"notes":     g.Notes,
		"developer": g.Developer,
		"publisher": g.Publisher,
	}
	for field, value := range optional {
		if value == nil {
			unset[field] = ""
		} else {
			set[field] = *value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func decodeGames(ctx context.Context, cursor *mongo.Cursor, op string) ([]*model.Game, error) {
	defer cursor.Close(ctx)

	var docs []gameDocument
	if err := cursor.All(ctx, &docs); err != nil {
		logger.Error("decode games", err)
		return nil, model.NewPersistenceError(op, err)
	}

	games := make([]*model.Game, 0, len(docs))
	for i := range docs {
		games = append(games, docs[i].toModel())
	}
	return games, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
