package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog-backend/models"
)

const (
	productsCollection = "products"
	usersCollection    = "users"
)

// MongoProductRepository implements ProductRepository on a MongoDB collection.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a product repository backed by db.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection(productsCollection)}
}

// EnsureIndexes creates the indexes used by listing and ranking.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func filterDoc(f Filter) bson.M {
	if f.Keyword == "" {
		return bson.M{}
	}
	return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}}
}

// versionFilter matches id at the expected version. Documents written without a version
// field decode to 0, so version 0 also matches a missing field.
func versionFilter(id primitive.ObjectID, expected int64) bson.M {
	if expected == 0 {
		return bson.M{"_id": id, "version": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"_id": id, "version": expected}
}

func (r *MongoProductRepository) Find(ctx context.Context, q Query) ([]models.Product, error) {
	opts := options.Find()
	if q.SortByRating {
		opts.SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}})
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := r.coll.Find(ctx, filterDoc(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	return &p, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Version = 1
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) Save(ctx context.Context, p *models.Product) error {
	expected := p.Version
	prevUpdated := p.UpdatedAt
	p.Version = expected + 1
	p.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, versionFilter(p.ID, expected), p)
	if err != nil {
		p.Version, p.UpdatedAt = expected, prevUpdated
		return fmt.Errorf("replace product %s: %w", p.ID.Hex(), err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	p.Version, p.UpdatedAt = expected, prevUpdated
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": p.ID})
	if err != nil {
		return fmt.Errorf("check product %s: %w", p.ID.Hex(), err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete product %s: %w", id.Hex(), err)
	}
	return &p, nil
}

func (r *MongoProductRepository) Stats(ctx context.Context) (*models.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"products": bson.M{"$sum": 1},
			"reviews":  bson.M{"$sum": "$numReviews"},
			"value":    bson.M{"$sum": bson.M{"$multiply": bson.A{"$price", "$countInStock"}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate product stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Products int64   `bson:"products"`
		Reviews  int64   `bson:"reviews"`
		Value    float64 `bson:"value"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode product stats: %w", err)
	}

	stats := &models.Stats{}
	if len(rows) > 0 {
		stats.TotalProducts = rows[0].Products
		stats.TotalReviews = rows[0].Reviews
		stats.TotalValue = rows[0].Value
	}
	return stats, nil
}

func (r *MongoProductRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

// MongoUserRepository implements UserRepository on a MongoDB collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a user repository backed by db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = strings.ToLower(u.Email)

	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
