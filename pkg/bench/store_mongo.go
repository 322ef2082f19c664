package bench

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "spatialbench"
	DefaultMongoCollection = "results"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps results in a MongoDB collection, one document per run.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Save upserts res by ID.
func (s *MongoStore) Save(ctx context.Context, res *Result) (string, error) {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": res.ID}, res, options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.coll.Name(), res.ID), nil
}

// Get returns the most recent run with the given name.
func (s *MongoStore) Get(ctx context.Context, name string) (*Result, error) {
	var res Result
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})
	err := s.coll.FindOne(ctx, bson.M{"name": name}, opts).Decode(&res)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "result %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	return &res, nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1}).
		SetSort(bson.D{{Key: "started_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names = append(names, doc.Name)
	}
	return names, cur.Err()
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
