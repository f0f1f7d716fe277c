package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRunStore persists evaluation runs in one MongoDB collection
type MongoRunStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoRunStore connects to MongoDB and verifies the connection
func NewMongoRunStore(ctx context.Context, cfg config.StoreConfig) (*MongoRunStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoRunStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    cfg.Timeout,
	}, nil
}

// Save inserts a run under its ID, or a new one when it has none.
// run.ID is only set once the insert succeeded.
func (s *MongoRunStore) Save(ctx context.Context, run *domain.EvaluationResponse) (string, error) {
	id := run.ID
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := *run
	doc.ID = id
	if _, err := s.collection.InsertOne(ctx, &doc); err != nil {
		return "", fmt.Errorf("failed to save run %s: %w", id, err)
	}
	run.ID = id
	return id, nil
}

// Get loads a run by ID
func (s *MongoRunStore) Get(ctx context.Context, id string) (*domain.EvaluationResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var run domain.EvaluationResponse
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NewInputNotFoundError("run "+id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &run, nil
}

// Close disconnects the client
func (s *MongoRunStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoRunStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

var _ domain.RunStore = (*MongoRunStore)(nil)
