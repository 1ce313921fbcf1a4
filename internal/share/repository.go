package share

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("share not found")

// Repository persists share tokens.
type Repository interface {
	Create(ctx context.Context, t *Token) error
	GetByShareID(ctx context.Context, shareID string) (*Token, error)
}

// MongoRepository stores tokens in the shares collection with a unique
// index on shareId. Uniqueness is really guaranteed by generation entropy;
// the index turns an astronomically unlikely collision into a write error
// instead of a silent overwrite.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "shareId", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, t *Token) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *MongoRepository) GetByShareID(ctx context.Context, shareID string) (*Token, error) {
	var t Token
	if err := r.col.FindOne(ctx, bson.M{"shareId": shareID}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MemoryRepository mirrors MongoRepository for tests and dependency-free runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Token
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Token)}
}

func (r *MemoryRepository) Create(ctx context.Context, t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	cp := *t
	r.store[t.ShareID] = &cp
	return nil
}

func (r *MemoryRepository) GetByShareID(ctx context.Context, shareID string) (*Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.store[shareID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}
