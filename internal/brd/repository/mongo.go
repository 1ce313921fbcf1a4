package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reqforge/reqforge/internal/brd"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo-backed repositories. Documents keep an "id" string field (UUID)
// rather than ObjectIDs so identifiers survive round trips through share
// links and JSON unchanged. Comments and stories live in their own
// collections keyed by brdId, which stands in for the original per-document
// subcollections. No referential check is made against brds at read time:
// a removed document leaves its subcollection rows orphaned.

type MongoBRDRepo struct {
	col *mongo.Collection
}

func NewMongoBRDRepo(col *mongo.Collection) *MongoBRDRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoBRDRepo{col: col}
}

func (m *MongoBRDRepo) Create(ctx context.Context, d *brd.BRD) (string, error) {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (m *MongoBRDRepo) Get(ctx context.Context, id string) (*brd.BRD, error) {
	var d brd.BRD
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoBRDRepo) Update(ctx context.Context, id string, upd brd.UpdateBRD) error {
	set := bson.M{
		"productName": upd.ProductName,
		"goals":       upd.Goals,
		"features":    upd.Features,
		"content":     upd.Content,
		"updatedAt":   time.Now().UTC(),
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoCommentRepo struct {
	col *mongo.Collection
}

func NewMongoCommentRepo(col *mongo.Collection) *MongoCommentRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "brdId", Value: 1}, {Key: "createdAt", Value: 1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoCommentRepo{col: col}
}

func (m *MongoCommentRepo) Create(ctx context.Context, c *brd.Comment) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	if _, err := m.col.InsertOne(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (m *MongoCommentRepo) Get(ctx context.Context, id string) (*brd.Comment, error) {
	var c brd.Comment
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (m *MongoCommentRepo) ListByBRD(ctx context.Context, brdID string) ([]*brd.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"brdId": brdID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*brd.Comment{}
	for cur.Next(ctx) {
		var c brd.Comment
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (m *MongoCommentRepo) UpdateContent(ctx context.Context, id, content string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoCommentRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoStoryRepo struct {
	col *mongo.Collection
}

func NewMongoStoryRepo(col *mongo.Collection) *MongoStoryRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "brdId", Value: 1}, {Key: "createdAt", Value: 1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoStoryRepo{col: col}
}

func (m *MongoStoryRepo) Create(ctx context.Context, s *brd.UserStory) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	if _, err := m.col.InsertOne(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

func (m *MongoStoryRepo) Get(ctx context.Context, id string) (*brd.UserStory, error) {
	var s brd.UserStory
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (m *MongoStoryRepo) ListByBRD(ctx context.Context, brdID string) ([]*brd.UserStory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"brdId": brdID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*brd.UserStory{}
	for cur.Next(ctx) {
		var s brd.UserStory
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}

func (m *MongoStoryRepo) UpdateContent(ctx context.Context, id, content string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStoryRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
