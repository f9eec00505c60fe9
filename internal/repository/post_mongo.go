package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/d60-Lab/blog-api/internal/model"
)

const postCollection = "posts"

type mongoPostRepository struct {
	coll *mongo.Collection
}

// NewMongoPostRepository 基于 MongoDB 文档集合的实现，_id 存 UUID 字符串
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{coll: db.Collection(postCollection)}
}

// EnsureMongoIndexes 为列表排序建立索引
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(postCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

func (r *mongoPostRepository) InsertMany(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	now := mongoNow()
	docs := make([]interface{}, len(posts))
	for i, p := range posts {
		prepareForInsert(p, now)
		docs[i] = p
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

func (r *mongoPostRepository) Create(ctx context.Context, post *model.Post) error {
	prepareForInsert(post, mongoNow())
	_, err := r.coll.InsertOne(ctx, post)
	return err
}

func (r *mongoPostRepository) FindAll(ctx context.Context) ([]*model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	res := make([]*model.Post, 0)
	if err := cur.All(ctx, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *mongoPostRepository) FindOne(ctx context.Context) (*model.Post, error) {
	return r.findOne(ctx, bson.D{})
}

func (r *mongoPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *mongoPostRepository) findOne(ctx context.Context, filter bson.D) (*model.Post, error) {
	var p model.Post
	err := r.coll.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoPostRepository) Update(ctx context.Context, id string, fields model.PostFields) error {
	set := bson.D{{Key: "updated", Value: mongoNow()}}
	if fields.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *fields.Title})
	}
	if fields.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *fields.Content})
	}
	if fields.AuthorFirstName != nil {
		set = append(set, bson.E{Key: "author.firstName", Value: *fields.AuthorFirstName})
	}
	if fields.AuthorLastName != nil {
		set = append(set, bson.E{Key: "author.lastName", Value: *fields.AuthorLastName})
	}

	res, err := r.coll.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *mongoPostRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *mongoPostRepository) DropAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return err
}

func (r *mongoPostRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func (r *mongoPostRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// Close 断开客户端连接
func (r *mongoPostRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.coll.Database().Client().Disconnect(ctx)
}

// BSON 日期只有毫秒精度，写入前截断，保证写入值与读出值一致
func mongoNow() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
