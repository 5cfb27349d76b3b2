package persistent

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"memories/services/post/internal/entity"
	"memories/services/post/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const postsCollection = "posts"

type mongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{coll: db.Collection(postsCollection)}
}

// EnsureMongoIndexes creates the indexes the search and listing queries rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(postsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "creator", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create post indexes: %w", err)
	}
	return nil
}

func (r *mongoPostRepository) ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func (r *mongoPostRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func (r *mongoPostRepository) List(ctx context.Context, limit, offset int) ([]*entity.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	return r.find(ctx, bson.D{}, opts)
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc model.PostDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DocumentToPostEntity(&doc), nil
}

func (r *mongoPostRepository) Create(ctx context.Context, post *entity.Post) error {
	doc := PostEntityToDocument(post)
	doc.ID = bson.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}

	*post = *DocumentToPostEntity(doc)
	return nil
}

func (r *mongoPostRepository) Update(ctx context.Context, id string, fields entity.PostFields) (*entity.Post, error) {
	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: fields.Title},
		{Key: "message", Value: fields.Message},
		{Key: "name", Value: fields.Name},
		{Key: "tags", Value: tags},
		{Key: "selectedFile", Value: fields.SelectedFile},
	}}}

	return r.findOneAndUpdate(ctx, id, update)
}

func (r *mongoPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	_, err = r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return err
}

// ToggleLike runs as a single pipeline update so concurrent toggles by
// different principals cannot overwrite each other.
func (r *mongoPostRepository) ToggleLike(ctx context.Context, id, userID string) (*entity.Post, error) {
	return r.findOneAndUpdate(ctx, id, toggleLikePipeline(userID))
}

// toggleLikePipeline removes userID from likes when present and appends it
// otherwise.
func toggleLikePipeline(userID string) mongo.Pipeline {
	user := bson.D{{Key: "$literal", Value: userID}}
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{user, likes}}},
			bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: likes},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", user}}}},
			}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{user}}}},
		}}}}}}},
	}
}

func (r *mongoPostRepository) AppendComment(ctx context.Context, id, value string) (*entity.Post, error) {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: value}}}}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *mongoPostRepository) Search(ctx context.Context, query string, tags []string) ([]*entity.Post, error) {
	return r.find(ctx, searchFilter(query, tags))
}

// searchFilter matches a literal, case-insensitive title substring or any of
// tags.
func searchFilter(query string, tags []string) bson.D {
	if tags == nil {
		tags = []string{}
	}

	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "title", Value: bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}},
		bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: tags}}}},
	}}}
}

func (r *mongoPostRepository) findOneAndUpdate(ctx context.Context, id string, update interface{}) (*entity.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc model.PostDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DocumentToPostEntity(&doc), nil
}

func (r *mongoPostRepository) find(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOptions]) ([]*entity.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	var docs []model.PostDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	posts := make([]*entity.Post, len(docs))
	for i := range docs {
		posts[i] = DocumentToPostEntity(&docs[i])
	}
	return posts, nil
}

func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("cast to ObjectId failed for value %q: %w", id, err)
	}
	return oid, nil
}
