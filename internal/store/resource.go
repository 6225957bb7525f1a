package store

import (
	"context"
	"errors"

	"github.com/msb-blog/apiserver/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DocumentRepository handles persistence for one registered model. One
// collection per model; documents are schema-flexible maps addressed by
// primary identifier and queried with exact-match filters only.
type DocumentRepository struct {
	coll *mongo.Collection
	desc model.Descriptor
}

func NewDocumentRepository(db *mongo.Database, desc model.Descriptor) *DocumentRepository {
	return &DocumentRepository{
		coll: db.Collection(desc.Plural()),
		desc: desc,
	}
}

// Descriptor returns the schema the repository persists.
func (r *DocumentRepository) Descriptor() model.Descriptor {
	return r.desc
}

// parseID converts a request path identifier into the collection's
// native key. Natural-key models use the string verbatim; generated-key
// models require a valid ObjectID hex, and anything unparseable is
// reported as ErrNotFound rather than an internal failure.
func (r *DocumentRepository) parseID(id string) (any, error) {
	if r.desc.NaturalKey != "" {
		return id, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return oid, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]map[string]any, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]map[string]any, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (map[string]any, error) {
	key, err := r.parseID(id)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Create inserts the document and returns it with its primary
// identifier set. Natural-key models store the key field as _id.
func (r *DocumentRepository) Create(ctx context.Context, doc map[string]any) (map[string]any, error) {
	stored := make(map[string]any, len(doc)+1)
	for name, value := range doc {
		stored[name] = value
	}
	if r.desc.NaturalKey != "" {
		stored["_id"] = stored[r.desc.NaturalKey]
		delete(stored, r.desc.NaturalKey)
	}

	result, err := r.coll.InsertOne(ctx, stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	stored["_id"] = result.InsertedID
	return stored, nil
}

// Update applies a MongoDB update document to the identified record.
func (r *DocumentRepository) Update(ctx context.Context, id string, update map[string]any) error {
	key, err := r.parseID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": key}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	key, err := r.parseID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
