package store

import (
	"context"
	"errors"

	"github.com/msb-blog/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository handles typed access to the users collection for
// authentication and provisioning. Generic CRUD on users goes through
// the DocumentRepository like any other model.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection("users")}
}

// GetByCredentials fetches the user whose stored digest matches in a
// single exact-match query. A wrong password and an unknown email both
// come back as ErrNotFound; the caller cannot tell them apart.
func (r *UserRepository) GetByCredentials(ctx context.Context, email, digest string) (types.User, error) {
	var user types.User
	err := r.coll.FindOne(ctx, bson.M{"_id": email, "password": digest}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	var user types.User
	err := r.coll.FindOne(ctx, bson.M{"_id": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user document. The email doubles as _id, so a
// duplicate surfaces as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user types.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
