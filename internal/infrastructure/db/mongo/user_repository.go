package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    primitive.DateTime `bson:"created_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    primitive.NewDateTimeFromTime(user.CreatedAt),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = doc.ID.Hex()
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		Role:         domain.Role(doc.Role),
		CreatedAt:    doc.CreatedAt.Time().UTC(),
	}, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
