package mongostore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	GitHubID     *int64             `bson:"githubId,omitempty"`
	Login        string             `bson:"login"`
	AvatarURL    string             `bson:"avatarUrl"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		GitHubID:     d.GitHubID,
		Login:        d.Login,
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (s *Store) Create(ctx context.Context, user *model.User) error {
	now := s.now()
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		GitHubID:     user.GitHubID,
		Login:        user.Login,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", user.Email)
		}
		return apperror.StorageFailure("create user", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.D, key, op string) (*model.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, apperror.StorageFailure(op, err)
	}
	return doc.toModel(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return s.findUser(ctx, bson.D{{Key: "_id", Value: oid}}, id, "get user")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperror.NotFound("user", email)
	}
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}}, email, "get user by email")
}

// UpsertGitHub uses findOneAndUpdate with upsert; $setOnInsert fixes the
// creation time on the first login only.
func (s *Store) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return apperror.ValidationFailed("githubId", "GitHub ID is required")
	}
	now := s.now()

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "login", Value: user.Login},
			{Key: "email", Value: user.Email},
			{Key: "avatarUrl", Value: user.AvatarURL},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "username", Value: ""},
			{Key: "passwordHash", Value: ""},
			{Key: "createdAt", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc userDocument
	err := s.users.FindOneAndUpdate(ctx, bson.D{{Key: "githubId", Value: *user.GitHubID}}, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", "github:"+strconv.FormatInt(*user.GitHubID, 10))
		}
		return apperror.StorageFailure("upsert GitHub user", err)
	}

	*user = *doc.toModel()
	return nil
}
