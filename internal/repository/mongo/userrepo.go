package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/password"
	"github.com/haguru/choji/internal/repository/constants"

	mongoClient "github.com/haguru/choji/pkg/databases/mongo"
	"go.mongodb.org/mongo-driver/bson"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDocument is the stored shape of an account.
type userDocument struct {
	ID           int64  `bson:"_id"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"password_hash"`
	ImageURL     string `bson:"image_url"`
	Bio          string `bson:"bio"`
}

// MongoUserRepository implements UserRepository on MongoDB.
type MongoUserRepository struct {
	dbClient *mongoClient.MongoDBClient
}

// NewMongoUserRepository creates a new MongoDB repository instance.
func NewMongoUserRepository(dbClient *mongoClient.MongoDBClient) (*MongoUserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoUserRepository{dbClient: dbClient}, nil
}

// AddUser inserts the account under the next user id. The unique index on
// username rejects duplicates, including concurrent ones.
func (r *MongoUserRepository) AddUser(ctx context.Context, account models.Account) (int64, error) {
	users, err := r.dbClient.Collection(constants.UsersCollection)
	if err != nil {
		return 0, err
	}

	id, err := r.dbClient.NextSequence(ctx, constants.UsersCollection)
	if err != nil {
		return 0, err
	}

	doc := userDocument{
		ID:           id,
		Username:     account.Username,
		PasswordHash: string(account.PasswordHash),
		ImageURL:     account.ImageURL,
		Bio:          account.Bio,
	}
	if _, err := users.InsertOne(ctx, doc); err != nil {
		if mongosdk.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %s '%s'", apperror.ErrConflict, constants.ErrUsernameTaken, account.Username)
		}
		return 0, fmt.Errorf("%s user to MongoDB: %w", constants.ErrFailedToAdd, err)
	}

	return id, nil
}

// GetUserByUsername retrieves an account, including its hash, by username.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, constants.ErrUserNotFound)
	}

	doc, err := r.findOne(ctx, bson.M{"username": username}, nil)
	if err != nil {
		return nil, err
	}

	return &models.Account{
		User:         doc.toUser(),
		PasswordHash: password.Hash(doc.PasswordHash),
	}, nil
}

// GetUserByID retrieves a user by id without loading the hash.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	projection := options.FindOne().SetProjection(bson.M{"password_hash": 0})
	doc, err := r.findOne(ctx, bson.M{"_id": id}, projection)
	if err != nil {
		return nil, err
	}
	user := doc.toUser()
	return &user, nil
}

// EnsureIndices creates the unique username index.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, mongosdk.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*userDocument, error) {
	users, err := r.dbClient.Collection(constants.UsersCollection)
	if err != nil {
		return nil, err
	}

	var findOpts []*options.FindOneOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	var doc userDocument
	err = users.FindOne(ctx, filter, findOpts...).Decode(&doc)
	if errors.Is(err, mongosdk.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, constants.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s user from MongoDB: %w", constants.ErrFailedToQuery, err)
	}
	return &doc, nil
}

func (d userDocument) toUser() models.User {
	return models.User{
		ID:       d.ID,
		Username: d.Username,
		ImageURL: d.ImageURL,
		Bio:      d.Bio,
	}
}
