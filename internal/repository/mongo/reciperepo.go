package mongo

import (
	"context"
	"fmt"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/repository/constants"

	mongoClient "github.com/haguru/choji/pkg/databases/mongo"
	"go.mongodb.org/mongo-driver/bson"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecipeRepository implements RecipeRepository on MongoDB.
type MongoRecipeRepository struct {
	dbClient *mongoClient.MongoDBClient
}

// NewMongoRecipeRepository creates a new MongoDB repository instance.
func NewMongoRecipeRepository(dbClient *mongoClient.MongoDBClient) (*MongoRecipeRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoRecipeRepository{dbClient: dbClient}, nil
}

// AddRecipe inserts the recipe under the next recipe id. MongoDB has no check
// constraints, so the length rule is enforced here before the write.
func (r *MongoRecipeRepository) AddRecipe(ctx context.Context, recipe models.Recipe) (int64, error) {
	if recipe.UserID == nil {
		return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrMissingOwner)
	}
	if len([]rune(recipe.Instructions)) < models.InstructionsMinLength {
		return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrInvalidRecipe)
	}

	recipes, err := r.dbClient.Collection(constants.RecipesCollection)
	if err != nil {
		return 0, err
	}

	id, err := r.dbClient.NextSequence(ctx, constants.RecipesCollection)
	if err != nil {
		return 0, err
	}
	recipe.ID = id

	if _, err := recipes.InsertOne(ctx, recipe); err != nil {
		return 0, fmt.Errorf("%s recipe to MongoDB: %w", constants.ErrFailedToAdd, err)
	}
	return id, nil
}

// ListRecipes returns every recipe ordered by id, which is insertion order.
func (r *MongoRecipeRepository) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	return r.find(ctx, bson.M{})
}

// ListRecipesByUser returns the recipes owned by userID ordered by id.
func (r *MongoRecipeRepository) ListRecipesByUser(ctx context.Context, userID int64) ([]models.Recipe, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// EnsureIndices creates the owner index used by ListRecipesByUser.
func (r *MongoRecipeRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.RecipesCollection, mongosdk.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}},
	})
}

func (r *MongoRecipeRepository) find(ctx context.Context, filter bson.M) ([]models.Recipe, error) {
	recipes, err := r.dbClient.Collection(constants.RecipesCollection)
	if err != nil {
		return nil, err
	}

	cursor, err := recipes.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s recipes from MongoDB: %w", constants.ErrFailedToQuery, err)
	}

	out := make([]models.Recipe, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s recipes from MongoDB: %w", constants.ErrFailedToDecode, err)
	}
	return out, nil
}
