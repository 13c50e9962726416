package interfaces

import (
	"context"

	"github.com/haguru/choji/internal/models"
)

// UserRepository stores and retrieves accounts. Username uniqueness is enforced
// by the implementation: a duplicate AddUser fails with apperror.ErrConflict.
// Lookups that match nothing fail with apperror.ErrNotFound.
type UserRepository interface {
	AddUser(ctx context.Context, account models.Account) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.Account, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	EnsureIndices(ctx context.Context) error
}

// RecipeRepository stores and retrieves recipes in insertion order.
type RecipeRepository interface {
	AddRecipe(ctx context.Context, recipe models.Recipe) (int64, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	ListRecipesByUser(ctx context.Context, userID int64) ([]models.Recipe, error)
	EnsureIndices(ctx context.Context) error
}
