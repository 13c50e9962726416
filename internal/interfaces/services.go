package interfaces

import (
	"context"

	"github.com/haguru/choji/internal/models"
)

// SignupInput carries the fields accepted at signup.
type SignupInput struct {
	Username string
	Password string
	ImageURL string
	Bio      string
}

// RecipeInput carries the fields accepted when creating a recipe.
type RecipeInput struct {
	Title             string
	Instructions      string
	MinutesToComplete *int
}

type UserService interface {
	RegisterUser(ctx context.Context, input SignupInput) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type RecipeService interface {
	CreateRecipe(ctx context.Context, input RecipeInput, ownerID int64) (*models.RecipeWithOwner, error)
	ListRecipes(ctx context.Context) ([]models.RecipeWithOwner, error)
	ListRecipesByOwner(ctx context.Context, userID int64) ([]models.Recipe, error)
}
