// Package serializer builds the external JSON views of users and recipes.
//
// Users and recipes reference each other, so every function takes an explicit
// include flag and expands at most one hop: a user's recipes never carry their
// user, and a recipe's user never carries its recipes.
package serializer

import (
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/models/dto"
)

// User serializes a user. With includeRecipes the recipes field is present
// (an empty array when there are none) and each recipe omits its user.
func User(user models.User, recipes []models.Recipe, includeRecipes bool) dto.UserView {
	view := dto.UserView{
		ID:       user.ID,
		Username: user.Username,
		ImageURL: user.ImageURL,
		Bio:      user.Bio,
	}
	if !includeRecipes {
		return view
	}

	nested := make([]dto.RecipeView, 0, len(recipes))
	for _, recipe := range recipes {
		nested = append(nested, Recipe(recipe, nil, false))
	}
	view.Recipes = &nested

	return view
}

// Recipe serializes a recipe. With includeUser and a known owner the user field
// is present and omits the owner's recipes.
func Recipe(recipe models.Recipe, owner *models.User, includeUser bool) dto.RecipeView {
	view := dto.RecipeView{
		ID:                recipe.ID,
		Title:             recipe.Title,
		Instructions:      recipe.Instructions,
		MinutesToComplete: recipe.MinutesToComplete,
	}
	if includeUser && owner != nil {
		userView := User(*owner, nil, false)
		view.User = &userView
	}

	return view
}

// Recipes serializes a list of recipes, each with its owner.
func Recipes(recipes []models.RecipeWithOwner) []dto.RecipeView {
	views := make([]dto.RecipeView, 0, len(recipes))
	for _, r := range recipes {
		views = append(views, Recipe(r.Recipe, r.Owner, true))
	}
	return views
}
