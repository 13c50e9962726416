package models

// InstructionsMinLength is the minimum number of characters in recipe instructions.
const InstructionsMinLength = 50

// MaxMinutesToComplete is the largest duration every storage backend can hold
// (a PostgreSQL INTEGER).
const MaxMinutesToComplete = 2147483647

// Recipe is a recipe owned by the user that created it.
type Recipe struct {
	ID                int64  `bson:"_id" db:"id"`
	Title             string `bson:"title" db:"title" validate:"required"`
	Instructions      string `bson:"instructions" db:"instructions" validate:"required,min=50"`
	MinutesToComplete *int   `bson:"minutes_to_complete,omitempty" db:"minutes_to_complete" validate:"omitempty,gte=0,lte=2147483647"`
	UserID            *int64 `bson:"user_id,omitempty" db:"user_id" validate:"required"`
}

// NewRecipe creates a Recipe owned by ownerID with an unassigned ID.
// Note: No validation is performed here.
func NewRecipe(title, instructions string, minutesToComplete *int, ownerID int64) *Recipe {
	return &Recipe{
		Title:             title,
		Instructions:      instructions,
		MinutesToComplete: minutesToComplete,
		UserID:            &ownerID,
	}
}

// RecipeWithOwner pairs a recipe with its owning user, if one is known.
type RecipeWithOwner struct {
	Recipe Recipe
	Owner  *User
}
