package dto

type RecipeCreateRequestDTO struct {
	Title             string `json:"title" validate:"required"`
	Instructions      string `json:"instructions" validate:"required,min=50"`
	MinutesToComplete *int   `json:"minutes_to_complete" validate:"required,gte=0,lte=2147483647"`
}

// RecipeView is the external shape of a recipe. User is nil when the view is
// nested inside its owner, which drops the field entirely.
type RecipeView struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Instructions      string    `json:"instructions"`
	MinutesToComplete *int      `json:"minutes_to_complete"`
	User              *UserView `json:"user,omitempty"`
}

type ErrorResponseDTO struct {
	Error string `json:"error"`
}
