package dto

type UserSignupRequestDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
}

// UserView is the external shape of a user. Recipes is nil when the view is
// nested inside a recipe, which drops the field entirely.
type UserView struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	ImageURL string        `json:"image_url"`
	Bio      string        `json:"bio"`
	Recipes  *[]RecipeView `json:"recipes,omitempty"`
}
