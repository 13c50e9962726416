package constants

const (
	UsersCollection    = "users"
	RecipesCollection  = "recipes"
	CountersCollection = "counters"

	ErrUsernameTaken  = "username already exists"
	ErrUserNotFound   = "user not found"
	ErrInvalidRecipe  = "recipe violates storage constraints"
	ErrFailedToAdd    = "failed to add"
	ErrFailedToQuery  = "failed to query"
	ErrFailedToDecode = "failed to decode"
	ErrMissingOwner   = "recipe owner is required"
)
