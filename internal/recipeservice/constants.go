package recipeservice

const (
	// Error messages for recipe service operations
	ErrInvalidRecipe      = "invalid recipe"
	ErrFailedToAddRecipe  = "failed to add recipe"
	ErrFailedToList       = "failed to list recipes"
	ErrFailedToLoadOwner  = "failed to load recipe owner"
	ErrInvalidFieldFormat = "%s failed on the '%s' rule"
	ErrBlankTitle         = "title is required"
	ErrBlankInstructions  = "instructions are required"
)
