package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	structValidator "github.com/go-playground/validator/v10"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/pkg/helper"
)

type RecipeService struct {
	RecipeRepo interfaces.RecipeRepository
	UserRepo   interfaces.UserRepository
	Validator  *structValidator.Validate
	Logger     interfaces.Logger
}

// NewRecipeService creates a new RecipeService instance.
func NewRecipeService(recipes interfaces.RecipeRepository, users interfaces.UserRepository, validator *structValidator.Validate, logger interfaces.Logger) *RecipeService {
	return &RecipeService{
		RecipeRepo: recipes,
		UserRepo:   users,
		Validator:  validator,
		Logger:     logger,
	}
}

// CreateRecipe validates and stores a recipe owned by ownerID and returns it
// together with its owner.
func (s *RecipeService) CreateRecipe(ctx context.Context, input interfaces.RecipeInput, ownerID int64) (*models.RecipeWithOwner, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "owner", ownerID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "owner", ownerID)

	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: %s", apperror.ErrValidation, ErrBlankTitle)
	}
	if strings.TrimSpace(input.Instructions) == "" {
		return nil, fmt.Errorf("%w: %s", apperror.ErrValidation, ErrBlankInstructions)
	}

	recipe := models.NewRecipe(input.Title, input.Instructions, input.MinutesToComplete, ownerID)
	if err := s.Validator.Struct(recipe); err != nil {
		s.Logger.Warn(ErrInvalidRecipe, "func", funcName, "owner", ownerID, "error", err)
		return nil, fmt.Errorf("%w: %s", apperror.ErrValidation, describe(err))
	}

	owner, err := s.UserRepo.GetUserByID(ctx, ownerID)
	if err != nil {
		s.Logger.Error(ErrFailedToLoadOwner, "func", funcName, "owner", ownerID, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrFailedToLoadOwner, err)
	}

	id, err := s.RecipeRepo.AddRecipe(ctx, *recipe)
	if err != nil {
		s.Logger.Error(ErrFailedToAddRecipe, "func", funcName, "owner", ownerID, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrFailedToAddRecipe, err)
	}
	recipe.ID = id

	s.Logger.Info("Recipe created successfully", "func", funcName, "owner", ownerID, "ID", id)
	return &models.RecipeWithOwner{Recipe: *recipe, Owner: owner}, nil
}

// ListRecipes returns every recipe in insertion order, each with its owner.
// Each distinct owner is loaded once per call. A recipe whose owner no longer
// resolves is returned with a nil Owner.
func (s *RecipeService) ListRecipes(ctx context.Context) ([]models.RecipeWithOwner, error) {
	funcName := helper.GetFuncName()

	recipes, err := s.RecipeRepo.ListRecipes(ctx)
	if err != nil {
		s.Logger.Error(ErrFailedToList, "func", funcName, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrFailedToList, err)
	}

	owners := make(map[int64]*models.User)
	out := make([]models.RecipeWithOwner, 0, len(recipes))
	for _, recipe := range recipes {
		item := models.RecipeWithOwner{Recipe: recipe}
		if recipe.UserID != nil {
			owner, ok := owners[*recipe.UserID]
			if !ok {
				owner, err = s.UserRepo.GetUserByID(ctx, *recipe.UserID)
				if err != nil && !errors.Is(err, apperror.ErrNotFound) {
					s.Logger.Error(ErrFailedToLoadOwner, "func", funcName, "owner", *recipe.UserID, "error", err)
					return nil, fmt.Errorf("%s: %w", ErrFailedToLoadOwner, err)
				}
				owners[*recipe.UserID] = owner
			}
			item.Owner = owner
		}
		out = append(out, item)
	}

	s.Logger.Debug("Listed recipes", "func", funcName, "count", len(out), "owners", len(owners))
	return out, nil
}

// ListRecipesByOwner returns the recipes owned by userID in insertion order.
func (s *RecipeService) ListRecipesByOwner(ctx context.Context, userID int64) ([]models.Recipe, error) {
	recipes, err := s.RecipeRepo.ListRecipesByUser(ctx, userID)
	if err != nil {
		s.Logger.Error(ErrFailedToList, "func", helper.GetFuncName(), "owner", userID, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrFailedToList, err)
	}
	return recipes, nil
}

// describe flattens validator errors into "field failed on the 'tag' rule" lines.
func describe(err error) string {
	var validationErrors structValidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		parts = append(parts, fmt.Sprintf(ErrInvalidFieldFormat, fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
