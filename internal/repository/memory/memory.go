// Package memory is an in-process repository backend. It is the default for
// local runs and the backend used by handler tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/repository/constants"
)

// Store holds users and recipes. One instance backs both repositories so a
// recipe's owner can be checked on insert.
type Store struct {
	mu           sync.RWMutex
	users        []models.Account
	userIndex    map[string]int // username -> position in users
	recipes      []models.Recipe
	nextUserID   int64
	nextRecipeID int64
}

func NewStore() *Store {
	return &Store{
		userIndex:    make(map[string]int),
		nextUserID:   1,
		nextRecipeID: 1,
	}
}

// UserRepository implements interfaces.UserRepository on a Store.
type UserRepository struct {
	store *Store
}

// RecipeRepository implements interfaces.RecipeRepository on a Store.
type RecipeRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func NewRecipeRepository(store *Store) *RecipeRepository {
	return &RecipeRepository{store: store}
}

// AddUser checks uniqueness and inserts inside one critical section, so two
// concurrent signups for the same name cannot both succeed.
func (r *UserRepository) AddUser(_ context.Context, account models.Account) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userIndex[account.Username]; exists {
		return 0, fmt.Errorf("%w: %s '%s'", apperror.ErrConflict, constants.ErrUsernameTaken, account.Username)
	}

	account.ID = s.nextUserID
	s.nextUserID++
	s.userIndex[account.Username] = len(s.users)
	s.users = append(s.users, account)

	return account.ID, nil
}

func (r *UserRepository) GetUserByUsername(_ context.Context, username string) (*models.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.userIndex[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, constants.ErrUserNotFound)
	}
	account := s.users[idx]
	return &account, nil
}

func (r *UserRepository) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	// ids are assigned sequentially from 1
	if id < 1 || id > int64(len(s.users)) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, constants.ErrUserNotFound)
	}
	user := s.users[id-1].User
	return &user, nil
}

func (r *UserRepository) EnsureIndices(context.Context) error { return nil }

func (r *RecipeRepository) AddRecipe(_ context.Context, recipe models.Recipe) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if recipe.UserID == nil {
		return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrMissingOwner)
	}
	if *recipe.UserID < 1 || *recipe.UserID > int64(len(s.users)) {
		return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrUserNotFound)
	}
	if len([]rune(recipe.Instructions)) < models.InstructionsMinLength {
		return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrInvalidRecipe)
	}

	recipe.ID = s.nextRecipeID
	s.nextRecipeID++
	s.recipes = append(s.recipes, cloneRecipe(recipe))

	return recipe.ID, nil
}

// ListRecipes returns a snapshot in insertion order.
func (r *RecipeRepository) ListRecipes(_ context.Context) ([]models.Recipe, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Recipe, 0, len(s.recipes))
	for _, recipe := range s.recipes {
		out = append(out, cloneRecipe(recipe))
	}
	return out, nil
}

func (r *RecipeRepository) ListRecipesByUser(_ context.Context, userID int64) ([]models.Recipe, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Recipe, 0)
	for _, recipe := range s.recipes {
		if recipe.UserID != nil && *recipe.UserID == userID {
			out = append(out, cloneRecipe(recipe))
		}
	}
	return out, nil
}

func (r *RecipeRepository) EnsureIndices(context.Context) error { return nil }

// cloneRecipe copies the pointer fields so callers cannot mutate stored state.
func cloneRecipe(recipe models.Recipe) models.Recipe {
	if recipe.MinutesToComplete != nil {
		minutes := *recipe.MinutesToComplete
		recipe.MinutesToComplete = &minutes
	}
	if recipe.UserID != nil {
		owner := *recipe.UserID
		recipe.UserID = &owner
	}
	return recipe
}
