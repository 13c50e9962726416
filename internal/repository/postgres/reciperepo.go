package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/repository/constants"
	"github.com/haguru/choji/pkg/databases/postgres"
)

// PostgresRecipeRepository implements RecipeRepository for PostgreSQL databases.
type PostgresRecipeRepository struct {
	dbClient *postgres.PostgresDatabaseClient
}

// NewPostgresRecipeRepository creates a new PostgreSQL repository instance.
func NewPostgresRecipeRepository(dbClient *postgres.PostgresDatabaseClient) (*PostgresRecipeRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresRecipeRepository{dbClient: dbClient}, nil
}

// AddRecipe inserts the recipe. Constraint violations reported by the database
// (length check, unknown owner, out of range minutes) surface as validation errors.
func (r *PostgresRecipeRepository) AddRecipe(ctx context.Context, recipe models.Recipe) (int64, error) {
	if recipe.UserID == nil {
		return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrMissingOwner)
	}

	var minutes sql.NullInt64
	if recipe.MinutesToComplete != nil {
		minutes = sql.NullInt64{Int64: int64(*recipe.MinutesToComplete), Valid: true}
	}

	var id int64
	err := r.dbClient.DB().QueryRowContext(ctx, insertRecipe,
		recipe.Title,
		recipe.Instructions,
		minutes,
		*recipe.UserID,
	).Scan(&id)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case codeCheckViolation, codeForeignKeyViolation, codeNotNullViolation, codeNumericOutOfRange:
				return 0, fmt.Errorf("%w: %s", apperror.ErrValidation, constants.ErrInvalidRecipe)
			}
		}
		return 0, fmt.Errorf("%s recipe to PostgreSQL: %w", constants.ErrFailedToAdd, err)
	}
	return id, nil
}

// ListRecipes returns every recipe ordered by id, which is insertion order.
func (r *PostgresRecipeRepository) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	return r.query(ctx, selectRecipes)
}

// ListRecipesByUser returns the recipes owned by userID ordered by id.
func (r *PostgresRecipeRepository) ListRecipesByUser(ctx context.Context, userID int64) ([]models.Recipe, error) {
	return r.query(ctx, selectRecipesByUser, userID)
}

// EnsureIndices creates the recipes table and the owner index. The users
// table must exist first for the foreign key.
func (r *PostgresRecipeRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, createRecipesTable, createRecipesUserIndex)
}

func (r *PostgresRecipeRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Recipe, error) {
	rows, err := r.dbClient.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s recipes from PostgreSQL: %w", constants.ErrFailedToQuery, err)
	}
	defer rows.Close()

	recipes := make([]models.Recipe, 0)
	for rows.Next() {
		var (
			recipe  models.Recipe
			minutes sql.NullInt64
			owner   sql.NullInt64
		)
		if err := rows.Scan(&recipe.ID, &recipe.Title, &recipe.Instructions, &minutes, &owner); err != nil {
			return nil, fmt.Errorf("%s recipe row: %w", constants.ErrFailedToDecode, err)
		}
		if minutes.Valid {
			m := int(minutes.Int64)
			recipe.MinutesToComplete = &m
		}
		if owner.Valid {
			o := owner.Int64
			recipe.UserID = &o
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s recipes from PostgreSQL: %w", constants.ErrFailedToQuery, err)
	}
	return recipes, nil
}
