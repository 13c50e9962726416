package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/pkg/databases/postgres"
)

func newReposWithMock(t *testing.T) (*PostgresUserRepository, *PostgresRecipeRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client := postgres.NewPostgresDatabaseClientFromDB(db)
	users, err := NewPostgresUserRepository(client)
	require.NoError(t, err)
	recipes, err := NewPostgresRecipeRepository(client)
	require.NoError(t, err)
	return users, recipes, mock
}

func TestNewRepositories_NilClient(t *testing.T) {
	_, err := NewPostgresUserRepository(nil)
	assert.Error(t, err)
	_, err = NewPostgresRecipeRepository(nil)
	assert.Error(t, err)
}

func TestAddUser(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*image_url,\s*bio\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id$`

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantID  int64
		wantErr error
	}{
		{
			name: "success",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q).
					WithArgs("ana", "$2a$04$hash", "img", "bio").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
			},
			wantID: 1,
		},
		{
			name: "duplicate username",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q).
					WithArgs("ana", "$2a$04$hash", "img", "bio").
					WillReturnError(&pq.Error{Code: codeUniqueViolation})
			},
			wantErr: apperror.ErrConflict,
		},
		{
			name: "database error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q).
					WithArgs("ana", "$2a$04$hash", "img", "bio").
					WillReturnError(errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, _, mock := newReposWithMock(t)
			tt.setup(mock)

			id, err := users.AddUser(context.Background(), *models.NewAccount("ana", "img", "bio", "$2a$04$hash"))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantID == 0:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, apperror.ErrConflict)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetUserByUsername(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*image_url,\s*bio\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		users, _, mock := newReposWithMock(t)
		mock.ExpectQuery(q).WithArgs("ana").WillReturnRows(
			sqlmock.NewRows([]string{"id", "username", "password_hash", "image_url", "bio"}).
				AddRow(int64(3), "ana", "$2a$04$hash", "img", "bio"))

		got, err := users.GetUserByUsername(context.Background(), "ana")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, "$2a$04$hash", string(got.PasswordHash))
	})

	t.Run("not found", func(t *testing.T) {
		users, _, mock := newReposWithMock(t)
		mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := users.GetUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		users, _, mock := newReposWithMock(t)
		mock.ExpectQuery(q).WithArgs("ana").WillReturnError(errors.New("db err"))

		_, err := users.GetUserByUsername(context.Background(), "ana")
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestGetUserByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*username,\s*image_url,\s*bio\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`

	users, _, mock := newReposWithMock(t)
	mock.ExpectQuery(q).WithArgs(int64(3)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "image_url", "bio"}).AddRow(int64(3), "ana", "", ""))
	mock.ExpectQuery(q).WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)

	got, err := users.GetUserByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)

	_, err = users.GetUserByID(context.Background(), 4)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRecipe(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+recipes\s*\(title,\s*instructions,\s*minutes_to_complete,\s*user_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id$`
	instructions := strings.Repeat("a", 50)
	minutes := 15

	t.Run("success", func(t *testing.T) {
		_, recipes, mock := newReposWithMock(t)
		mock.ExpectQuery(q).
			WithArgs("Soup", instructions, int64(15), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

		id, err := recipes.AddRecipe(context.Background(), *models.NewRecipe("Soup", instructions, &minutes, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null minutes", func(t *testing.T) {
		_, recipes, mock := newReposWithMock(t)
		mock.ExpectQuery(q).
			WithArgs("Soup", instructions, nil, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

		_, err := recipes.AddRecipe(context.Background(), *models.NewRecipe("Soup", instructions, nil, 1))
		require.NoError(t, err)
	})

	for _, code := range []pq.ErrorCode{codeCheckViolation, codeForeignKeyViolation, codeNumericOutOfRange} {
		t.Run("constraint "+string(code), func(t *testing.T) {
			_, recipes, mock := newReposWithMock(t)
			mock.ExpectQuery(q).WillReturnError(&pq.Error{Code: code})

			_, err := recipes.AddRecipe(context.Background(), *models.NewRecipe("Soup", instructions, nil, 1))
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	t.Run("missing owner", func(t *testing.T) {
		_, recipes, _ := newReposWithMock(t)
		_, err := recipes.AddRecipe(context.Background(), models.Recipe{Title: "Soup", Instructions: instructions})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}

func TestListRecipes(t *testing.T) {
	columns := []string{"id", "title", "instructions", "minutes_to_complete", "user_id"}

	t.Run("all in order", func(t *testing.T) {
		_, recipes, mock := newReposWithMock(t)
		mock.ExpectQuery(`(?s)^SELECT .* FROM recipes ORDER BY id$`).WillReturnRows(
			sqlmock.NewRows(columns).
				AddRow(int64(1), "Soup", "long instructions", int64(15), int64(1)).
				AddRow(int64(2), "Tea", "long instructions", nil, nil))

		got, err := recipes.ListRecipes(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 15, *got[0].MinutesToComplete)
		assert.Equal(t, int64(1), *got[0].UserID)
		assert.Nil(t, got[1].MinutesToComplete)
		assert.Nil(t, got[1].UserID)
	})

	t.Run("by user", func(t *testing.T) {
		_, recipes, mock := newReposWithMock(t)
		mock.ExpectQuery(`(?s)^SELECT .* FROM recipes WHERE user_id = \$1 ORDER BY id$`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns))

		got, err := recipes.ListRecipesByUser(context.Background(), 7)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("query error", func(t *testing.T) {
		_, recipes, mock := newReposWithMock(t)
		mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("db err"))

		_, err := recipes.ListRecipes(context.Background())
		assert.Error(t, err)
	})
}

func TestEnsureIndices(t *testing.T) {
	users, recipes, mock := newReposWithMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS recipes")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS recipes_user_id_idx")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, users.EnsureIndices(context.Background()))
	require.NoError(t, recipes.EnsureIndices(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
