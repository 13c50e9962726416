package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/password"
	"github.com/haguru/choji/internal/repository/constants"
	"github.com/haguru/choji/pkg/databases/postgres"
)

// PostgresUserRepository implements UserRepository for PostgreSQL databases.
type PostgresUserRepository struct {
	dbClient *postgres.PostgresDatabaseClient
}

// NewPostgresUserRepository creates a new PostgreSQL repository instance.
func NewPostgresUserRepository(dbClient *postgres.PostgresDatabaseClient) (*PostgresUserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresUserRepository{dbClient: dbClient}, nil
}

// AddUser inserts the account. The UNIQUE constraint on username decides
// conflicts, so concurrent signups race safely in the database.
func (r *PostgresUserRepository) AddUser(ctx context.Context, account models.Account) (int64, error) {
	var id int64
	err := r.dbClient.DB().QueryRowContext(ctx, insertUser,
		account.Username,
		string(account.PasswordHash),
		account.ImageURL,
		account.Bio,
	).Scan(&id)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return 0, fmt.Errorf("%w: %s '%s'", apperror.ErrConflict, constants.ErrUsernameTaken, account.Username)
		}
		return 0, fmt.Errorf("%s user to PostgreSQL: %w", constants.ErrFailedToAdd, err)
	}
	return id, nil
}

// GetUserByUsername retrieves an account, including its hash, by username.
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	var (
		account models.Account
		hash    string
	)
	err := r.dbClient.DB().QueryRowContext(ctx, selectUserByUsername, username).
		Scan(&account.ID, &account.Username, &hash, &account.ImageURL, &account.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, constants.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s user by username from PostgreSQL: %w", constants.ErrFailedToQuery, err)
	}
	account.PasswordHash = password.Hash(hash)
	return &account, nil
}

// GetUserByID retrieves a user by id. The hash column is never selected.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.dbClient.DB().QueryRowContext(ctx, selectUserByID, id).
		Scan(&user.ID, &user.Username, &user.ImageURL, &user.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, constants.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s user by id from PostgreSQL: %w", constants.ErrFailedToQuery, err)
	}
	return &user, nil
}

// EnsureIndices creates the users table and its unique username index.
func (r *PostgresUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, createUsersTable)
}
