package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/password"
	"github.com/haguru/choji/pkg/helper"
)

type UserService struct {
	UserRepo interfaces.UserRepository
	Hasher   interfaces.PasswordHasher
	Logger   interfaces.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(repo interfaces.UserRepository, hasher interfaces.PasswordHasher, logger interfaces.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		Hasher:   hasher,
		Logger:   logger,
	}
}

// RegisterUser hashes the password and adds the user via the repository.
// Only the hash is handed to storage. A taken username surfaces as
// apperror.ErrConflict from the repository.
func (s *UserService) RegisterUser(ctx context.Context, input interfaces.SignupInput) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", input.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", input.Username)

	if strings.TrimSpace(input.Username) == "" {
		return nil, fmt.Errorf("%w: %s", apperror.ErrValidation, ErrMissingUsername)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: %s", apperror.ErrValidation, ErrMissingPassword)
	}

	s.Logger.Info("Registering user", "func", funcName, "user", input.Username)
	hash, err := s.Hasher.Hash(ctx, input.Password)
	if err != nil {
		s.Logger.Error(ErrFailedToHashPassword, "func", funcName, "user", input.Username, "error", err)
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %s", apperror.ErrValidation, err)
		}
		return nil, fmt.Errorf("%s: %w", ErrFailedToHashPassword, err)
	}

	account := models.NewAccount(input.Username, input.ImageURL, input.Bio, hash)
	userID, err := s.UserRepo.AddUser(ctx, *account)
	if err != nil {
		s.Logger.Error(ErrFailedToRegisterUser, "func", funcName, "user", input.Username, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err)
	}

	user := account.User
	user.ID = userID
	s.Logger.Info("User registered successfully", "func", funcName, "user", input.Username, "ID", userID)
	return &user, nil
}

// AuthenticateUser verifies a user's credentials. An unknown username and a
// wrong password fail the same way, with apperror.ErrAuthentication.
func (s *UserService) AuthenticateUser(ctx context.Context, username, plaintext string) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", username)

	account, err := s.UserRepo.GetUserByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		s.Logger.Warn(ErrUserNotFound, "func", funcName, "user", username)
		return nil, fmt.Errorf("%w: %s", apperror.ErrAuthentication, ErrInvalidCredentials)
	}
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", username, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}

	if !s.Hasher.Verify(ctx, account.PasswordHash, plaintext) {
		s.Logger.Warn(ErrInvalidPassword, "func", funcName, "user", username)
		return nil, fmt.Errorf("%w: %s", apperror.ErrAuthentication, ErrInvalidCredentials)
	}

	s.Logger.Info("User authenticated successfully", "func", funcName, "user", username, "ID", account.ID)
	user := account.User
	return &user, nil
}

// GetUserByID returns the user with the given id, or apperror.ErrNotFound.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.Logger.Error(ErrRetrievingUser, "func", helper.GetFuncName(), "ID", id, "error", err)
		}
		return nil, fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	return user, nil
}
