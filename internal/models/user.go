package models

import "github.com/haguru/choji/internal/password"

// User is the public side of a user. It deliberately has no password field,
// so nothing that accepts a User can read or serialize the hash.
type User struct {
	ID       int64  `bson:"_id" mapstructure:"id" db:"id"`
	Username string `bson:"username" mapstructure:"username" db:"username"`
	ImageURL string `bson:"image_url" mapstructure:"image_url" db:"image_url"`
	Bio      string `bson:"bio" mapstructure:"bio" db:"bio"`
}

// Account is a User together with its stored password hash. Only repositories
// and the user service handle it.
type Account struct {
	User
	PasswordHash password.Hash
}

// NewAccount creates a new Account with an unassigned ID.
// Note: No validation is performed here.
func NewAccount(username, imageURL, bio string, hash password.Hash) *Account {
	return &Account{
		User: User{
			Username: username,
			ImageURL: imageURL,
			Bio:      bio,
		},
		PasswordHash: hash,
	}
}
