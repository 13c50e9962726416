package interfaces

import "context"

// SessionStore keeps the server-side state of each session id. Every method
// touches a single id and is atomic for it; unrelated ids never contend.
type SessionStore interface {
	// Get returns the user bound to id, or ok=false when the session is anonymous.
	Get(ctx context.Context, id string) (userID int64, ok bool, err error)
	// Set binds id to userID.
	Set(ctx context.Context, id string, userID int64) error
	// Delete unbinds id and reports whether it was bound.
	Delete(ctx context.Context, id string) (bool, error)
}

// SessionManager drives the Anonymous/Authenticated lifecycle behind a token.
type SessionManager interface {
	Start(ctx context.Context, previousToken string, userID int64) (string, error)
	CurrentUser(ctx context.Context, token string) (int64, bool, error)
	End(ctx context.Context, token string) (bool, error)
}
