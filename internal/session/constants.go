package session

const (
	// DefaultRedisKeyPrefix namespaces session hashes in Redis.
	DefaultRedisKeyPrefix = "choji:session:"

	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"

	ErrFailedToStoreSession = "failed to store session"
	ErrFailedToSignSession  = "failed to sign session token"
	ErrFailedToReadSession  = "failed to read session"
	ErrFailedToEndSession   = "failed to end session"
)
