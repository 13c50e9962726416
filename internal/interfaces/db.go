package interfaces

import "context"

// DBClient is the lifecycle every database client exposes to the app.
// Query shapes live in the repositories that own them.
type DBClient interface {
	// Connect establishes a connection using the DSN (Data Source Name).
	Connect(ctx context.Context, dsn string) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// Ping checks the health of the database connection.
	Ping(ctx context.Context) error
}
