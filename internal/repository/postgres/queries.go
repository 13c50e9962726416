package postgres

const (
	createUsersTable = `CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT ''
)`

	createRecipesTable = `CREATE TABLE IF NOT EXISTS recipes (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	instructions TEXT NOT NULL CHECK (char_length(instructions) >= 50),
	minutes_to_complete INTEGER CHECK (minutes_to_complete >= 0),
	user_id BIGINT REFERENCES users (id)
)`

	createRecipesUserIndex = `CREATE INDEX IF NOT EXISTS recipes_user_id_idx ON recipes (user_id)`

	insertUser = `INSERT INTO users (username, password_hash, image_url, bio)
VALUES ($1, $2, $3, $4) RETURNING id`

	selectUserByUsername = `SELECT id, username, password_hash, image_url, bio FROM users WHERE username = $1`

	selectUserByID = `SELECT id, username, image_url, bio FROM users WHERE id = $1`

	insertRecipe = `INSERT INTO recipes (title, instructions, minutes_to_complete, user_id)
VALUES ($1, $2, $3, $4) RETURNING id`

	selectRecipes = `SELECT id, title, instructions, minutes_to_complete, user_id FROM recipes ORDER BY id`

	selectRecipesByUser = `SELECT id, title, instructions, minutes_to_complete, user_id FROM recipes WHERE user_id = $1 ORDER BY id`
)

// PostgreSQL error codes mapped to application errors.
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeNumericOutOfRange   = "22003"
)
