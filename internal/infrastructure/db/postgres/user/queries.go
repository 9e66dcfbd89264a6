package user

const columns = `id, name, lastname, birth_date, username, email, provider, active, created_at, updated_at`

const (
	SelectUsers = `
		SELECT ` + columns + `
		FROM users
		ORDER BY created_at, id
	`
	SelectUserByID = `
		SELECT ` + columns + `
		FROM users
		WHERE id = $1
	`
	SelectUserByEmail = `
		SELECT ` + columns + `
		FROM users
		WHERE lower(email) = lower($1)
	`
	SelectUserByUsername = `
		SELECT ` + columns + `
		FROM users
		WHERE lower(username) = lower($1)
	`
	ExistsByEmail    = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`
	ExistsByUsername = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1))`
	InsertUser       = `
		INSERT INTO users (name, lastname, birth_date, username, email, password_hash, provider, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + columns + `
	`
	// provider, active and created_at are never rewritten here, password_hash
	// only when a new one is given.
	UpdateUserByID = `
		UPDATE users
		SET name = $1,
		    lastname = $2,
		    birth_date = $3,
		    username = $4,
		    email = $5,
		    password_hash = COALESCE($6, password_hash),
		    updated_at = $7
		WHERE id = $8
		RETURNING ` + columns + `
	`
	DeactivateUserByID = `
		UPDATE users
		SET active = false,
		    updated_at = $1
		WHERE id = $2
		RETURNING ` + columns + `
	`
	DeleteUserByID = `DELETE FROM users WHERE id = $1`
)
