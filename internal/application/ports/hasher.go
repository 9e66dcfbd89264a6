package ports

// PasswordHasher is a one-way salted hash for local credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}
