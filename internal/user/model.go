package user

// User is a registered account. The password hash never leaves this package's
// repository and handlers.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
}

// CreateUser holds the fields for inserting a new user. The id is assigned
// by storage.
type CreateUser struct {
	Email        string
	PasswordHash string
	Role         string
}
