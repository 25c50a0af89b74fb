// Package auth supplies the owner identity for management endpoints: token
// issuing and verification, password hashing, and the HTTP middleware that
// injects the authenticated identity into the request context.
package auth

// Roles assignable to users. Admins must be created manually in the database.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Identity is the authenticated caller as seen by the rest of the
// application: an opaque id for ownership comparison plus a role. It carries
// nothing sensitive.
type Identity struct {
	ID   int64
	Role string
}
