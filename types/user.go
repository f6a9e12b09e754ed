package types

import "time"

// Roles assignable to a user account.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. Unique across accounts.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system,
	// one of RoleAdmin or RoleTechnician.
	Role string `json:"role" db:"role"`

	// ExternalID is the identifier assigned by an external identity
	// provider, if the user signed in through one. Empty otherwise.
	ExternalID string `json:"-" db:"external_id"`

	// AvatarURL is an optional profile picture URL supplied by the
	// identity provider.
	AvatarURL string `json:"avatar_url,omitempty" db:"avatar_url"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Storage is the user's link to the external blob store. Absent until
	// the user links their storage namespace.
	Storage StorageCredential `json:"-" db:"storage_credential"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   int
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Actor derives the acting identity from a user record.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// StorageCredential is the user's capability for the external blob store.
// It either holds an opaque provider credential or is absent; the zero
// value is the not-linked state.
type StorageCredential struct {
	token  string
	linked bool
}

// LinkedCredential wraps an opaque provider credential.
func LinkedCredential(token string) StorageCredential {
	return StorageCredential{token: token, linked: true}
}

// Token returns the provider credential and whether one is linked.
func (c StorageCredential) Token() (string, bool) {
	return c.token, c.linked
}

// Linked reports whether the user has linked the blob store.
func (c StorageCredential) Linked() bool {
	return c.linked
}
