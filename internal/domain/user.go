package domain

import "time"

// Role is the permission level attached to a user account.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User represents an account that can submit and review records.
type User struct {
	ID           string
	Name         string
	PasswordHash string
	Email        string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller is the identity a request is executed as.
type Caller struct {
	UserID string
	Name   string
	Role   Role
}

// CallerFromUser builds the request identity for an authenticated user.
func CallerFromUser(u *User) Caller {
	return Caller{UserID: u.ID, Name: u.Name, Role: u.Role}
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Owner returns the record owner reference for the caller itself.
func (c Caller) Owner() OwnerRef {
	return OwnerRef{ID: c.UserID, Name: c.Name}
}
