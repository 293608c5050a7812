package models

type UserRole string

const (
	RoleLearner UserRole = "learner"
	RoleAdmin   UserRole = "admin"
)

// User is the authenticated principal resolved from the bearer token.
// Accounts live in the identity provider and are not stored here.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
