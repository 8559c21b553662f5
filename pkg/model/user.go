package model

// Role is the role string the backend reports for an account.
type Role string

// RoleAdmin is the only role the dashboard grants access to.
const RoleAdmin Role = "ADMIN"

// User is the operator identity returned by the backend's "who am I" call and
// embedded in login replies. Fields the dashboard does not use are ignored.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the user has the administrative role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName returns the name, falling back to the email and then the ID.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}
