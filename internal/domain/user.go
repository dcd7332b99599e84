package domain

// UserRole distinguishes shoppers from store administrators.
type UserRole string

const (
	UserRoleCustomer UserRole = "user"
	UserRoleAdmin    UserRole = "admin"
)

// User is the authenticated identity persisted across sessions under the
// "user" key. Token is sent as a bearer token on every API call.
type User struct {
	ID    string   `json:"_id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	Token string   `json:"token"`
}

// IsAdmin reports whether the user may manage products and categories.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
