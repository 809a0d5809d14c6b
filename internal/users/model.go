package users

// RoleAdmin is the role value that grants administrative privilege.
const RoleAdmin = "admin"

// User is the part of a users row the status check reads.
type User struct {
	Role string `json:"role"`
}

// IsAdmin reports whether the role is exactly RoleAdmin.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
