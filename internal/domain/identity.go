// internal/domain/identity.go
package domain

// Roles understood by the access policy. Every admin is also a user.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleAdmin     = "admin"
)

// Identity is the caller of a single request. It is derived per request from the
// session provider and the admin allow-list and never stored.
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	IsAdmin       bool   `json:"is_admin"`
}

// Anonymous returns the identity of a caller without a verified session.
func Anonymous() Identity {
	return Identity{}
}

// Role maps the identity onto one of the policy roles.
func (i Identity) Role() string {
	switch {
	case !i.Authenticated:
		return RoleAnonymous
	case i.IsAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}
