package domain

import "strings"

// Role is the marketplace role carried on every user record.
// Invariant: only RoleDonor, RoleNGO and RoleAdmin are recognized; anything
// else is representable (it arrives from the server) but IsValid reports false.
type Role string

const (
	RoleDonor Role = "donor"
	RoleNGO   Role = "ngo"
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleDonor: true,
	RoleNGO:   true,
	RoleAdmin: true,
}

// IsValid reports whether the role is one of the closed set.
func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}

// Label is the uppercase badge shown next to the signed-in user.
func (r Role) Label() string {
	return strings.ToUpper(string(r))
}

// User is the profile returned by the API alongside every issued token.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	Role       Role   `json:"role"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

// Identity is the authenticated session record held by the client.
// It is replaced wholesale on every transition and never edited in place.
type Identity struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Complete reports whether both halves of the identity are populated.
func (i Identity) Complete() bool {
	return i.Token != "" && i.User != nil
}

// Registration is the payload for creating a new account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Location string `json:"location,omitempty"`
}

// TokenResponse is the shape shared by every endpoint that issues a token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user"`
}

// Identity converts a token response into the session record it establishes.
func (t TokenResponse) Identity() Identity {
	return Identity{Token: t.AccessToken, User: t.User}
}
