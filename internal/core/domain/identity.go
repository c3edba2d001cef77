package domain

// Identity names an authenticated principal. The auth core treats it as an opaque value.
type Identity string

// AdminIdentity is the administrative account the service ships with.
const AdminIdentity Identity = "admin"

// String returns the raw identity value.
func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i == ""
}

// Credentials carries a login attempt as submitted by a client.
type Credentials struct {
	Username string
	Password string
}
