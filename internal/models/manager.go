package models

// Manager is an authenticated back-office user. ID is the authentication
// provider's uid. Password holds the bcrypt hash and is never serialized
// back to clients.
type Manager struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"` // "manager" or "driver"
}
