package models

// User is the account record stored under the users path.
type User struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"isActive"`
	CreatedAt    int64  `json:"createdAt"`
	LastLogin    int64  `json:"lastLogin"`
	UpdatedAt    int64  `json:"updatedAt,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Public strips credentials before the record leaves the service.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Actor returns the identity snapshot used in audit records.
func (u User) Actor() *Actor {
	return &Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
