package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// repository/service boundary; external surfaces get a PublicUser.
type User struct {
	ID           string // UUID
	Username     string
	Email        string // unique, stored lowercase
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the externally safe view of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the password hash from a User.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// UserRepository defines data access for users.
type UserRepository interface {
	// Create persists a new user, generating id and timestamps. Fails with
	// ErrUserAlreadyExists when the email is already taken.
	Create(username, email, passwordHash string) (*User, error)
	// FindByEmail returns (nil, nil) when no user matches.
	FindByEmail(email string) (*User, error)
	// FindByID returns (nil, nil) when no user matches.
	FindByID(id string) (*User, error)
	// Clear wipes all users. Only permitted in the test environment.
	Clear() error
}
