package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsOwner is the capability check used wherever a caller acts on another
// user's resource.
func IsOwner(callerID, resourceOwnerID int64) bool {
	return callerID == resourceOwnerID
}
