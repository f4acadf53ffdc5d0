package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// KnownRoles are the roles that can be granted.
var KnownRoles = []string{RoleUser, RoleAdmin}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Roles        []string
	Banned       bool
	BanReason    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
