package user

import "time"

type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleUser       Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	Role         Role
	CreatedAt    time.Time
}
