package models

import (
	"strings"
)

type Role string

const (
	RoleCEO     Role = "ceo"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCEO, RoleManager, RoleMember:
		return true
	}
	return false
}

// Label is the upper-case name used in messages ("CEO", "MANAGER").
func (r Role) Label() string {
	return strings.ToUpper(string(r))
}

type User struct {
	Base
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"` // stored lower-cased
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);not null;index" json:"type"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeEmail is applied on every write and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
