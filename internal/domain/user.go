package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleBasic Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Privileged reports whether the role may operate across ownership
// boundaries. Only admin may additionally change roles and account status.
func (r Role) Privileged() bool { return r == RoleAgent || r == RoleAdmin }

func (r Role) Valid() bool {
	switch r {
	case RoleBasic, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authorization view of an authenticated user.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role        Role      `gorm:"not null;default:'user';column:role" json:"role"`
	Username    string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email       string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string    `gorm:"not null;column:password" json:"-"`
	FirstName   string    `gorm:"not null;column:first_name" json:"first_name"`
	MiddleName  string    `gorm:"column:middle_name" json:"middle_name,omitempty"`
	LastName    string    `gorm:"not null;column:last_name" json:"last_name"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	Phone       string    `gorm:"column:phone" json:"phone,omitempty"`
	Address     string    `gorm:"column:address" json:"address,omitempty"`
	AvatarKey   string    `gorm:"column:avatar_key" json:"avatar_key,omitempty"`

	Policies []*Policy `gorm:"foreignKey:OwnerID" json:"policies,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }
