package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin               Role = "admin"
	RoleManager             Role = "manager"
	RoleRelationshipOfficer Role = "relationship_officer"
	RoleAccountOfficer      Role = "account_officer"
	RoleCustomer            Role = "customer"
)

// StaffRoles are the roles that may be assigned customers to manage.
func StaffRoles() []Role {
	return []Role{RoleManager, RoleRelationshipOfficer, RoleAccountOfficer}
}

// IsStaff reports whether the role belongs to a staff variant.
func (r Role) IsStaff() bool {
	for _, staff := range StaffRoles() {
		if r == staff {
			return true
		}
	}
	return false
}

// User is the identity record behind customers and staff. Credential handling
// lives outside this service; only identity and role are consumed here.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
