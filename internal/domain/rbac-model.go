package domain

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // ADMIN | EDITOR | ...
	gorm.Model
}

type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Resource string `gorm:"type:varchar(100);not null;uniqueIndex:uidx_permission_resource_action" json:"resource"`
	Action   string `gorm:"type:varchar(50);not null;uniqueIndex:uidx_permission_resource_action" json:"action"`
	gorm.Model
}

type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_user_role" json:"user_id"`
	RoleID    uint      `gorm:"not null;uniqueIndex:uidx_user_role" json:"role_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type RolePermission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RoleID       uint      `gorm:"not null;uniqueIndex:uidx_role_permission" json:"role_id"`
	PermissionID uint      `gorm:"not null;uniqueIndex:uidx_role_permission" json:"permission_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PermissionRef identifies a capability as a (resource, action) pair.
// Comparison is by value, so it can be used directly as a map key.
type PermissionRef struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// UserPermissions is the resolved, per-request view of everything one user
// may do. It is never persisted.
type UserPermissions struct {
	UserID      uint
	Permissions map[PermissionRef]struct{}
	Roles       []string
}

func (up UserPermissions) Has(resource, action string) bool {
	_, ok := up.Permissions[PermissionRef{Resource: resource, Action: action}]
	return ok
}

// HasAll reports whether every listed pair is granted. An empty list is true.
func (up UserPermissions) HasAll(checks []PermissionRef) bool {
	for _, c := range checks {
		if _, ok := up.Permissions[c]; !ok {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one listed pair is granted. An empty list
// is false.
func (up UserPermissions) HasAny(checks []PermissionRef) bool {
	for _, c := range checks {
		if _, ok := up.Permissions[c]; ok {
			return true
		}
	}
	return false
}
