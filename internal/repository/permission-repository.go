package repository

import (
	"github.com/bchristie/brutons-tribunal/internal/domain"
	"gorm.io/gorm"
)

// PermissionRepository answers "what can this user do". It owns no state of
// its own; every call re-resolves from the role/permission tables, so callers
// needing repeated checks within one request should resolve once and reuse
// the set.
type PermissionRepository interface {
	GetUserPermissions(userID uint) (domain.UserPermissions, error)
	HasRole(userID uint, roleName string) (bool, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

// GetUserPermissions resolves the user's roles and every permission those
// roles grant, deduplicated into a (resource, action) set. An unknown user
// and a user with no grants both come back as an empty set with no error;
// authorization is fail-closed either way.
func (r *permissionRepository) GetUserPermissions(userID uint) (domain.UserPermissions, error) {
	up := domain.UserPermissions{
		UserID:      userID,
		Permissions: make(map[domain.PermissionRef]struct{}),
		Roles:       []string{},
	}

	var roles []domain.Role
	err := r.db.
		Model(&domain.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error
	if err != nil {
		return domain.UserPermissions{}, err
	}
	if len(roles) == 0 {
		return up, nil
	}

	roleIDs := make([]uint, 0, len(roles))
	for _, role := range roles {
		up.Roles = append(up.Roles, role.Name)
		roleIDs = append(roleIDs, role.ID)
	}

	var perms []domain.Permission
	err = r.db.
		Model(&domain.Permission{}).
		Distinct("permissions.resource", "permissions.action").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Find(&perms).Error
	if err != nil {
		return domain.UserPermissions{}, err
	}

	for _, p := range perms {
		up.Permissions[domain.PermissionRef{Resource: p.Resource, Action: p.Action}] = struct{}{}
	}
	return up, nil
}

// HasRole is a point query: true iff a user_roles row links userID to a role
// named exactly roleName. Case-sensitive, no hierarchy.
func (r *permissionRepository) HasRole(userID uint, roleName string) (bool, error) {
	var count int64
	err := r.db.
		Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, roleName).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
