package repository

import (
	"errors"

	"github.com/bchristie/brutons-tribunal/internal/domain"
	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByName(name string) (*domain.Role, error)
	FindByID(roleID uint) (*domain.Role, error)
	List(limit, offset int) ([]domain.Role, error)
	ReplaceUserRoles(userID uint, roleIDs []uint) error
	GetRolesByUserID(userID uint) ([]domain.Role, error)
	FindPermission(resource, action string) (*domain.Permission, error)
	GrantPermission(roleID, permissionID uint) error
	RevokePermission(roleID, permissionID uint) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByName(name string) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByID(roleID uint) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.First(&role, roleID).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(limit, offset int) ([]domain.Role, error) {
	var roles []domain.Role
	if err := r.db.Order("id ASC").Limit(limit).Offset(offset).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ReplaceUserRoles(userID uint, roleIDs []uint) error {
	if userID == 0 {
		return errors.New("invalid user_id")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.UserRole{}).Error; err != nil {
			return err
		}

		if len(roleIDs) == 0 {
			return nil
		}

		links := make([]domain.UserRole, 0, len(roleIDs))
		for _, rid := range roleIDs {
			links = append(links, domain.UserRole{
				UserID: userID,
				RoleID: rid,
			})
		}
		return tx.Create(&links).Error
	})
}

func (r *roleRepository) GetRolesByUserID(userID uint) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.
		Model(&domain.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) FindPermission(resource, action string) (*domain.Permission, error) {
	var perm domain.Permission
	if err := r.db.Where("resource = ? AND action = ?", resource, action).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *roleRepository) GrantPermission(roleID, permissionID uint) error {
	if roleID == 0 || permissionID == 0 {
		return errors.New("invalid role or permission id")
	}
	return r.db.Create(&domain.RolePermission{
		RoleID:       roleID,
		PermissionID: permissionID,
	}).Error
}

func (r *roleRepository) RevokePermission(roleID, permissionID uint) error {
	return r.db.
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&domain.RolePermission{}).Error
}
