package repository

import (
	"testing"

	"github.com/bchristie/brutons-tribunal/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// one connection only, so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.UserRole{},
		&domain.RolePermission{},
		&domain.AuditLog{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, DisplayName: email, Status: "active"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createRole(t *testing.T, db *gorm.DB, name string) *domain.Role {
	t.Helper()
	r := &domain.Role{Name: name}
	require.NoError(t, db.Create(r).Error)
	return r
}

func createPermission(t *testing.T, db *gorm.DB, resource, action string) *domain.Permission {
	t.Helper()
	p := &domain.Permission{Resource: resource, Action: action}
	require.NoError(t, db.Create(p).Error)
	return p
}

func assignRole(t *testing.T, db *gorm.DB, userID, roleID uint) {
	t.Helper()
	require.NoError(t, db.Create(&domain.UserRole{UserID: userID, RoleID: roleID}).Error)
}

func grantPermission(t *testing.T, db *gorm.DB, roleID, permissionID uint) {
	t.Helper()
	require.NoError(t, db.Create(&domain.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error)
}
