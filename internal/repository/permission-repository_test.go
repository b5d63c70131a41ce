package repository

import (
	"testing"

	"github.com/bchristie/brutons-tribunal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserPermissionsNoRoles(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)

	user := createUser(t, db, "nobody@example.com")

	up, err := repo.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, up.UserID)
	assert.Empty(t, up.Permissions)
	assert.Empty(t, up.Roles)
}

func TestGetUserPermissionsUnknownUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)

	// unknown user looks exactly like a user with no grants
	up, err := repo.GetUserPermissions(9999)
	require.NoError(t, err)
	assert.Empty(t, up.Permissions)
	assert.Empty(t, up.Roles)
}

func TestGetUserPermissionsEditorScenario(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)

	user := createUser(t, db, "editor@example.com")
	editor := createRole(t, db, "EDITOR")
	perm := createPermission(t, db, "updates", "write")
	assignRole(t, db, user.ID, editor.ID)
	grantPermission(t, db, editor.ID, perm.ID)

	up, err := repo.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"EDITOR"}, up.Roles)
	assert.True(t, up.Has("updates", "write"))
	assert.False(t, up.Has("updates", "read"))

	isAdmin, err := repo.HasRole(user.ID, "ADMIN")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestGetUserPermissionsDeduplicatesAcrossRoles(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)

	user := createUser(t, db, "multi@example.com")
	editor := createRole(t, db, "EDITOR")
	reviewer := createRole(t, db, "REVIEWER")
	perm := createPermission(t, db, "updates", "read")
	only := createPermission(t, db, "audit", "read")

	assignRole(t, db, user.ID, editor.ID)
	assignRole(t, db, user.ID, reviewer.ID)
	grantPermission(t, db, editor.ID, perm.ID)
	grantPermission(t, db, reviewer.ID, perm.ID)
	grantPermission(t, db, reviewer.ID, only.ID)

	up, err := repo.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.Len(t, up.Permissions, 2)
	assert.ElementsMatch(t, []string{"EDITOR", "REVIEWER"}, up.Roles)
	assert.True(t, up.Has("updates", "read"))
	assert.True(t, up.Has("audit", "read"))
}

func TestGetUserPermissionsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)

	user := createUser(t, db, "repeat@example.com")
	role := createRole(t, db, "EDITOR")
	perm := createPermission(t, db, "updates", "write")
	assignRole(t, db, user.ID, role.ID)
	grantPermission(t, db, role.ID, perm.ID)

	first, err := repo.GetUserPermissions(user.ID)
	require.NoError(t, err)
	second, err := repo.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Permissions, second.Permissions)
	assert.Equal(t, first.Roles, second.Roles)
}

func TestHasRoleExactMatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)

	user := createUser(t, db, "admin@example.com")
	admin := createRole(t, db, "ADMIN")
	assignRole(t, db, user.ID, admin.ID)

	got, err := repo.HasRole(user.ID, "ADMIN")
	require.NoError(t, err)
	assert.True(t, got)

	// case-sensitive, no hierarchy
	got, err = repo.HasRole(user.ID, "admin")
	require.NoError(t, err)
	assert.False(t, got)

	got, err = repo.HasRole(user.ID, "EDITOR")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHasRoleUnknownUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewPermissionRepository(db)
	createRole(t, db, "ADMIN")

	got, err := repo.HasRole(4242, "ADMIN")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestPermissionRefComparesByValue(t *testing.T) {
	set := map[domain.PermissionRef]struct{}{
		{Resource: "updates", Action: "write"}: {},
	}
	_, ok := set[domain.PermissionRef{Resource: "updates", Action: "write"}]
	assert.True(t, ok)
}
