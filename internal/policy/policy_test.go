package policy

import (
	"testing"

	"github.com/shiftnotes/apiserver/types"
	"github.com/stretchr/testify/assert"
)

var (
	admin      = types.Actor{ID: 1, Role: types.RoleAdmin}
	technician = types.Actor{ID: 2, Role: types.RoleTechnician}
	other      = types.Actor{ID: 3, Role: types.RoleTechnician}
	anonymous  = types.Actor{}
)

func TestCanReadUsers(t *testing.T) {
	assert.True(t, CanReadUsers(admin))
	assert.True(t, CanReadUsers(technician))
	assert.False(t, CanReadUsers(anonymous))
}

func TestCanCreateUser(t *testing.T) {
	assert.True(t, CanCreateUser(admin))
	assert.False(t, CanCreateUser(technician))
}

func TestCanEditUser(t *testing.T) {
	target := types.User{ID: 2, Role: types.RoleTechnician}

	assert.True(t, CanEditUser(admin, target), "admins edit anyone")
	assert.True(t, CanEditUser(technician, target), "users edit themselves")
	assert.False(t, CanEditUser(other, target), "users do not edit each other")
}

func TestCanChangeRole(t *testing.T) {
	assert.True(t, CanChangeRole(admin))
	assert.False(t, CanChangeRole(technician), "role changes are admin only, even on own account")
}

func TestCanDeleteUser(t *testing.T) {
	assert.True(t, CanDeleteUser(admin, types.User{ID: 2}))
	assert.False(t, CanDeleteUser(admin, types.User{ID: 1}), "admins never delete their own account")
	assert.False(t, CanDeleteUser(technician, types.User{ID: 3}))
	assert.False(t, CanDeleteUser(technician, types.User{ID: 2}), "self-delete is not allowed either")
}

func TestNoteMutationRequiresOwnerOrAdmin(t *testing.T) {
	owned := types.Note{ID: 10, OwnerID: technician.ID}
	foreign := types.Note{ID: 11, OwnerID: other.ID}
	orphaned := types.Note{ID: 12, OwnerID: 0}

	checks := map[string]func(types.Actor, types.Note) bool{
		"edit":     CanEditNote,
		"delete":   CanDeleteNote,
		"attach":   CanAttachToNote,
		"download": CanDownloadFile,
		"rmfile":   CanDeleteFile,
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			assert.True(t, check(technician, owned), "owner allowed")
			assert.False(t, check(technician, foreign), "non-owner denied")
			assert.True(t, check(admin, foreign), "admin allowed on any note")
			assert.True(t, check(admin, orphaned), "admin allowed on ownerless note")
			assert.False(t, check(technician, orphaned), "ownerless note is admin only")
		})
	}
}
