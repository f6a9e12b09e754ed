package services

import (
	"context"
	"testing"

	"github.com/shiftnotes/apiserver/internal/store"
	"github.com/shiftnotes/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserServiceForTest() (*UserService, *memUserRepo, types.User, types.User) {
	repo := newMemUserRepo()
	admin := repo.add(types.User{Name: "Ada", Email: "ada@example.com", Role: types.RoleAdmin, PasswordHash: "x"})
	technician := repo.add(types.User{Name: "Tess", Email: "tess@example.com", Role: types.RoleTechnician, PasswordHash: "x"})
	return NewUserService(repo), repo, admin, technician
}

func TestUserCreateAdminOnly(t *testing.T) {
	service, _, admin, technician := newUserServiceForTest()

	_, err := service.Create(context.Background(), technician.Actor(), types.User{
		Name: "New", Email: "new@example.com", PasswordHash: "x",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	created, err := service.Create(context.Background(), admin.Actor(), types.User{
		Name: "New", Email: "new@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleTechnician, created.Role, "role defaults to technician")
}

func TestUserCreateValidation(t *testing.T) {
	service, _, admin, _ := newUserServiceForTest()

	_, err := service.Create(context.Background(), admin.Actor(), types.User{Email: "e@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrValidation, "name required")

	_, err = service.Create(context.Background(), admin.Actor(), types.User{
		Name: "N", Email: "n@example.com", PasswordHash: "x", Role: "supervisor",
	})
	assert.ErrorIs(t, err, ErrValidation, "unknown role")

	_, err = service.Create(context.Background(), admin.Actor(), types.User{
		Name: "Dup", Email: "ada@example.com", PasswordHash: "x",
	})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestUserUpdateSelfAndAdmin(t *testing.T) {
	service, _, admin, technician := newUserServiceForTest()

	updated, err := service.Update(context.Background(), technician.Actor(), technician.ID, UserUpdate{
		Name: "Tess Lee", Email: "tess.lee@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tess Lee", updated.Name)
	assert.Equal(t, types.RoleTechnician, updated.Role)

	_, err = service.Update(context.Background(), technician.Actor(), admin.ID, UserUpdate{
		Name: "A", Email: "a@example.com",
	})
	assert.ErrorIs(t, err, ErrForbidden, "users do not edit other accounts")

	_, err = service.Update(context.Background(), admin.Actor(), technician.ID, UserUpdate{
		Name: "Tess", Email: "tess@example.com",
	})
	assert.NoError(t, err, "admins edit anyone")
}

func TestUserUpdateRoleChangeRules(t *testing.T) {
	service, _, admin, technician := newUserServiceForTest()

	_, err := service.Update(context.Background(), technician.Actor(), technician.ID, UserUpdate{
		Name: "Tess", Email: "tess@example.com", Role: types.RoleAdmin,
	})
	assert.ErrorIs(t, err, ErrForbidden, "self-promotion denied")

	updated, err := service.Update(context.Background(), admin.Actor(), technician.ID, UserUpdate{
		Name: "Tess", Email: "tess@example.com", Role: types.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, updated.Role)

	_, err = service.Update(context.Background(), admin.Actor(), technician.ID, UserUpdate{
		Name: "Tess", Email: "tess@example.com", Role: "supervisor",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserUpdateValidation(t *testing.T) {
	service, _, _, technician := newUserServiceForTest()

	_, err := service.Update(context.Background(), technician.Actor(), technician.ID, UserUpdate{Email: "tess@example.com"})
	assert.ErrorIs(t, err, ErrValidation, "name required")

	_, err = service.Update(context.Background(), technician.Actor(), 999, UserUpdate{Name: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserLinkStorage(t *testing.T) {
	service, repo, admin, technician := newUserServiceForTest()

	err := service.LinkStorage(context.Background(), technician.Actor(), technician.ID, "tess-credential")
	require.NoError(t, err)
	stored, err := repo.GetByID(context.Background(), technician.ID)
	require.NoError(t, err)
	token, linked := stored.Storage.Token()
	assert.True(t, linked)
	assert.Equal(t, "tess-credential", token)

	err = service.LinkStorage(context.Background(), technician.Actor(), admin.ID, "stolen")
	assert.ErrorIs(t, err, ErrForbidden, "users link only their own storage")

	err = service.LinkStorage(context.Background(), admin.Actor(), technician.ID, "")
	assert.ErrorIs(t, err, ErrValidation, "empty credential rejected")

	err = service.LinkStorage(context.Background(), admin.Actor(), technician.ID, "issued-by-admin")
	assert.NoError(t, err, "admins link on behalf of anyone")
}

func TestUserDeleteRules(t *testing.T) {
	service, repo, admin, technician := newUserServiceForTest()

	err := service.Delete(context.Background(), technician.Actor(), admin.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = service.Delete(context.Background(), admin.Actor(), admin.ID)
	assert.ErrorIs(t, err, ErrForbidden, "admins never delete their own account")

	err = service.Delete(context.Background(), admin.Actor(), technician.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(context.Background(), technician.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserListAndGet(t *testing.T) {
	service, _, admin, technician := newUserServiceForTest()

	users, err := service.List(context.Background(), technician.Actor())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = service.List(context.Background(), types.Actor{})
	assert.ErrorIs(t, err, ErrForbidden, "unauthenticated listing denied")

	got, err := service.Get(context.Background(), technician.Actor(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, got.Email)

	byEmail, err := service.GetByEmail(context.Background(), "tess@example.com")
	require.NoError(t, err)
	assert.Equal(t, technician.ID, byEmail.ID)
}
