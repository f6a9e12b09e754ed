package services

import (
	"context"
	"fmt"

	"github.com/shiftnotes/apiserver/internal/policy"
	"github.com/shiftnotes/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetStorageCredential(ctx context.Context, id int, credential types.StorageCredential) error
	Delete(ctx context.Context, id int) error
}

// UserUpdate carries the caller-supplied profile fields. An empty Role
// keeps the current one; a non-empty Role requires admin.
type UserUpdate struct {
	Name  string
	Email string
	Role  string
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns all accounts. Any authenticated user may list users.
func (s *UserService) List(ctx context.Context, actor types.Actor) ([]types.User, error) {
	if !policy.CanReadUsers(actor) {
		return nil, fmt.Errorf("%w: cannot list users", ErrForbidden)
	}
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, actor types.Actor, id int) (types.User, error) {
	if !policy.CanReadUsers(actor) {
		return types.User{}, fmt.Errorf("%w: cannot read users", ErrForbidden)
	}
	return s.repo.GetByID(ctx, id)
}

// GetByEmail resolves an account by email. Used by the login path before
// an actor identity exists.
func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Create registers a new account. Admin only.
func (s *UserService) Create(ctx context.Context, actor types.Actor, user types.User) (types.User, error) {
	if !policy.CanCreateUser(actor) {
		return types.User{}, fmt.Errorf("%w: only admins create accounts", ErrForbidden)
	}
	if user.Name == "" || user.Email == "" || user.PasswordHash == "" {
		return types.User{}, fmt.Errorf("%w: name, email, and password are required", ErrValidation)
	}
	if user.Role == "" {
		user.Role = types.RoleTechnician
	}
	if err := validateRole(user.Role); err != nil {
		return types.User{}, err
	}
	return s.repo.Create(ctx, user)
}

// Update edits an account's profile. Users edit themselves, admins edit
// anyone; changing the role requires admin even on the actor's own
// account.
func (s *UserService) Update(ctx context.Context, actor types.Actor, id int, input UserUpdate) (types.User, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if !policy.CanEditUser(actor, target) {
		return types.User{}, fmt.Errorf("%w: cannot edit this account", ErrForbidden)
	}

	if input.Name == "" || input.Email == "" {
		return types.User{}, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if input.Role != "" && input.Role != target.Role {
		if !policy.CanChangeRole(actor) {
			return types.User{}, fmt.Errorf("%w: only admins change roles", ErrForbidden)
		}
		if err := validateRole(input.Role); err != nil {
			return types.User{}, err
		}
		target.Role = input.Role
	}
	target.Name = input.Name
	target.Email = input.Email

	return s.repo.Update(ctx, target)
}

// LinkStorage stores the user's blob store credential. Users link their
// own storage; admins may link on behalf of anyone.
func (s *UserService) LinkStorage(ctx context.Context, actor types.Actor, id int, credential string) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanEditUser(actor, target) {
		return fmt.Errorf("%w: cannot link storage for this account", ErrForbidden)
	}
	if credential == "" {
		return fmt.Errorf("%w: credential is required", ErrValidation)
	}
	return s.repo.SetStorageCredential(ctx, id, types.LinkedCredential(credential))
}

// Delete removes an account. Admin only, and never the admin's own
// account. Owned notes survive with their owner cleared.
func (s *UserService) Delete(ctx context.Context, actor types.Actor, id int) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteUser(actor, target) {
		return fmt.Errorf("%w: cannot delete this account", ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

func validateRole(role string) error {
	switch role {
	case types.RoleAdmin, types.RoleTechnician:
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
}
