package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/internal/repository"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

func TestUserServiceCreateDefaults(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewUserService(repo, plainHasher{}, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:    " new@example.com ",
		FullName: "New Doctor",
		Password: "password1",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, models.RoleDoctor, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, "hashed:password1", repo.users[user.ID].HashedPassword)
}

func TestUserServiceCreateRejections(t *testing.T) {
	repo := newMemoryUserRepo(newDoctor("d1", "doc@example.com"))
	svc := NewUserService(repo, plainHasher{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateUserRequest{Email: "doc@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "user with this email already exists", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, models.CreateUserRequest{Email: "x@example.com", Password: "short"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, models.CreateUserRequest{Email: "x@example.com", Password: "password1", Role: "nurse"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.createErr = repository.ErrDuplicate
	_, err = svc.Create(ctx, models.CreateUserRequest{Email: "race@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestUserServiceCreateInactiveAdmin(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewUserService(repo, plainHasher{}, nil, nil)
	inactive := false

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:    "ops@example.com",
		Password: "password1",
		Role:     models.RoleAdmin,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.False(t, user.IsActive)
}

func TestUserServiceGet(t *testing.T) {
	id := "8d2b0a6e-4b7f-4b55-9f3e-0c1f3b0f6a11"
	repo := newMemoryUserRepo(newDoctor(id, "doc@example.com"))
	svc := NewUserService(repo, plainHasher{}, nil, nil)
	ctx := context.Background()

	user, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "doc@example.com", user.Email)

	_, err = svc.Get(ctx, "5b0c3c1e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceUpdate(t *testing.T) {
	id := "8d2b0a6e-4b7f-4b55-9f3e-0c1f3b0f6a11"
	repo := newMemoryUserRepo(newDoctor(id, "doc@example.com"))
	svc := NewUserService(repo, plainHasher{}, nil, nil)

	name := "Dr Renamed"
	active := false
	password := "newpassword"
	user, err := svc.Update(context.Background(), id, models.UpdateUserRequest{
		FullName: &name,
		IsActive: &active,
		Password: &password,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dr Renamed", user.FullName)
	assert.False(t, user.IsActive)
	assert.Equal(t, models.RoleDoctor, user.Role)
	assert.Equal(t, "hashed:newpassword", repo.users[id].HashedPassword)
}

func TestUserServiceList(t *testing.T) {
	repo := newMemoryUserRepo(newDoctor("d1", "b@example.com"), newAdmin("a1", "a@example.com"))
	svc := NewUserService(repo, plainHasher{}, nil, nil)
	params := models.ListQuery{Pagination: query.Pagination{Limit: 10}, Sort: query.ParseSort("-email"), Search: "example"}

	result, err := svc.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, params, repo.listQuery)

	repo.err = errStoreDown
	_, err = svc.List(context.Background(), params)
	assert.Equal(t, appErrors.KindInternal, appErrors.KindOf(err))
}
