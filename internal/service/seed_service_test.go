package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saufi-opi/mini-emr/internal/models"
)

func TestSeedServiceEnsurePrincipalIsIdempotent(t *testing.T) {
	users := newMemoryUserRepo()
	svc := NewSeedService(users, newMemoryDiagnosisRepo(), plainHasher{}, nil)
	ctx := context.Background()
	admin := SeedPrincipal{Email: "admin@example.com", FullName: "Admin", Password: "aaAA1234", Role: models.RoleAdmin}

	created, err := svc.EnsurePrincipal(ctx, admin)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsurePrincipal(ctx, admin)
	require.NoError(t, err)
	assert.False(t, created)

	require.Len(t, users.users, 1)
	for _, user := range users.users {
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.True(t, user.IsActive)
		assert.Equal(t, "hashed:aaAA1234", user.HashedPassword)
	}

	_, err = svc.EnsurePrincipal(ctx, SeedPrincipal{Email: "doctor@example.com", Role: models.RoleDoctor})
	assert.Error(t, err)
}

func TestSeedServiceImportDiagnoses(t *testing.T) {
	repo := newMemoryDiagnosisRepo()
	svc := NewSeedService(newMemoryUserRepo(), repo, plainHasher{}, nil)
	ctx := context.Background()
	csv := "code,description\nA00.0,\"Cholera due to Vibrio cholerae 01, biovar cholerae\"\nA01,Typhoid\n"

	inserted, err := svc.ImportDiagnoses(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	found, err := repo.FindByCode(ctx, "A00.0")
	require.NoError(t, err)
	assert.Equal(t, "Cholera due to Vibrio cholerae 01, biovar cholerae", found.Description)

	inserted, err = svc.ImportDiagnoses(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestSeedServiceImportDiagnosesRejectsBadInput(t *testing.T) {
	svc := NewSeedService(newMemoryUserRepo(), newMemoryDiagnosisRepo(), plainHasher{}, nil)
	ctx := context.Background()

	_, err := svc.ImportDiagnoses(ctx, strings.NewReader("id,name\n1,x\n"))
	assert.Error(t, err)

	_, err = svc.ImportDiagnoses(ctx, strings.NewReader("code,description\nA00\n"))
	assert.Error(t, err)

	_, err = svc.ImportDiagnoses(ctx, strings.NewReader(""))
	assert.Error(t, err)
}
