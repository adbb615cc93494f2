package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

func seededDiagnoses(n int) []models.Diagnosis {
	items := make([]models.Diagnosis, n)
	for i := range items {
		items[i] = models.Diagnosis{
			ID:          fmt.Sprintf("00000000-0000-4000-8000-%012d", i+1),
			Code:        fmt.Sprintf("A%02d", i),
			Description: fmt.Sprintf("Condition %d", i),
		}
	}
	return items
}

func TestDiagnosisServiceListPagination(t *testing.T) {
	repo := newMemoryDiagnosisRepo(seededDiagnoses(10)...)
	svc := NewDiagnosisService(repo, nil, nil, nil)

	result, hit, err := svc.List(context.Background(), models.ListQuery{Pagination: query.Pagination{Skip: 5, Limit: 5}})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 10, result.Count)
	require.Len(t, result.Data, 5)
	assert.Equal(t, "A05", result.Data[0].Code)
}

func TestDiagnosisServiceListCaching(t *testing.T) {
	repo := newMemoryDiagnosisRepo(seededDiagnoses(3)...)
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), 0, nil, true)
	svc := NewDiagnosisService(repo, cache, nil, nil)
	ctx := context.Background()
	params := models.ListQuery{Pagination: query.Pagination{Limit: 100}, Sort: query.ParseSort("code")}

	first, hit, err := svc.List(ctx, params)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.List(ctx, params)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, models.CreateDiagnosisRequest{Code: "z99", Description: "New condition"})
	require.NoError(t, err)
	assert.Equal(t, []string{"list:*"}, cacheRepo.deleted)

	third, hit, err := svc.List(ctx, params)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, third.Count)
}

func TestDiagnosisServiceListSurvivesCacheOutage(t *testing.T) {
	repo := newMemoryDiagnosisRepo(seededDiagnoses(3)...)
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.getErr = errStoreDown
	cacheRepo.setErr = errStoreDown
	core, logs := observer.New(zap.DebugLevel)
	cache := NewCacheService(cacheRepo, nil, 0, nil, true)
	svc := NewDiagnosisService(repo, cache, nil, zap.New(core))
	params := models.ListQuery{Pagination: query.Pagination{Limit: 100}}

	for i := 0; i < 2; i++ {
		result, hit, err := svc.List(context.Background(), params)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, 3, result.Count)
	}
	assert.Equal(t, 2, repo.listCalls)
	assert.Equal(t, 2, logs.FilterMessage("diagnosis list served uncached").Len())
}

func TestDiagnosisServiceCreate(t *testing.T) {
	repo := newMemoryDiagnosisRepo(seededDiagnoses(1)...)
	svc := NewDiagnosisService(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateDiagnosisRequest{Code: " j45.9 ", Description: "Asthma"})
	require.NoError(t, err)
	assert.Equal(t, "J45.9", created.Code)
	assert.NotEmpty(t, created.ID)

	_, err = svc.Create(ctx, models.CreateDiagnosisRequest{Code: "A00", Description: "Duplicate"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, models.CreateDiagnosisRequest{Code: "TOOLONGCODE1", Description: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, models.CreateDiagnosisRequest{Code: "B00"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDiagnosisServiceGet(t *testing.T) {
	items := seededDiagnoses(1)
	svc := NewDiagnosisService(newMemoryDiagnosisRepo(items...), nil, nil, nil)
	ctx := context.Background()

	found, err := svc.Get(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A00", found.Code)

	_, err = svc.Get(ctx, "00000000-0000-4000-8000-999999999999")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Get(ctx, "A00")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
