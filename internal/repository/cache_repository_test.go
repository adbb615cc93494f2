package repository

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
)

func TestCacheRepositoryRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, "diagnosis:")

	mock.ExpectSet("diagnosis:list", []byte(`{"count":2}`), time.Minute).SetVal("OK")
	mock.ExpectGet("diagnosis:list").SetVal(`{"count":2}`)
	mock.ExpectGet("diagnosis:other").RedisNil()

	require.NoError(t, repo.Set(context.Background(), "list", map[string]int{"count": 2}, time.Minute))

	var out map[string]int
	require.NoError(t, repo.Get(context.Background(), "list", &out))
	assert.Equal(t, 2, out["count"])

	err := repo.Get(context.Background(), "other", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, "diagnosis:")

	mock.ExpectScan(0, "diagnosis:list:*", 100).SetVal([]string{"diagnosis:list:a", "diagnosis:list:b"}, 0)
	mock.ExpectDel("diagnosis:list:a", "diagnosis:list:b").SetVal(2)

	require.NoError(t, repo.DeleteByPattern(context.Background(), "list:*"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
