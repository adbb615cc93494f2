package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationPutUsesTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewRevocationRepository(client)

	mock.ExpectSet("blacklist:jti-1", "revoked", 1500*time.Millisecond).SetVal("OK")

	require.NoError(t, repo.Put(context.Background(), "blacklist:jti-1", 1500*time.Millisecond))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationPutSkipsExpired(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewRevocationRepository(client)

	require.NoError(t, repo.Put(context.Background(), "blacklist:old", 0))
	require.NoError(t, repo.Put(context.Background(), "blacklist:old", -time.Second))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationExists(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewRevocationRepository(client)

	mock.ExpectExists("blacklist:a").SetVal(1)
	mock.ExpectExists("blacklist:b").SetVal(0)
	mock.ExpectExists("blacklist:c").SetErr(errors.New("connection refused"))

	revoked, err := repo.Exists(context.Background(), "blacklist:a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.Exists(context.Background(), "blacklist:b")
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = repo.Exists(context.Background(), "blacklist:c")
	assert.Error(t, err)
}
