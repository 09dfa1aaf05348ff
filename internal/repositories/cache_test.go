package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
)

func cacheTestHelper(t *testing.T) (redismock.ClientMock, CacheRepository) {
	t.Helper()
	t.Parallel()

	db, mock := redismock.NewClientMock()
	return mock, NewCacheRepository(db)
}

const idemKey = "idempotency:POST:/api/v1/accounts/A1/transactions:k-1"

func TestCacheRepository_SetIfNotExists(t *testing.T) {
	mock, rc := cacheTestHelper(t)

	tests := []struct {
		name    string
		doMock  func()
		want    bool
		wantErr bool
	}{
		{
			name: "lock acquired",
			doMock: func() {
				mock.ExpectSetNX(idemKey, "processing", time.Minute).SetVal(true)
			},
			want: true,
		},
		{
			name: "lock held by another request",
			doMock: func() {
				mock.ExpectSetNX(idemKey, "processing", time.Minute).SetVal(false)
			},
			want: false,
		},
		{
			name: "redis closed",
			doMock: func() {
				mock.ExpectSetNX(idemKey, "processing", time.Minute).SetErr(redis.ErrClosed)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.doMock()

			got, err := rc.SetIfNotExists(context.TODO(), idemKey, "processing", time.Minute)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)

			assert.NoError(t, mock.ExpectationsWereMet())
			mock.ClearExpect()
		})
	}
}

func TestCacheRepository_Set(t *testing.T) {
	mock, rc := cacheTestHelper(t)

	mock.ExpectSet(idemKey, `{"status":201}`, time.Hour).SetVal("OK")
	assert.NoError(t, rc.Set(context.TODO(), idemKey, `{"status":201}`, time.Hour))

	mock.ExpectSet(idemKey, `{"status":201}`, time.Hour).SetErr(redis.ErrClosed)
	assert.ErrorIs(t, rc.Set(context.TODO(), idemKey, `{"status":201}`, time.Hour), redis.ErrClosed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepository_Get(t *testing.T) {
	mock, rc := cacheTestHelper(t)

	tests := []struct {
		name    string
		doMock  func()
		want    string
		wantErr error
	}{
		{
			name: "trims stored value",
			doMock: func() {
				mock.ExpectGet(idemKey).SetVal(" cached \n")
			},
			want: "cached",
		},
		{
			name: "missing key",
			doMock: func() {
				mock.ExpectGet(idemKey).RedisNil()
			},
			wantErr: common.ErrDataNotFound,
		},
		{
			name: "redis closed",
			doMock: func() {
				mock.ExpectGet(idemKey).SetErr(redis.ErrClosed)
			},
			wantErr: redis.ErrClosed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.doMock()

			got, err := rc.Get(context.TODO(), idemKey)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
			mock.ClearExpect()
		})
	}
}

func TestCacheRepository_Del(t *testing.T) {
	mock, rc := cacheTestHelper(t)

	mock.ExpectDel(idemKey, idemKey+":response").SetVal(2)
	assert.NoError(t, rc.Del(context.TODO(), idemKey, idemKey+":response"))

	mock.ExpectDel(idemKey).SetErr(redis.ErrClosed)
	assert.Error(t, rc.Del(context.TODO(), idemKey))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepository_Ping(t *testing.T) {
	mock, rc := cacheTestHelper(t)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, rc.Ping(context.TODO()))

	mock.ExpectPing().SetErr(redis.ErrClosed)
	assert.Error(t, rc.Ping(context.TODO()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
