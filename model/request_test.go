package model

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Laisky/errors/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/apiprobe/apiprobe/common"
	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/random"
)

// setupSQLiteDB swaps the global DB for a private in-memory SQLite database.
func setupSQLiteDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", random.GetUUID())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	originalDB := DB
	DB = gdb
	require.NoError(t, migrateDB())
	useSQLiteFlag(t, true)

	t.Cleanup(func() {
		DB = originalDB
		_ = sqlDB.Close()
	})
}

func setupMySQLMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	originalDB := DB
	DB = gdb
	useSQLiteFlag(t, false)

	t.Cleanup(func() {
		DB = originalDB
		_ = sqlDB.Close()
	})
	return mock
}

func insertFixture(t *testing.T, userId string) *StoredRequest {
	t.Helper()
	r, err := NewStoredRequest(userId, "list users", "GET", "https://example.com/users",
		map[string]any{"Accept": "application/json", "X-Retry": 3},
		map[string]any{"page": 2, "verbose": true},
		map[string]any{"name": "demo"})
	require.NoError(t, err)
	require.NoError(t, r.Insert(context.Background()))
	require.NotEmpty(t, r.Id)
	return r
}

func TestStoredRequestInsertAndGet(t *testing.T) {
	setupSQLiteDB(t)
	ctx := context.Background()

	r := insertFixture(t, "owner")

	got, err := GetStoredRequestByIdAndUserId(ctx, r.Id, "owner")
	require.NoError(t, err)
	require.Equal(t, "list users", got.Name)
	require.Equal(t, "https://example.com/users", got.URL)
	require.JSONEq(t, `{"Accept":"application/json","X-Retry":3}`, got.Headers)

	_, err = GetStoredRequestByIdAndUserId(ctx, r.Id, "someone-else")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = GetStoredRequestByIdAndUserId(ctx, random.NewRequestID(), "owner")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = GetStoredRequestByIdAndUserId(ctx, "", "owner")
	require.Error(t, err)
}

func TestStoredRequestInsertRequiresOwner(t *testing.T) {
	setupSQLiteDB(t)
	r, err := NewStoredRequest("", "n", "GET", "https://example.com", nil, nil, nil)
	require.NoError(t, err)
	require.Error(t, r.Insert(context.Background()))
}

func TestStoredRequestDefinition(t *testing.T) {
	r, err := NewStoredRequest("u", "n", "post", "https://example.com",
		map[string]any{"A": "b", "N": 1},
		map[string]any{"big": 12345678901234567890.0, "nested": map[string]any{"x": 1}},
		[]int{1, 2})
	require.NoError(t, err)

	def := r.Definition()
	require.Equal(t, "post", def.Method)
	require.Equal(t, "b", def.Headers["A"])
	require.Equal(t, json.Number("1"), def.Headers["N"])
	require.Contains(t, def.Params, "big")
	require.JSONEq(t, `[1,2]`, string(def.Body))

	broken := "{not json"
	r.Params = &broken
	r.Body = &broken
	r.Headers = "[]"
	def = r.Definition()
	require.Nil(t, def.Params)
	require.Nil(t, def.Body)
	require.Nil(t, def.Headers)
}

func TestGetStoredRequestQueriesByOwner(t *testing.T) {
	mock := setupMySQLMockDB(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `requests` WHERE id = ? AND user_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "url", "method", "headers", "created_at", "updated_at"}).
			AddRow("rid", "uid", "n", "https://example.com", "GET", "{}", now, now))

	got, err := GetStoredRequestByIdAndUserId(context.Background(), "rid", "uid")
	require.NoError(t, err)
	require.Equal(t, "rid", got.Id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetStoredRequestMemory(t *testing.T) {
	setupSQLiteDB(t)
	prev := config.MemoryCacheEnabled
	config.MemoryCacheEnabled = true
	t.Cleanup(func() { config.MemoryCacheEnabled = prev })

	ctx := context.Background()
	r := insertFixture(t, "owner")

	first, err := CacheGetStoredRequest(ctx, r.Id, "owner")
	require.NoError(t, err)

	// served from cache after the row is gone
	require.NoError(t, DB.Delete(&StoredRequest{}, "id = ?", r.Id).Error)
	second, err := CacheGetStoredRequest(ctx, r.Id, "owner")
	require.NoError(t, err)
	require.Equal(t, first.Id, second.Id)

	InvalidateStoredRequestCache(ctx, r.Id, "owner")
	_, err = CacheGetStoredRequest(ctx, r.Id, "owner")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

type fakeRedis struct {
	redis.Cmdable
	data map[string]string
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if v, ok := f.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx, "set", key)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	cmd := redis.NewIntCmd(ctx, "del")
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestCacheGetStoredRequestRedis(t *testing.T) {
	setupSQLiteDB(t)
	fake := &fakeRedis{data: map[string]string{}}
	prevRDB, prevEnabled := common.RDB, common.IsRedisEnabled()
	common.RDB = fake
	common.SetRedisEnabled(true)
	t.Cleanup(func() {
		common.RDB = prevRDB
		common.SetRedisEnabled(prevEnabled)
	})

	ctx := context.Background()
	r := insertFixture(t, "owner")

	_, err := CacheGetStoredRequest(ctx, r.Id, "owner")
	require.NoError(t, err)
	require.Contains(t, fake.data, storedRequestCacheKey(r.Id, "owner"))

	require.NoError(t, DB.Delete(&StoredRequest{}, "id = ?", r.Id).Error)
	cached, err := CacheGetStoredRequest(ctx, r.Id, "owner")
	require.NoError(t, err)
	require.Equal(t, r.URL, cached.URL)

	InvalidateStoredRequestCache(ctx, r.Id, "owner")
	require.Empty(t, fake.data)
}
