package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

func init() {
	logx.Disable()
}

func sampleSession(key model.SessionKey) *model.Session {
	s := model.NewSession(key, time.Now())
	s.LastIntent = model.IntentMedicineOrder
	s.SetPending(model.PendingOrder{ID: "p1", PatientID: "PAT001", ProductName: "Omega-3", Quantity: 2, UnitPrice: 15, StockSnapshot: 10, CreatedAt: time.Now()})
	s.AppendExchange("I want to buy 2 Omega-3", "Please confirm", 20)
	return s
}

func exerciseStore(t *testing.T, store model.SessionStore) {
	ctx := context.Background()
	key := model.SessionKey{UserID: "u-" + uuid.NewString(), SessionID: "s1"}

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Put(ctx, sampleSession(key)))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.PendingOrder)
	assert.Equal(t, 2, got.PendingOrder.Quantity)
	assert.Len(t, got.History, 2)

	other, err := store.Get(ctx, model.SessionKey{UserID: key.UserID, SessionID: "s2"})
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.Delete(ctx, key))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionStore(t *testing.T) {
	exerciseStore(t, NewMemorySessionStore(time.Hour))
}

func TestMemorySessionStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Hour)
	key := model.SessionKey{UserID: "u", SessionID: "s"}
	s := sampleSession(key)
	require.NoError(t, store.Put(ctx, s))

	s.TakePending()
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.HasPending())
}

func TestMemorySessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	key := model.SessionKey{UserID: "u", SessionID: "s"}
	require.NoError(t, store.Put(ctx, sampleSession(key)))
	require.NoError(t, store.Put(ctx, sampleSession(model.SessionKey{UserID: "u", SessionID: "t"})))

	now = now.Add(2 * time.Minute)
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestRedisSessionStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	store := NewRedisSessionStore(rdb, time.Minute)
	exerciseStore(t, store)

	key := model.SessionKey{UserID: "ttl-" + uuid.NewString(), SessionID: "s"}
	require.NoError(t, store.Put(context.Background(), sampleSession(key)))
	ttl, err := store.TTL(context.Background(), key)
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	require.NoError(t, store.Delete(context.Background(), key))
}
