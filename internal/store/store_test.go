package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"microforge/pulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]NotificationStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]NotificationStore{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func record(id string, ts time.Time) domain.NotificationRecord {
	return domain.NotificationRecord{
		ID:        id,
		Type:      domain.RecordInfo,
		Title:     "title " + id,
		Message:   "message " + id,
		Service:   "pulse",
		Timestamp: ts,
	}
}

func TestCreateAndGet(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := record("n-1", time.Now().UTC().Truncate(time.Second))

			require.NoError(t, st.Create(ctx, want))

			got, err := st.Get(ctx, "n-1")
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Type, got.Type)
			assert.Equal(t, want.Title, got.Title)
			assert.Equal(t, want.Message, got.Message)
			assert.Equal(t, want.Service, got.Service)
			assert.False(t, got.Read)
			assert.True(t, want.Timestamp.Equal(got.Timestamp))
		})
	}
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(context.Background(), "does-not-exist")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			require.NoError(t, st.Create(ctx, record("old", base.Add(-2*time.Minute))))
			require.NoError(t, st.Create(ctx, record("new", base)))
			require.NoError(t, st.Create(ctx, record("mid", base.Add(-time.Minute))))

			records, err := st.Recent(ctx, 50)
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "new", records[0].ID)
			assert.Equal(t, "mid", records[1].ID)
			assert.Equal(t, "old", records[2].ID)
		})
	}
}

func TestRecentHonoursLimit(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			for i := 0; i < 5; i++ {
				require.NoError(t, st.Create(ctx, record(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))))
			}

			records, err := st.Recent(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, records, 2)
		})
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Create(ctx, record("n-1", time.Now().UTC())))

			first, err := st.MarkRead(ctx, "n-1")
			require.NoError(t, err)
			assert.True(t, first.Read)

			second, err := st.MarkRead(ctx, "n-1")
			require.NoError(t, err)
			assert.True(t, second.Read)
		})
	}
}

func TestMarkReadUnknownIDIsNotFound(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.MarkRead(context.Background(), "does-not-exist")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}
