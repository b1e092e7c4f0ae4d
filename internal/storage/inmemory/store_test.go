package inmemory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(t *testing.T, fields map[string]any) domain.Payload {
	t.Helper()
	p := make(domain.Payload, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		p[k] = raw
	}
	return p
}

// newTestStore создает хранилище и один пост для тестов
func newTestStore(t *testing.T) (storage.Storage, *domain.Post) {
	tick := time.UnixMilli(1_700_000_000_000)
	store := New(WithClock(func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}))
	post, err := store.CreatePost(context.Background(), payload(t, map[string]any{
		"title": "Test Post",
		"city":  "Glasgow",
	}))
	require.NoError(t, err)
	return store, post
}

func TestStore_CreateAndGetPost(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post, retrieved)

	_, err = store.GetPostByID(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreatePost_TitleRequired(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreatePost(context.Background(), payload(t, map[string]any{"city": "Leeds"}))
	require.Error(t, err)
	assert.Equal(t, "title is required", err.Error())
}

func TestStore_UpdatePost(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	updated, err := store.UpdatePost(ctx, post.ID, payload(t, map[string]any{"published": false, "images": "a.jpg"}))
	require.NoError(t, err)
	assert.False(t, updated.Published)
	assert.Equal(t, domain.StringList{"a.jpg"}, updated.Images)
	assert.Greater(t, updated.UpdatedAt, post.UpdatedAt)

	_, err = store.UpdatePost(ctx, 404, payload(t, map[string]any{"title": "x"}))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ListPosts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"Bike", "Desk", "Lamp"} {
		_, err := store.CreatePost(ctx, payload(t, map[string]any{"title": title, "city": "Leeds"}))
		require.NoError(t, err)
	}

	res, err := store.ListPosts(ctx, storage.ListQuery{City: "Leeds", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Lamp", res.Data[0].Title)
	assert.Equal(t, "Desk", res.Data[1].Title)
}

func TestStore_ConcurrentInserts(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreatePost(ctx, domain.Payload{"title": json.RawMessage(`"parallel"`)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := store.ListPosts(ctx, storage.ListQuery{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Total)

	seen := make(map[int64]bool)
	for _, p := range res.Data {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
	for id := int64(1); id <= 50; id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}
}
