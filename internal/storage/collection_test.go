package storage

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.UnixMilli(1_700_000_000_000)

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

func mustInsert(t *testing.T, c *Collection, at time.Time, fields map[string]any) *domain.Post {
	t.Helper()
	post, err := c.Insert(payload(t, fields), at)
	require.NoError(t, err)
	return post
}

func ids(posts []*domain.Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestCollection_SequentialIDs(t *testing.T) {
	c := NewCollection()
	for i := 1; i <= 5; i++ {
		post := mustInsert(t, c, baseTime, map[string]any{"title": fmt.Sprintf("post %d", i)})
		assert.Equal(t, int64(i), post.ID)
	}

	_, err := c.Update(3, payload(t, map[string]any{"title": "changed"}), baseTime.Add(time.Second))
	require.NoError(t, err)

	post := mustInsert(t, c, baseTime, map[string]any{"title": "sixth"})
	assert.Equal(t, int64(6), post.ID)
	assert.Equal(t, int64(7), c.NextID)
}

func TestCollection_InsertFailureKeepsCounter(t *testing.T) {
	c := NewCollection()
	_, err := c.Insert(payload(t, map[string]any{"title": "  "}), baseTime)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, int64(1), c.NextID)
	assert.Empty(t, c.Items)

	post := mustInsert(t, c, baseTime, map[string]any{"title": "ok"})
	assert.Equal(t, int64(1), post.ID)
}

func TestCollection_Update(t *testing.T) {
	c := NewCollection()
	created := mustInsert(t, c, baseTime, map[string]any{"title": "Room", "price": "450", "city": "Glasgow"})

	updated, err := c.Update(created.ID, payload(t, map[string]any{"price": 500}), baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.NewPrice(500), updated.Price)
	assert.Equal(t, "Room", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, updated.CreatedAt)

	// Пустой title при обновлении допустим: проверка только при вставке.
	updated, err = c.Update(created.ID, payload(t, map[string]any{"title": ""}), baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "", updated.Title)

	_, err = c.Update(999, payload(t, map[string]any{"price": 1}), baseTime)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_FindReturnsCopy(t *testing.T) {
	c := NewCollection()
	mustInsert(t, c, baseTime, map[string]any{"title": "original"})

	found, err := c.Find(1)
	require.NoError(t, err)
	found.Title = "mutated"

	again, err := c.Find(1)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)

	_, err = c.Find(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_ListPagination(t *testing.T) {
	c := NewCollection()
	for i := 0; i < 23; i++ {
		mustInsert(t, c, baseTime.Add(time.Duration(i)*time.Second), map[string]any{"title": fmt.Sprintf("post %d", i)})
	}

	first := c.List(ListQuery{})
	assert.Equal(t, 23, first.Total)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 10, first.Limit)
	assert.Len(t, first.Data, 10)
	// По умолчанию - created_at по убыванию.
	assert.Equal(t, int64(23), first.Data[0].ID)

	last := c.List(ListQuery{Page: 3, Limit: 10})
	assert.Len(t, last.Data, 23-10*2)
	assert.Equal(t, 23, last.Total)

	beyond := c.List(ListQuery{Page: 4, Limit: 10})
	assert.Empty(t, beyond.Data)
	assert.NotNil(t, beyond.Data)
	assert.Equal(t, 23, beyond.Total)

	clamped := c.List(ListQuery{Page: -2, Limit: 500})
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, 50, clamped.Limit)
	assert.Len(t, clamped.Data, 23)
}

func TestCollection_SortStable(t *testing.T) {
	c := NewCollection()
	mustInsert(t, c, baseTime, map[string]any{"title": "a"})
	mustInsert(t, c, baseTime, map[string]any{"title": "b"})
	mustInsert(t, c, baseTime.Add(time.Second), map[string]any{"title": "c"})
	mustInsert(t, c, baseTime, map[string]any{"title": "d"})

	res := c.List(ListQuery{})
	assert.Equal(t, []int64{3, 1, 2, 4}, ids(res.Data))

	res = c.List(ListQuery{Sort: "+created_at"})
	assert.Equal(t, []int64{1, 2, 4, 3}, ids(res.Data))
}

func TestCollection_SortByPrice(t *testing.T) {
	c := NewCollection()
	mustInsert(t, c, baseTime, map[string]any{"title": "a", "price": 300})
	mustInsert(t, c, baseTime, map[string]any{"title": "b"})
	mustInsert(t, c, baseTime, map[string]any{"title": "c", "price": "100"})

	res := c.List(ListQuery{Sort: "price"})
	assert.Equal(t, []int64{2, 3, 1}, ids(res.Data))

	res = c.List(ListQuery{Sort: "-price"})
	assert.Equal(t, []int64{1, 3, 2}, ids(res.Data))

	// Неизвестное поле молча превращается в created_at по убыванию.
	res = c.List(ListQuery{Sort: "title"})
	assert.Equal(t, []int64{1, 2, 3}, ids(res.Data))
}

func TestCollection_FilterComposition(t *testing.T) {
	c := NewCollection()
	mustInsert(t, c, baseTime, map[string]any{"title": "Room in Glasgow", "city": "Glasgow", "category": "housing"})
	mustInsert(t, c, baseTime, map[string]any{"title": "Flat", "city": "Glasgow", "category": "housing", "published": false})
	mustInsert(t, c, baseTime, map[string]any{"title": "Sofa", "city": "Glasgow", "category": "sale"})
	mustInsert(t, c, baseTime, map[string]any{"title": "Room", "city": "Leeds", "category": "housing", "description": "near GLASGOW road"})

	yes, no := true, false

	res := c.List(ListQuery{City: "Glasgow", Category: "housing"})
	assert.ElementsMatch(t, []int64{1, 2}, ids(res.Data))

	res = c.List(ListQuery{City: "Glasgow", Category: "housing", Published: &yes})
	assert.Equal(t, []int64{1}, ids(res.Data))

	res = c.List(ListQuery{Published: &no})
	assert.Equal(t, []int64{2}, ids(res.Data))

	res = c.List(ListQuery{Search: "glasgow"})
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, ids(res.Data))

	res = c.List(ListQuery{Search: "glasgow", City: "Leeds"})
	assert.Equal(t, []int64{4}, ids(res.Data))

	res = c.List(ListQuery{Search: "room", Category: "housing", Published: &yes})
	assert.ElementsMatch(t, []int64{1, 4}, ids(res.Data))
	assert.Equal(t, 2, res.Total)
}

func TestDecodeCollection(t *testing.T) {
	c, err := DecodeCollection([]byte(`{"nextId": 3, "items": [{"id": 1, "title": "a", "price": null}, {"id": 2, "title": "b"}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.NextID)
	assert.Len(t, c.Items, 2)

	// nextId не может быть меньше или равен максимальному id.
	c, err = DecodeCollection([]byte(`{"nextId": 1, "items": [{"id": 7, "title": "a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(8), c.NextID)

	for _, bad := range []string{``, `[]`, `"x"`, `{}`, `{"items": 5}`, `{"items": null}`, `{"items": [null]}`, `{not json`} {
		_, err := DecodeCollection([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestCollection_EncodeRoundTrip(t *testing.T) {
	c := NewCollection()
	mustInsert(t, c, baseTime, map[string]any{"title": "a", "price": "abc", "tags": []string{"x"}})

	data, err := c.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"nextId\": 2")

	back, err := DecodeCollection(data)
	require.NoError(t, err)
	require.Len(t, back.Items, 1)
	// NaN не переживает запись на диск и читается как null.
	assert.Equal(t, domain.NullPrice, back.Items[0].Price)
	assert.Equal(t, domain.StringList{"x"}, back.Items[0].Tags)
}

func TestCollection_UpdateSameMillisecond(t *testing.T) {
	c := NewCollection()
	created := mustInsert(t, c, baseTime, map[string]any{"title": "Room"})

	first, err := c.Update(created.ID, payload(t, map[string]any{"price": 1}), baseTime)
	require.NoError(t, err)
	assert.Greater(t, first.UpdatedAt, first.CreatedAt)

	second, err := c.Update(created.ID, payload(t, map[string]any{"price": 2}), baseTime)
	require.NoError(t, err)
	assert.Greater(t, second.UpdatedAt, first.UpdatedAt)
	assert.Equal(t, created.CreatedAt, second.CreatedAt)
}
