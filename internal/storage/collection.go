package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"
)

// Collection - конверт коллекции: счётчик id и сами записи.
// Инвариант: NextID всегда больше максимального id среди Items.
type Collection struct {
	NextID int64          `json:"nextId"`
	Items  []*domain.Post `json:"items"`
}

// NewCollection создаёт пустую коллекцию.
func NewCollection() *Collection {
	return &Collection{NextID: 1, Items: []*domain.Post{}}
}

var (
	errNotObject = errors.New("data file is not an object")
	errNoItems   = errors.New("items is not an array")
)

// DecodeCollection разбирает конверт. Ошибка означает повреждённые данные.
func DecodeCollection(data []byte) (*Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var raw struct {
		NextID int64           `json:"nextId"`
		Items  json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	items := bytes.TrimSpace(raw.Items)
	if len(items) == 0 || items[0] != '[' {
		return nil, errNoItems
	}
	c := &Collection{NextID: raw.NextID}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []*domain.Post{}
	}
	for _, item := range c.Items {
		if item == nil {
			return nil, errors.New("items contains null")
		}
		if item.ID >= c.NextID {
			c.NextID = item.ID + 1
		}
	}
	if c.NextID < 1 {
		c.NextID = 1
	}
	return c, nil
}

// Encode сериализует конверт с отступом в два пробела.
func (c *Collection) Encode() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func (c *Collection) index(id int64) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Find возвращает копию записи или ErrNotFound.
func (c *Collection) Find(id int64) (*domain.Post, error) {
	i := c.index(id)
	if i == -1 {
		return nil, ErrNotFound
	}
	return c.Items[i].Clone(), nil
}

// Insert валидирует payload, назначает следующий id и добавляет запись.
// При ошибке коллекция не меняется.
func (c *Collection) Insert(payload domain.Payload, now time.Time) (*domain.Post, error) {
	post, err := domain.NewPost(payload, now)
	if err != nil {
		return nil, err
	}
	post.ID = c.NextID
	c.NextID++
	c.Items = append(c.Items, post)
	return post.Clone(), nil
}

// Update сливает payload с существующей записью и обновляет updated_at.
func (c *Collection) Update(id int64, payload domain.Payload, now time.Time) (*domain.Post, error) {
	i := c.index(id)
	if i == -1 {
		return nil, ErrNotFound
	}
	patch, err := payload.Normalize()
	if err != nil {
		return nil, err
	}
	updated := c.Items[i].Clone()
	patch.ApplyTo(updated)
	updated.Touch(now)
	c.Items[i] = updated
	return updated.Clone(), nil
}

// List фильтрует, сортирует (стабильно) и режет на страницы.
func (c *Collection) List(q ListQuery) *ListResult {
	q = q.Normalized()
	filtered := make([]*domain.Post, 0, len(c.Items))
	for _, item := range c.Items {
		if Matches(item, q) {
			filtered = append(filtered, item)
		}
	}
	SortPosts(filtered, ParseSort(q.Sort))

	result := &ListResult{Total: len(filtered), Page: q.Page, Limit: q.Limit, Data: []*domain.Post{}}
	start := q.Offset()
	if start >= len(filtered) {
		return result
	}
	end := start + q.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	for _, item := range filtered[start:end] {
		result.Data = append(result.Data, item.Clone())
	}
	return result
}

// Matches проверяет запись против всех заданных фильтров (конъюнкция).
func Matches(post *domain.Post, q ListQuery) bool {
	if q.Published != nil && post.Published != *q.Published {
		return false
	}
	if q.Category != "" && deref(post.Category) != q.Category {
		return false
	}
	if q.City != "" && deref(post.City) != q.City {
		return false
	}
	if q.Search != "" {
		haystack := strings.ToLower(strings.Join([]string{
			post.Title, post.Description, deref(post.City), deref(post.Category),
		}, " "))
		if !strings.Contains(haystack, strings.ToLower(q.Search)) {
			return false
		}
	}
	return true
}

// SortPosts сортирует на месте; равные элементы сохраняют порядок вставки.
func SortPosts(posts []*domain.Post, s Sort) {
	sort.SliceStable(posts, func(i, j int) bool {
		cmp := compareField(posts[i], posts[j], s.Field)
		if s.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareField(a, b *domain.Post, field string) int {
	switch field {
	case "updated_at":
		return compareFloat(float64(a.UpdatedAt), float64(b.UpdatedAt))
	case "price":
		return compareFloat(a.Price.SortKey(), b.Price.SortKey())
	case "expires_at":
		return strings.Compare(deref(a.ExpiresAt), deref(b.ExpiresAt))
	default:
		return compareFloat(float64(a.CreatedAt), float64(b.CreatedAt))
	}
}

// compareFloat считает NaN равным всему остальному.
func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
