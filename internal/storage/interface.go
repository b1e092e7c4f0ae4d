package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"
)

// ErrNotFound возвращается, когда записи с таким id нет.
var ErrNotFound = errors.New("not found")

// CorruptError - файл данных не разбирается как конверт коллекции.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("failed to parse data file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Clock возвращает текущее время; подменяется в тестах.
type Clock func() time.Time

// ListResult - страница результатов списка.
type ListResult struct {
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Data  []*domain.Post `json:"data"`
}

// Storage определяет контракт для хранилищ объявлений.
type Storage interface {
	ListPosts(ctx context.Context, q ListQuery) (*ListResult, error)
	// GetPostByID возвращает ErrNotFound, если записи нет.
	GetPostByID(ctx context.Context, id int64) (*domain.Post, error)
	CreatePost(ctx context.Context, payload domain.Payload) (*domain.Post, error)
	// UpdatePost возвращает ErrNotFound, если записи нет, и ничего не меняет.
	UpdatePost(ctx context.Context, id int64, payload domain.Payload) (*domain.Post, error)

	Ping(ctx context.Context) error
	Close() error
}
