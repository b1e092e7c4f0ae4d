package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu         sync.RWMutex
	collection *storage.Collection
	now        storage.Clock
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени.
func WithClock(c storage.Clock) Option {
	return func(s *Store) { s.now = c }
}

// New создает новый экземпляр in-memory хранилища.
func New(opts ...Option) *Store {
	s := &Store{
		collection: storage.NewCollection(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ListPosts(ctx context.Context, q storage.ListQuery) (*storage.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collection.List(q), nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collection.Find(id)
}

func (s *Store) CreatePost(ctx context.Context, payload domain.Payload) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collection.Insert(payload, s.now())
}

func (s *Store) UpdatePost(ctx context.Context, id int64, payload domain.Payload) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collection.Update(id, payload, s.now())
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
