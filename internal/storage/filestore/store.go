package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage поверх одного JSON-файла.
// Каждая операция читает файл целиком, а изменяющие - целиком его перезаписывают.
// Мьютекс сериализует цепочку load-mutate-save между запросами.
type Store struct {
	mu   sync.Mutex
	path string
	now  storage.Clock
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени.
func WithClock(c storage.Clock) Option {
	return func(s *Store) { s.now = c }
}

// New создаёт хранилище. Каталог файла создаётся, если его нет;
// сам файл создаётся лениво при первом чтении.
func New(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path возвращает путь к файлу данных.
func (s *Store) Path() string {
	return s.path
}

// load читает конверт; при отсутствии файла инициализирует его.
func (s *Store) load() (*storage.Collection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		c := storage.NewCollection()
		if err := s.save(c); err != nil {
			return nil, err
		}
		log.Printf("initialized data file %s", s.path)
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	c, err := storage.DecodeCollection(data)
	if err != nil {
		return nil, &storage.CorruptError{Path: s.path, Err: err}
	}
	return c, nil
}

// save перезаписывает файл целиком: сначала во временный файл рядом,
// затем rename поверх старого.
func (s *Store) save(c *storage.Collection) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func (s *Store) ListPosts(ctx context.Context, q storage.ListQuery) (*storage.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return nil, err
	}
	return c.List(q), nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return nil, err
	}
	return c.Find(id)
}

func (s *Store) CreatePost(ctx context.Context, payload domain.Payload) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return nil, err
	}
	post, err := c.Insert(payload, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(c); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id int64, payload domain.Payload) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return nil, err
	}
	post, err := c.Update(id, payload, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(c); err != nil {
		return nil, err
	}
	return post, nil
}

// Ping проверяет, что файл данных читается.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.load()
	return err
}

func (s *Store) Close() error {
	return nil
}
