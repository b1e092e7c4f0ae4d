package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// sortColumns сопоставляет полям сортировки SQL-выражения; null считается
// нулём (или пустой строкой), как и в файловом хранилище.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"price":      "COALESCE(price, 0)",
	"expires_at": "COALESCE(expires_at, '')",
}

const searchExpr = "LOWER(CONCAT_WS(' ', title, description, COALESCE(city, ''), COALESCE(category, ''))) LIKE ?"

// Store реализует интерфейс Storage с использованием PostgreSQL.
// Id выдаёт последовательность bigserial: монотонно и без повторов.
type Store struct {
	db  *gorm.DB
	now storage.Clock
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени.
func WithClock(c storage.Clock) Option {
	return func(s *Store) { s.now = c }
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Post{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) ListPosts(ctx context.Context, q storage.ListQuery) (*storage.ListResult, error) {
	q = q.Normalized()

	var total int64
	if err := s.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	sort := storage.ParseSort(q.Sort)
	order := sortColumns[sort.Field]
	if sort.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	posts := []*domain.Post{}
	err := s.filtered(ctx, q).Order(order).Order("id ASC").Limit(q.Limit).Offset(q.Offset()).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return &storage.ListResult{Total: int(total), Page: q.Page, Limit: q.Limit, Data: posts}, nil
}

// filtered строит запрос с фильтрами списка; каждый вызов - новая цепочка.
func (s *Store) filtered(ctx context.Context, q storage.ListQuery) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&domain.Post{})
	if q.Published != nil {
		query = query.Where("published = ?", *q.Published)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.City != "" {
		query = query.Where("city = ?", q.City)
	}
	if q.Search != "" {
		query = query.Where(searchExpr, "%"+escapeLike(strings.ToLower(q.Search))+"%")
	}
	return query
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *Store) CreatePost(ctx context.Context, payload domain.Payload) (*domain.Post, error) {
	post, err := domain.NewPost(payload, s.now())
	if err != nil {
		return nil, err
	}
	// GORM заполнит ID из последовательности после вставки
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id int64, payload domain.Payload) (*domain.Post, error) {
	patch, err := payload.Normalize()
	if err != nil {
		return nil, err
	}

	var post domain.Post
	// Транзакция с блокировкой строки сериализует read-modify-write
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		patch.ApplyTo(&post)
		post.Touch(s.now())
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
