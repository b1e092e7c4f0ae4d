package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Post представляет объявление на доске (жильё, события, купля-продажа, статьи).
type Post struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title        string     `json:"title" gorm:"type:text;not null"`
	Description  string     `json:"description" gorm:"type:text;not null"`
	Category     *string    `json:"category,omitempty" gorm:"type:text;index"`
	City         *string    `json:"city,omitempty" gorm:"type:text;index"`
	Location     *string    `json:"location,omitempty" gorm:"type:text"`
	Price        Price      `json:"price" gorm:"type:double precision"`
	PriceUnit    *string    `json:"price_unit,omitempty" gorm:"type:text"`
	Images       StringList `json:"images" gorm:"type:jsonb;serializer:json"`
	Tags         StringList `json:"tags" gorm:"type:jsonb;serializer:json"`
	ContactName  *string    `json:"contact_name,omitempty" gorm:"type:text"`
	ContactEmail *string    `json:"contact_email,omitempty" gorm:"type:text"`
	ContactPhone *string    `json:"contact_phone,omitempty" gorm:"type:text"`
	ExternalURL  *string    `json:"external_url,omitempty" gorm:"type:text"`
	AdminCode    *string    `json:"admin_code,omitempty" gorm:"type:text"`
	ExpiresAt    *string    `json:"expires_at,omitempty" gorm:"type:text"`
	Published    bool       `json:"published" gorm:"not null"`
	CreatedAt    int64      `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt    int64      `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

// NewPost собирает новую запись из входных полей: значения по умолчанию,
// затем нормализованный payload поверх них. ID назначает хранилище.
func NewPost(payload Payload, now time.Time) (*Post, error) {
	patch, err := payload.Normalize()
	if err != nil {
		return nil, err
	}
	ts := now.UnixMilli()
	post := &Post{
		Published: true,
		Images:    StringList{},
		Tags:      StringList{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	patch.ApplyTo(post)
	if strings.TrimSpace(post.Title) == "" {
		return nil, &ValidationError{Message: "title is required"}
	}
	return post, nil
}

// Touch обновляет updated_at: не раньше now и строго позже прежнего значения,
// даже если обновление пришло в ту же миллисекунду.
func (p *Post) Touch(now time.Time) {
	ts := now.UnixMilli()
	if ts <= p.UpdatedAt {
		ts = p.UpdatedAt + 1
	}
	p.UpdatedAt = ts
}

// Clone возвращает глубокую копию записи.
func (p *Post) Clone() *Post {
	c := *p
	c.Category = cloneString(p.Category)
	c.City = cloneString(p.City)
	c.Location = cloneString(p.Location)
	c.PriceUnit = cloneString(p.PriceUnit)
	c.ContactName = cloneString(p.ContactName)
	c.ContactEmail = cloneString(p.ContactEmail)
	c.ContactPhone = cloneString(p.ContactPhone)
	c.ExternalURL = cloneString(p.ExternalURL)
	c.AdminCode = cloneString(p.AdminCode)
	c.ExpiresAt = cloneString(p.ExpiresAt)
	c.Images = append(StringList{}, p.Images...)
	c.Tags = append(StringList{}, p.Tags...)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Price - цена объявления. Невалидная цена сериализуется как null,
// NaN хранится как есть и тоже уходит клиенту как null.
type Price struct {
	Amount float64
	Valid  bool
}

// NullPrice - отсутствующая цена.
var NullPrice = Price{}

// NewPrice оборачивает сумму (NaN тоже допустим).
func NewPrice(amount float64) Price {
	return Price{Amount: amount, Valid: true}
}

// IsNaN сообщает, что цена не прошла числовое приведение.
func (p Price) IsNaN() bool {
	return p.Valid && math.IsNaN(p.Amount)
}

// SortKey - значение для сортировки по цене: null считается нулём.
func (p Price) SortKey() float64 {
	if !p.Valid {
		return 0
	}
	return p.Amount
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid || math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(p.Amount)
}

func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = NullPrice
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = NewPrice(f)
	return nil
}

// Value реализует driver.Valuer для postgres-хранилища.
func (p Price) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	return p.Amount, nil
}

func (p *Price) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = NullPrice
	case float64:
		*p = NewPrice(v)
	case float32:
		*p = NewPrice(float64(v))
	case int64:
		*p = NewPrice(float64(v))
	case []byte:
		*p = NewPrice(NumberFromString(string(v)))
	case string:
		*p = NewPrice(NumberFromString(v))
	default:
		return fmt.Errorf("price: unsupported scan type %T", src)
	}
	return nil
}

// StringList - список строк (images, tags); nil сериализуется как [].
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}
