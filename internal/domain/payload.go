package domain

import (
	"encoding/json"
	"fmt"
)

// AllowedFields - единственные поля, которые принимаются при записи.
var AllowedFields = []string{
	"title",
	"category",
	"city",
	"location",
	"price",
	"price_unit",
	"description",
	"images",
	"tags",
	"contact_name",
	"contact_email",
	"contact_phone",
	"external_url",
	"admin_code",
	"expires_at",
	"published",
}

// Payload - сырые поля записи в том виде, в котором они пришли от клиента.
type Payload map[string]json.RawMessage

// Patch - нормализованный Payload. Nil-поле означает, что поле не передавалось.
type Patch struct {
	Title       *string
	Description *string
	Price       *Price
	Images      *StringList
	Tags        *StringList
	Published   *bool

	// Strings хранит непрозрачные строковые поля; nil-значение очищает поле.
	Strings map[string]*string
}

// Normalize применяет правила приведения к каждому переданному полю.
// Неизвестные ключи игнорируются.
func (p Payload) Normalize() (Patch, error) {
	patch := Patch{Strings: make(map[string]*string)}
	for key, raw := range p {
		switch key {
		case "title", "description":
			s, _, err := coerceText(raw)
			if err != nil {
				return Patch{}, invalidField(key)
			}
			if key == "title" {
				// 0 и false - пустой заголовок, как и "" или null.
				if !coerceBool(raw) {
					s = ""
				}
				patch.Title = &s
			} else {
				patch.Description = &s
			}
		case "price":
			price := coercePrice(raw)
			patch.Price = &price
		case "images":
			list := coerceList(raw)
			patch.Images = &list
		case "tags":
			list := coerceList(raw)
			patch.Tags = &list
		case "published":
			b := coerceBool(raw)
			patch.Published = &b
		default:
			if !isOpaqueString(key) {
				continue
			}
			s, isNull, err := coerceText(raw)
			if err != nil {
				return Patch{}, invalidField(key)
			}
			if isNull {
				patch.Strings[key] = nil
			} else {
				patch.Strings[key] = &s
			}
		}
	}
	return patch, nil
}

// ApplyTo накладывает Patch на запись (shallow merge).
func (p Patch) ApplyTo(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Description != nil {
		post.Description = *p.Description
	}
	if p.Price != nil {
		post.Price = *p.Price
	}
	if p.Images != nil {
		post.Images = *p.Images
	}
	if p.Tags != nil {
		post.Tags = *p.Tags
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
	for key, val := range p.Strings {
		if field := post.opaqueField(key); field != nil {
			*field = cloneString(val)
		}
	}
}

func (p *Post) opaqueField(key string) **string {
	switch key {
	case "category":
		return &p.Category
	case "city":
		return &p.City
	case "location":
		return &p.Location
	case "price_unit":
		return &p.PriceUnit
	case "contact_name":
		return &p.ContactName
	case "contact_email":
		return &p.ContactEmail
	case "contact_phone":
		return &p.ContactPhone
	case "external_url":
		return &p.ExternalURL
	case "admin_code":
		return &p.AdminCode
	case "expires_at":
		return &p.ExpiresAt
	}
	return nil
}

func isOpaqueString(key string) bool {
	return (&Post{}).opaqueField(key) != nil
}

func invalidField(key string) error {
	return &ValidationError{Message: fmt.Sprintf("invalid value for %s", key)}
}
