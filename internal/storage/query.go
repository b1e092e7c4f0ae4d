package storage

import (
	"net/url"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

// SortableFields - поля, по которым разрешена сортировка.
var SortableFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"price":      true,
	"expires_at": true,
}

// ListQuery - параметры выборки списка. Нулевые Page/Limit означают значения по умолчанию.
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	City      string
	Published *bool
	Sort      string
}

// Sort - разобранный параметр sort.
type Sort struct {
	Field string
	Desc  bool
}

// ParseListQuery строит ListQuery из query string. При повторах параметра
// побеждает последнее значение.
func ParseListQuery(values url.Values) ListQuery {
	q := ListQuery{
		Search:   last(values, "search"),
		Category: last(values, "category"),
		City:     last(values, "city"),
		Sort:     last(values, "sort"),
	}
	if n, ok := parseIntPrefix(last(values, "page")); ok {
		q.Page = n
	}
	if n, ok := parseIntPrefix(last(values, "limit")); ok {
		q.Limit = n
	}
	if values.Has("published") {
		v := last(values, "published")
		published := v == "true" || v == "1"
		q.Published = &published
	}
	return q
}

// Normalized применяет значения по умолчанию и ограничения:
// page не меньше 1, limit в диапазоне [1, 50].
func (q ListQuery) Normalized() ListQuery {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset - индекс первой записи страницы.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseSort разбирает "-field", "+field" или "field". Неизвестное или пустое
// поле молча заменяется на created_at по убыванию.
func ParseSort(s string) Sort {
	if s == "" {
		return Sort{Field: "created_at", Desc: true}
	}
	sort := Sort{Field: s}
	if strings.HasPrefix(s, "-") {
		sort = Sort{Field: s[1:], Desc: true}
	} else if strings.HasPrefix(s, "+") {
		sort.Field = s[1:]
	}
	if !SortableFields[sort.Field] {
		return Sort{Field: "created_at", Desc: true}
	}
	return sort
}

func last(values url.Values, key string) string {
	vs := values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

// parseIntPrefix читает целое число из начала строки ("2abc" -> 2).
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		if n < 1<<30 {
			n = n*10 + int(c-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
