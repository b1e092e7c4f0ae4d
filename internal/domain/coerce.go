package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// NumberFromString разбирает строку по правилам числового приведения:
// пробелы по краям игнорируются, пустая строка даёт 0, поддерживаются
// префиксы 0x/0o/0b и Infinity. Всё остальное даёт NaN.
func NumberFromString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if !decimalRe.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	switch c := trimmed[0]; {
	case c == 'n':
		return 'n'
	case c == 't', c == 'f':
		return 'b'
	case c == '"':
		return 's'
	case c == '[':
		return 'a'
	case c == '{':
		return 'o'
	default:
		return 'd'
	}
}

func decodeNumber(raw json.RawMessage) float64 {
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func formatNumber(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// coercePrice: null, "" → null; остальное через числовое приведение.
func coercePrice(raw json.RawMessage) Price {
	switch jsonKind(raw) {
	case 'n', 0:
		return NullPrice
	case 's':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return NewPrice(math.NaN())
		}
		if s == "" {
			return NullPrice
		}
		return NewPrice(NumberFromString(s))
	case 'b':
		if coerceBool(raw) {
			return NewPrice(1)
		}
		return NewPrice(0)
	case 'd':
		return NewPrice(decodeNumber(raw))
	default:
		return NewPrice(math.NaN())
	}
}

// coerceBool приводит значение по правилам truthy/falsy.
func coerceBool(raw json.RawMessage) bool {
	switch jsonKind(raw) {
	case 'n', 0:
		return false
	case 'b':
		return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("true"))
	case 'd':
		f := decodeNumber(raw)
		return f != 0 && !math.IsNaN(f)
	case 's':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	default:
		return true
	}
}

var errNotText = errors.New("value is not a string")

// coerceText возвращает строковое представление скаляра.
// Объекты и массивы не принимаются.
func coerceText(raw json.RawMessage) (string, bool, error) {
	switch jsonKind(raw) {
	case 'n', 0:
		return "", true, nil
	case 's':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, false, nil
	case 'b':
		return string(bytes.TrimSpace(raw)), false, nil
	case 'd':
		return formatNumber(decodeNumber(raw)), false, nil
	default:
		return "", false, errNotText
	}
}

// coerceList: массив остаётся списком, непустая строка превращается
// в список из одного элемента, всё остальное - в пустой список.
func coerceList(raw json.RawMessage) StringList {
	switch jsonKind(raw) {
	case 'a':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return StringList{}
		}
		list := make(StringList, 0, len(items))
		for _, item := range items {
			s, isNull, err := coerceText(item)
			if err != nil || isNull {
				continue
			}
			list = append(list, s)
		}
		return list
	case 's':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return StringList{}
		}
		return StringList{s}
	default:
		return StringList{}
	}
}
