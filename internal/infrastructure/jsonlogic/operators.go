package jsonlogic

import (
	"regexp"
	"unicode/utf8"
)

// OutsideLength reports whether the rune length of a string lies outside
// [min, max]. Usage: {"outside_length": [{"var": "name"}, 2, 100]}.
func OutsideLength(args ...any) any {
	if len(args) < 3 {
		return false
	}
	s, _ := args[0].(string)
	n := float64(utf8.RuneCountInString(s))
	return n < toFloat64(args[1]) || n > toFloat64(args[2])
}

// NotMatching reports whether a non-empty string fails to match a pattern.
// Usage: {"not_matching": [{"var": "zip_code"}, "^\\d{5}$"]}.
func NotMatching(args ...any) any {
	if len(args) < 2 {
		return false
	}
	s, _ := args[0].(string)
	expr, _ := args[1].(string)
	if s == "" || expr == "" {
		return false
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return true
	}
	return !re.MatchString(s)
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case uint:
		return float64(val)
	case uint64:
		return float64(val)
	case uint32:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}
