package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?" +
		`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
)

// DomainPattern accepts lower-case host names with at least one dot.
var DomainPattern = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)

// dateLayouts are tried in order when a date arrives as text.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"}

// isBlank reports nil, whitespace-only strings, false, and empty lists or maps.
func isBlank(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	case bool:
		return !vv
	case time.Time:
		return vv.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func text(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// length counts characters for text and elements for lists.
func length(v any) int {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return utf8.RuneCountInString(text(v))
}

func isEmail(v any) bool {
	s, ok := v.(string)
	return ok && emailPattern.MatchString(s)
}

// checkFutureDate compares calendar days in the clock's location.
func checkFutureDate(v any, now time.Time) string {
	var d time.Time
	switch vv := v.(type) {
	case time.Time:
		d = vv.In(now.Location())
	case string:
		parsed, ok := parseDate(strings.TrimSpace(vv), now.Location())
		if !ok {
			return MsgInvalidDate
		}
		d = parsed
	default:
		return MsgInvalidDate
	}

	today := truncateDay(now)
	if !truncateDay(d).After(today) {
		return MsgFutureDate
	}
	return ""
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseAmount reads a money amount as typed by a user. Everything but digits,
// dots and minus signs is stripped first, so "$150,000" is 150000 and "-5" stays negative.
func ParseAmount(v any) (float64, bool) {
	var n float64
	switch vv := v.(type) {
	case int:
		n = float64(vv)
	case int64:
		n = float64(vv)
	case float64:
		n = vv
	case float32:
		n = float64(vv)
	default:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, text(v))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func isPositiveNumber(v any) bool {
	n, ok := ParseAmount(v)
	return ok && n > 0
}

// OneOf returns a Custom check accepting only the given values.
// Surrounding whitespace is ignored; case is not.
func OneOf(values ...string) func(any) string {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = true
	}
	return func(v any) string {
		if set[strings.TrimSpace(text(v))] {
			return ""
		}
		return "Choose one of the available options."
	}
}
