package primitive

import (
	"strings"
	"unicode"
)

// CamelToSnake inserts an underscore before every upper-case rune and lowers it.
// "startDate" -> "start_date". Acronyms are not preserved: "courseID" -> "course_i_d".
func CamelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// SnakeToCamel upper-cases the rune following each underscore and drops the underscore.
// "start_date" -> "startDate".
func SnakeToCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RoundTrips reports whether a wire name survives snake -> camel -> snake unchanged.
// Names failing this are rejected as typos ("Name", "start__date", "v_2").
func RoundTrips(wire string) bool {
	return wire != "" && CamelToSnake(SnakeToCamel(wire)) == wire
}
