package parser

import "fmt"

// DecodeDate rewrites a compact YYYYMMDDHHMMSS token as "DD.MM.YYYY HH:MM:SS".
//
// The token is not validated. Each component is cut at a fixed offset, so a
// short token yields empty components instead of an error.
func DecodeDate(raw string) string {
	return fmt.Sprintf("%s.%s.%s %s:%s:%s",
		cut(raw, 6, 8),
		cut(raw, 4, 6),
		cut(raw, 0, 4),
		cut(raw, 8, 10),
		cut(raw, 10, 12),
		cut(raw, 12, 14),
	)
}

// cut returns s[from:to] with both bounds clamped to len(s).
func cut(s string, from, to int) string {
	if from > len(s) {
		from = len(s)
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
