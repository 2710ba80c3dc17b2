package notify

import (
	"strings"
	"unicode/utf8"
)

// SplitText cuts s into segments of at most limit runes. Cuts prefer the last
// newline, then the last space inside the window, and fall back to a hard cut.
// Concatenating the segments yields s.
func SplitText(s string, limit int) []string {
	if s == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}

	var out []string
	for s != "" {
		if utf8.RuneCountInString(s) <= limit {
			out = append(out, s)
			break
		}

		// byte offset just past the limit-th rune
		end := 0
		for i := 0; i < limit; i++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}

		window := s[:end]
		cut := strings.LastIndexByte(window, '\n')
		if cut <= 0 {
			cut = strings.LastIndexByte(window, ' ')
		}
		if cut <= 0 {
			cut = end
		} else {
			cut++ // keep the separator with the left segment
		}

		out = append(out, s[:cut])
		s = s[cut:]
	}
	return out
}

// truncateRunes shortens s to at most limit runes, ending with an ellipsis
// when shortened. Used only for titles, never for message bodies.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

// chunk groups items into slices of at most size.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
