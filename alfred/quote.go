// Package alfred encodes farm jobs and tasks as Alfred job scripts.
//
// Alfred scripts are Tcl, so every value is quoted as a Tcl word.
package alfred

import (
	"strings"
)

// Quote quotes s as a single Tcl word.
// It uses braces when it can, and backslashes otherwise.
func Quote(s string) string {
	if braceable(s) {
		return "{" + s + "}"
	}
	return escape(s)
}

// List quotes items as a Tcl list, in braces.
// An item is left bare when it doesn't need quoting.
func List(items []string) string {
	words := make([]string, 0, len(items))
	for _, it := range items {
		words = append(words, word(it))
	}
	return Quote(strings.Join(words, " "))
}

func word(s string) string {
	if s == "" {
		return "{}"
	}
	if !strings.ContainsAny(s, " \t\n\r;{}[]$\\\"") {
		return s
	}
	return Quote(s)
}

// braceable checks s can be wrapped with braces without changing it.
// Braces in s should be balanced, and s shouldn't end with a backslash.
func braceable(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i == len(s)-1 {
				return false
			}
			// Skip the escaped character. Tcl doesn't count it as a brace.
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func escape(s string) string {
	b := strings.Builder{}
	for _, r := range s {
		switch r {
		case ' ', '\t', ';', '{', '}', '[', ']', '$', '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "{}"
	}
	return b.String()
}
