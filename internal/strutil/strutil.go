package strutil

import "strings"

// SplitList splits a comma-separated value into trimmed, non-empty entries in
// their original order. Duplicates are kept.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ShellEscape returns a single-quoted shell literal for value.
func ShellEscape(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

// ShellArg returns value unchanged when it needs no quoting, otherwise a
// single-quoted shell literal.
func ShellArg(value string) string {
	if value == "" {
		return "''"
	}
	for _, r := range value {
		if !isPlainRune(r) {
			return ShellEscape(value)
		}
	}
	return value
}

func isPlainRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		strings.ContainsRune("-_./:@%+=,", r)
}
