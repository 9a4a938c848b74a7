package competition

import (
	"strings"
	"unicode"
)

// titlePrefixes are the promotional lead-ins stripped from titles. Only the
// longest matching prefix is removed on each pass.
var titlePrefixes = []string{"win 1 of ", "win the ", "win an ", "win a ", "win "}

// NormalizeTitle canonicalizes a title into the key used for duplicate
// matching: lowercase, one leading "win ..." prefix removed, punctuation
// removed, whitespace collapsed and trimmed. The steps are repeated until
// the key stops changing, so NormalizeTitle(NormalizeTitle(t)) equals
// NormalizeTitle(t) even for titles like "Win: Win a Car".
func NormalizeTitle(title string) string {
	key := normalizePass(title)
	for {
		next := normalizePass(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizePass(s string) string {
	s = strings.ToLower(s)
	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
