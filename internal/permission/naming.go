package permission

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// headline turns "login-logs", "login_logs" or "loginLogs" into "Login Logs".
func headline(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)

	words := splitWords(s)
	for i, w := range words {
		words[i] = caser.String(w)
	}

	return strings.Join(words, " ")
}

func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
		prev  rune
	)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()

			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}

		prev = r
	}

	flush()

	return words
}

// slug lower-cases s and joins its words with "_" ("by-nsrsbh" -> "by_nsrsbh").
func slug(s string) string {
	var b strings.Builder

	pending := false

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}

			pending = false

			b.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			pending = true
		}
	}

	return b.String()
}
