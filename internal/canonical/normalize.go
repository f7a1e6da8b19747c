package canonical

import (
	"strings"
	"time"
	"unicode"
)

// normalizeText lower-cases the input and collapses every run of
// whitespace and punctuation to a single space.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// publishedAtLayouts covers the date shapes the sources actually emit.
var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// datePart reduces a published_at value to its date component. Values that
// parse with none of the known layouts fall back to the trimmed raw string
// so two identical unparseable values still compare equal.
func datePart(publishedAt string) string {
	v := strings.TrimSpace(publishedAt)
	if v == "" {
		return ""
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return v
}
