// Package textnorm cleans names of transit entities and prepares text for
// the full-text search index.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/gnames/gnlib"
)

// CleanName fixes broken UTF-8, converts ideographic spaces, trims and
// collapses whitespace. It does not add spaces between CJK characters.
func CleanName(s string) string {
	if s == "" {
		return ""
	}
	s = gnlib.FixUtf8(s)
	s = strings.ReplaceAll(s, "　", " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEN replaces brackets and commas with spaces and collapses
// whitespace.
func NormalizeEN(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', ',':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// IsCJK reports if a rune is in the CJK Unified Ideographs block.
func IsCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// HasCJK reports if a string contains any CJK ideographs.
func HasCJK(s string) bool {
	return strings.ContainsFunc(s, IsCJK)
}

func isKeptASCII(r rune) bool {
	if r > unicode.MaxASCII {
		return false
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("+-/#&'", r)
}

// SegmentCJK splits CJK text into space-separated ideographs, so a word
// tokenizer indexes every character. ASCII letters, digits and '+-/#&''
// are kept together, everything else becomes a separator.
//
// For example '將軍澳' becomes '將 軍 澳'.
func SegmentCJK(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case IsCJK(r):
			b.WriteRune(r)
			b.WriteByte(' ')
		case isKeptASCII(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// PrepareQuery converts user input into an FTS5 MATCH expression. Terms
// with CJK characters are segmented, every token is quoted and a trailing
// '*' of a term keeps prefix semantics for its last token.
// An empty string is returned if nothing searchable is left.
func PrepareQuery(q string) string {
	var res []string
	for _, term := range strings.Fields(q) {
		prefix := strings.HasSuffix(term, "*")
		term = strings.TrimRight(term, "*")

		var tokens []string
		if HasCJK(term) {
			tokens = strings.Fields(SegmentCJK(term))
		} else {
			tokens = strings.Fields(NormalizeEN(term))
		}
		for i, v := range tokens {
			v = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
			if prefix && i == len(tokens)-1 {
				v += "*"
			}
			res = append(res, v)
		}
	}
	return strings.Join(res, " ")
}
