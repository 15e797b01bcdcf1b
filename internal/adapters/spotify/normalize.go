package spotify

import (
	"strings"
	"unicode"
)

// variantWords flag a trailing "(...)", "[...]" or " - ..." segment as a
// release variant rather than part of the name. Portuguese and Spanish
// markers are included since descriptors follow the conversation language.
var variantWords = map[string]bool{
	"clean": true, "deluxe": true, "edit": true, "edition": true, "explicit": true,
	"feat": true, "featuring": true, "ft": true, "live": true, "mix": true,
	"mono": true, "radio": true, "remaster": true, "remastered": true,
	"stereo": true, "version": true,
	"vivo": true, "acústico": true, "acustico": true, "versão": true,
	"versao": true, "remasterizado": true, "remasterizada": true, "directo": true,
}

// Normalize reduces a title or artist to its comparable form: lower case,
// quotes and variant suffixes dropped, words separated by single spaces.
// Letters keep their accents.
func Normalize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.Trim(s, `"'“”‘’`)
	for {
		head, ok := cutVariant(s)
		if !ok {
			break
		}
		s = head
	}
	return strings.Join(words(s), " ")
}

// cutVariant removes one trailing variant segment from s.
func cutVariant(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return s, false
	}
	var open int
	switch s[len(s)-1] {
	case ')':
		open = strings.LastIndexByte(s, '(')
	case ']':
		open = strings.LastIndexByte(s, '[')
	default:
		open = -1
	}
	if open > 0 && isVariant(s[open+1:len(s)-1]) {
		return s[:open], true
	}
	if i := strings.LastIndex(s, " - "); i > 0 && isVariant(s[i+3:]) {
		return s[:i], true
	}
	return s, false
}

func isVariant(segment string) bool {
	for _, w := range words(segment) {
		if variantWords[w] {
			return true
		}
	}
	return false
}

// words splits on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
