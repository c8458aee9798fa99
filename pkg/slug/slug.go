// Copyright (c) 2026 Bloomify. All rights reserved.

// Package slug turns arbitrary Unicode text into ASCII slugs.
//
// Exported chat documents are named after the chat's subject and title, which
// are free text typed by teachers ("Théorie des Graphes", "DBMS / Unit 2").
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// From converts s into a lower-case ASCII slug.
//
// Accents are stripped after NFD decomposition, every other non-alphanumeric
// rune becomes a hyphen, and runs of hyphens collapse.
func From(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Filename builds "<slug>.<ext>", falling back to fallback when s has no usable characters.
func Filename(s, fallback, ext string) string {
	base := From(s)
	if base == "" {
		base = fallback
	}
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-")
	}
	return base + "." + ext
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
