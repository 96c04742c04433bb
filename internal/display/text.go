package display

import (
	"strings"
	"unicode"

	"github.com/muesli/reflow/truncate"
	"golang.org/x/text/unicode/norm"
)

// Sanitize normalizes text to NFC, drops control characters and trims
// surrounding whitespace.
func Sanitize(text string) string {
	text = norm.NFC.String(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

// Truncate cuts text to at most width display cells.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.String(text, uint(width))
}
