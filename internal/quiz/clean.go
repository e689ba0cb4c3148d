package quiz

import (
	"regexp"
	"strings"
)

var (
	numberingPrefix = regexp.MustCompile(`(?i)^(?:question\s*\d+\s*:|q\s*\d+\s*:|\d+\.|\d+\))\s*`)
	trailingMarks   = regexp.MustCompile(`\?+$`)
)

// CleanText strips numbering such as "Question 3:", "Q3:", "3." or "3)"
// from the start of a question and collapses repeated trailing question marks.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.TrimSpace(numberingPrefix.ReplaceAllString(text, ""))
	return trailingMarks.ReplaceAllString(cleaned, "?")
}
