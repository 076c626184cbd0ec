package validation

import (
	"regexp"
	"strings"
)

// identChars are the characters that may continue a signal ID. A match must
// not be preceded or followed by one of them.
const identChars = `\p{L}\p{N}_-`

// PlaceholderMarkers are the markers that indicate unfinished generation.
var PlaceholderMarkers = []string{"TBD", "TODO", "[INSERT", "XXX", "PLACEHOLDER"}

// SkipPatterns flag phrases that mark a test as skipped or not applicable.
var SkipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)skip\s+(?:this\s+)?test`),
	regexp.MustCompile(`(?i)\btests?\s+(?:is\s+|are\s+)?not\s+applicable\b`),
	regexp.MustCompile(`(?i)\bn/a\b`),
}

var (
	numberedStepPattern = regexp.MustCompile(`(?im)^\s*(?:\d+[.)]|step\s+\d+:)`)
	resultKeywords      = []string{"expected", "result", "acceptance", "criteria", "pass", "fail", "verify", "confirm"}
)

// ContainsSignalID reports whether id occurs in content as a whole token,
// ignoring case. "A-1" does not match inside "A-11".
func ContainsSignalID(content, id string) bool {
	if id == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)(?:^|[^` + identChars + `])` + regexp.QuoteMeta(id) + `(?:$|[^` + identChars + `])`)
	if err != nil {
		return false
	}
	return re.MatchString(content)
}

// FindPlaceholders returns the placeholder markers present in content, in
// PlaceholderMarkers order.
func FindPlaceholders(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, m := range PlaceholderMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			found = append(found, m)
		}
	}
	return found
}

// FindSkipPatterns returns the source of every skip pattern that matches.
func FindSkipPatterns(content string) []string {
	var found []string
	for _, re := range SkipPatterns {
		if re.MatchString(content) {
			found = append(found, strings.TrimPrefix(re.String(), "(?i)"))
		}
	}
	return found
}

// HasNumberedSteps reports whether some line starts with "1.", "1)" or "Step 1:".
func HasNumberedSteps(content string) bool {
	return numberedStepPattern.MatchString(content)
}

// HasExpectedResults reports whether content uses expected-results language.
func HasExpectedResults(content string) bool {
	return containsAny(strings.ToLower(content), resultKeywords...)
}

func containsAny(lower string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
