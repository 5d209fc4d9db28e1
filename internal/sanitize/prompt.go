package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MaxPromptLength is the default cap for complaint text that reaches
// a language model prompt.
const MaxPromptLength = 2000

// FilteredMarker replaces matched injection attempts in user input.
const FilteredMarker = "[FILTERED]"

// injectionPatterns match phrases that try to override the prompt that
// wraps the user's complaint text. Matching is case-insensitive.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)\bsystem\s*:`),
	regexp.MustCompile(`(?i)\bassistant\s*:`),
	regexp.MustCompile(`(?i)new\s+instructions\s*:`),
	regexp.MustCompile(`(?i)you\s+are\s+now\b`),
	regexp.MustCompile(`(?i)\bact\s+as\b`),
	regexp.MustCompile(`(?i)pretend\s+to\s+be\b`),
}

// excessNewlines collapses runs of blank lines that pad prompts.
var excessNewlines = regexp.MustCompile(`\n{3,}`)

// PromptInput prepares untrusted complaint text for inclusion in a
// language model prompt.
//
// It trims whitespace, truncates to maxLen runes (MaxPromptLength when
// maxLen <= 0), collapses runs of blank lines, and replaces known
// injection phrases with FilteredMarker. Ukrainian text passes through
// unchanged apart from these rules.
func PromptInput(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = MaxPromptLength
	}

	text = strings.TrimSpace(text)

	if runes := []rune(text); len(runes) > maxLen {
		text = string(runes[:maxLen])
	}

	text = excessNewlines.ReplaceAllString(text, "\n\n")

	for _, pattern := range injectionPatterns {
		text = pattern.ReplaceAllString(text, FilteredMarker)
	}

	return strings.TrimSpace(text)
}

// filenameChars matches everything disallowed in an uploaded file name.
var filenameChars = regexp.MustCompile(`[^a-zA-Z0-9а-яА-ЯіІїЇєЄґҐ._-]`)

// MaxFilenameLength caps sanitized upload names.
const MaxFilenameLength = 255

// Filename strips path components and unsafe characters from an
// uploaded file name. Returns "unknown" when nothing survives.
func Filename(name string) string {
	name = filepath.Base(name)
	name = filenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "unknown"
	}
	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength])
	}
	return name
}
