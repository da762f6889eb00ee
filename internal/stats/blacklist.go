package stats

import "strings"

// Media placeholders the relay client substitutes for non-text content.
// Messages consisting of these carry no statistical value.
var blacklistPatterns = []string{
	"(emoticon)",
	"(photo)",
	"(video)",
	"(file)",
	"(voice note)",
	"(deleted message)",
	"(link)",
	"(map)",
	"(contact)",
	"(music)",
}

// IsBlacklisted reports whether a message content is excluded from
// statistics: empty text, command-prefixed text, or media placeholders.
func IsBlacklisted(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "!") || strings.HasPrefix(trimmed, "/") {
		return true
	}
	for _, p := range blacklistPatterns {
		if strings.Contains(trimmed, p) {
			return true
		}
	}
	return false
}
