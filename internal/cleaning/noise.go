package cleaning

import (
	"fmt"
	"regexp"
	"strings"
)

// spamTitleRes match titles that carry no signal on their own.
var spamTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`^test\s*$`),
	regexp.MustCompile(`^testing\s*$`),
	regexp.MustCompile(`^hello\s*$`),
	regexp.MustCompile(`^hi\s*$`),
	regexp.MustCompile(`^hey\s*$`),
}

var spamLabels = map[string]bool{
	"spam":      true,
	"invalid":   true,
	"wontfix":   true,
	"duplicate": true,
}

var botAuthorPatterns = []string{"[bot]", "-bot", "bot-", "dependabot", "renovate"}

// ClassifyNoise reports whether an issue is likely noise (spam, bot
// traffic, near-empty content) and why.
func ClassifyNoise(title, body string, labels []string, author string) (bool, string) {
	var flagged []string
	for _, label := range labels {
		if spamLabels[strings.ToLower(label)] {
			flagged = append(flagged, label)
		}
	}
	if len(flagged) > 0 {
		return true, fmt.Sprintf("Spam label detected: %s", strings.Join(flagged, ", "))
	}

	if author != "" {
		lower := strings.ToLower(author)
		for _, pattern := range botAuthorPatterns {
			if strings.Contains(lower, pattern) {
				return true, fmt.Sprintf("Bot author: %s", author)
			}
		}
	}

	if len(strings.Fields(title)) <= 1 {
		return true, "Single-word title"
	}

	if len(strings.TrimSpace(body)) < 10 {
		return true, "Empty or very short body"
	}

	normalizedTitle := strings.ToLower(strings.TrimSpace(title))
	for _, re := range spamTitleRes {
		if re.MatchString(normalizedTitle) {
			return true, fmt.Sprintf("Spam pattern in title: %s", title)
		}
	}

	return false, ""
}
