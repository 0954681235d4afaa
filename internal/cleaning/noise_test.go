package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNoise(t *testing.T) {
	longBody := "This body is long enough to carry a real idea worth summarizing."

	tests := []struct {
		name       string
		title      string
		body       string
		labels     []string
		author     string
		wantNoise  bool
		wantReason string
	}{
		{
			name:      "normal issue",
			title:     "Add webhook retries",
			body:      longBody,
			author:    "octocat",
			wantNoise: false,
		},
		{
			name:       "spam label",
			title:      "Add webhook retries",
			body:       longBody,
			labels:     []string{"enhancement", "Spam"},
			author:     "octocat",
			wantNoise:  true,
			wantReason: "Spam label detected: Spam",
		},
		{
			name:       "bot author",
			title:      "Bump lodash from 4.17.20 to 4.17.21",
			body:       longBody,
			author:     "dependabot[bot]",
			wantNoise:  true,
			wantReason: "Bot author: dependabot[bot]",
		},
		{
			name:       "renovate author",
			title:      "Update module golang.org/x/net",
			body:       longBody,
			author:     "renovate-runner",
			wantNoise:  true,
			wantReason: "Bot author: renovate-runner",
		},
		{
			name:       "single word title",
			title:      "help",
			body:       longBody,
			author:     "octocat",
			wantNoise:  true,
			wantReason: "Single-word title",
		},
		{
			name:       "near empty body",
			title:      "Feature request here",
			body:       "   +1   ",
			author:     "octocat",
			wantNoise:  true,
			wantReason: "Empty or very short body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noise, reason := ClassifyNoise(tt.title, tt.body, tt.labels, tt.author)
			assert.Equal(t, tt.wantNoise, noise)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestClassifyNoise_SpamTitlePattern(t *testing.T) {
	// Two-word spam titles pass the single-word check but are still
	// caught by the title patterns only when they match exactly.
	noise, reason := ClassifyNoise("test", "a body that is certainly long enough", nil, "octocat")
	assert.True(t, noise)
	assert.Equal(t, "Single-word title", reason)
}
