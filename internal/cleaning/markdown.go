// Package cleaning normalizes raw GitHub issue content: it strips
// markdown formatting, deduplicates comments, truncates combined text to
// a budget, and flags likely noise issues.
package cleaning

import (
	"regexp"
	"strings"
)

var (
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	codeFenceRe   = regexp.MustCompile("```[a-zA-Z]*\n")
	codeTickRe    = regexp.MustCompile("```")
	inlineCodeRe  = regexp.MustCompile("`([^`]+)`")
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^\)]+\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	headerRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldRe        = regexp.MustCompile(`\*\*([^\*]+)\*\*`)
	italicRe      = regexp.MustCompile(`\*([^\*]+)\*`)
	boldUnderRe   = regexp.MustCompile(`__([^_]+)__`)
	italicUnderRe = regexp.MustCompile(`_([^_]+)_`)
	hrRe          = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	bulletRe      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numListRe     = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	blockquoteRe  = regexp.MustCompile(`(?m)^\s*>\s+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// CleanMarkdown strips markdown formatting from text while keeping the
// readable content: fences and markers are removed, link and image text
// is kept, URLs are discarded.
func CleanMarkdown(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = htmlCommentRe.ReplaceAllString(text, "")
	text = codeFenceRe.ReplaceAllString(text, "")
	text = codeTickRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = boldUnderRe.ReplaceAllString(text, "$1")
	text = italicUnderRe.ReplaceAllString(text, "$1")
	text = hrRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = numListRe.ReplaceAllString(text, "")
	text = blockquoteRe.ReplaceAllString(text, "")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
