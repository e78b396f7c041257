package whatsapp

import (
	"regexp"
	"strings"
)

const DefaultAttribution = "_(Replied by AI)_"

var (
	citationPattern = regexp.MustCompile(`【.*?】`)
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// FormatReply adapts model output to WhatsApp markup: citation markers are
// removed, **bold** becomes *bold*, and attribution is appended after a
// blank line when set.
func FormatReply(text, attribution string) string {
	text = strings.TrimSpace(citationPattern.ReplaceAllString(text, ""))
	text = boldPattern.ReplaceAllString(text, "*$1*")
	if attribution != "" {
		text += "\n\n" + attribution
	}
	return text
}
