package chat

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(https?://[^\s]+)`)

// ExtractReference splits a draft into display text and a reference
// link. The first http(s) URL in the draft becomes the link. A draft
// that is nothing but a URL keeps a single-space text so the message
// still renders as a bubble around the link preview.
func ExtractReference(draft string) (messageText, referenceLink string) {
	trimmed := strings.TrimSpace(draft)
	url := urlPattern.FindString(trimmed)
	if url == "" {
		return trimmed, ""
	}
	if trimmed == url {
		return " ", url
	}
	return trimmed, url
}
