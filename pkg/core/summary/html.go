package summary

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// HTML converts a rendered Markdown summary to an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("MARKDOWN_RENDER_ERROR: %w", err)
	}
	return buf.String(), nil
}
