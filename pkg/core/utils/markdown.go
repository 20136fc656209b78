package utils

import "strings"

// StripCodeFence removes one outer ``` fence (with any info string such as
// markdown or json) and trims the result.
func StripCodeFence(input string) string {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		info := strings.TrimSpace(s[:nl])
		if info == "" || !strings.ContainsAny(info, " \t#*-") {
			s = s[nl+1:]
		}
	}
	return strings.TrimSpace(s)
}

// CleanMarkdown prepares model-written Markdown for rendering.
func CleanMarkdown(input string) string {
	return StripCodeFence(input)
}
