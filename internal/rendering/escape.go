package rendering

import "strings"

// EscapeMarkdownV2 escapes text for Telegram's MarkdownV2 parse mode.
// Special characters: _ * [ ] ( ) ~ ` > # + - = | { } . ! \
func EscapeMarkdownV2(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			result.WriteByte('\\')
		}
		result.WriteRune(r)
	}

	return result.String()
}

// EscapeMarkdownV2URL escapes the target of an inline link, where only
// ')' and '\' are special.
func EscapeMarkdownV2URL(url string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)
}
