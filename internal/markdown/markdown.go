// Package markdown prepares text for Telegram's MarkdownV2 parse mode.
package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `._[](){}#|!+-=*~>` + "`"

// MessageMaxLength is Telegram's hard limit on message text.
const MessageMaxLength = 4096

// EscapeV2 escapes every MarkdownV2 special character in the input.
func EscapeV2(input string) string {
	lookup := mdV2SpecialCharLookup()
	charsToEscape := 0

	for i := range input {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range input {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Split cuts text into chunks no longer than limit bytes, preferring
// paragraph breaks, then line breaks. A cut never lands between an escaping
// backslash and the byte it escapes.
func Split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string

	for len(text) > limit {
		cut := limit

		if i := strings.LastIndex(text[:cut], "\n\n"); i > 0 {
			cut = i
		} else if i := strings.LastIndex(text[:cut], "\n"); i > 0 {
			cut = i
		}

		for cut > 0 && text[cut-1] == '\\' {
			cut--
		}
		if cut == 0 {
			cut = limit
		}

		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}

	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}

func mdV2SpecialCharLookup() [256]bool {
	var m [256]bool
	for _, c := range []byte(mdV2SpecialChars) {
		m[c] = true
	}
	return m
}
