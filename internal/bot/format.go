package bot

import (
	"fmt"
	"strings"

	"conspectus/internal/domain"
	"conspectus/internal/feed"
	"conspectus/internal/markdown"
)

// formatRecordMessages renders a summary record as MarkdownV2 messages,
// split to fit Telegram's length limit.
func formatRecordMessages(record *domain.SummaryRecord) []string {
	var header strings.Builder

	header.WriteString(fmt.Sprintf("📄 *%s*\n", markdown.EscapeV2(record.Title)))
	header.WriteString(fmt.Sprintf("🔗 [%s](%s)\n", markdown.EscapeV2(record.URL), record.URL))

	switch record.Source {
	case domain.SourceGitHub:
		if record.Stars != "" {
			header.WriteString(fmt.Sprintf("⭐ %s", markdown.EscapeV2(record.Stars)))
			if record.Language != "" {
				header.WriteString(fmt.Sprintf(" · %s", markdown.EscapeV2(record.Language)))
			}
			header.WriteString("\n")
		}
	default:
		if record.Author != "" {
			header.WriteString(fmt.Sprintf("✍️ %s", markdown.EscapeV2(record.Author)))
			if record.PublishedDate != "" {
				header.WriteString(fmt.Sprintf(" · %s", markdown.EscapeV2(record.PublishedDate)))
			}
			header.WriteString("\n")
		}
	}

	header.WriteString(fmt.Sprintf("🤖 %s\n\n", markdown.EscapeV2(record.ModelUsed)))

	summary := markdown.EscapeV2(strings.TrimSpace(record.Summary))

	full := header.String() + summary

	return markdown.Split(full, markdown.MessageMaxLength)
}

// formatRecordListing renders records as a numbered list of links.
func formatRecordListing(header string, records []domain.SummaryRecord) string {
	var message strings.Builder

	message.WriteString(header)
	message.WriteString("\n\n")

	for i, record := range records {
		title := strings.TrimSpace(record.Title)
		if title == "" {
			title = record.URL
		}

		message.WriteString(fmt.Sprintf(
			"%d\\. [%s](%s) — %s\n",
			i+1,
			markdown.EscapeV2(title),
			record.URL,
			markdown.EscapeV2(record.ModelUsed),
		))
	}

	return message.String()
}

// formatFeedItemsMessage renders a recent-items listing for one source.
func formatFeedItemsMessage(source domain.Source, items []feed.Item) string {
	var message strings.Builder

	message.WriteString(fmt.Sprintf("📰 *Свежее на %s:*\n\n", markdown.EscapeV2(string(source))))

	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = item.URL
		}

		message.WriteString(fmt.Sprintf(
			"%d\\. [%s](%s)\n",
			i+1,
			markdown.EscapeV2(title),
			item.URL,
		))
	}

	message.WriteString("\nПришлите ссылку, и я сделаю конспект\\.")

	return message.String()
}
