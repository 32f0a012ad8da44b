package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conspectus/internal/markdown"
)

const digestWindow = 24 * time.Hour

func (b *Bot) buildDigest(ctx context.Context) ([]string, error) {
	records, err := b.store.ListProcessedSince(ctx, time.Now().UTC().Add(-digestWindow))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	listing := formatRecordListing("📰 *Конспекты за 24 часа:*", records)

	return markdown.Split(listing, markdown.MessageMaxLength), nil
}

// SendDailyDigest pushes the daily digest to every user who requested a
// summary within the window. The scheduler calls it once a day.
func (b *Bot) SendDailyDigest(ctx context.Context) error {
	records, err := b.store.ListProcessedSince(ctx, time.Now().UTC().Add(-digestWindow))
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if len(records) == 0 {
		b.log.InfoContext(ctx, "No records for daily digest")
		return nil
	}

	recipients := make(map[int64]struct{})
	for _, record := range records {
		if record.RequestedBy != nil {
			recipients[*record.RequestedBy] = struct{}{}
		}
	}

	messages := markdown.Split(
		formatRecordListing("📰 *Конспекты за 24 часа:*", records),
		markdown.MessageMaxLength,
	)

	var errs []error

	for chatID := range recipients {
		for _, message := range messages {
			if err := b.sendMessageWithKeyboard(chatID, message, nil); err != nil {
				errs = append(errs, fmt.Errorf("send digest to %d: %w", chatID, err))
			}
		}
	}

	b.log.InfoContext(ctx, "Sent daily digest",
		"records", len(records),
		"recipients", len(recipients))

	return errors.Join(errs...)
}
