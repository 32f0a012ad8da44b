package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"conspectus/internal/domain"
	"conspectus/internal/pipeline"
)

const recentItemsLimit = 5

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	return b.withSpinner(ctx, callback.Message.Chat.ID, func() error {
		data := strings.TrimSpace(callback.Data)

		if model, ok := strings.CutPrefix(data, modelCallbackPrefix); ok {
			return b.handleModelQuery(callback, model)
		}

		if recordIDStr, ok := strings.CutPrefix(data, regenerateCallbackPrefix); ok {
			return b.handleRegenerateQuery(ctx, callback, recordIDStr)
		}

		if sourceStr, ok := strings.CutPrefix(data, recentCallbackPrefix); ok {
			return b.handleRecentQuery(ctx, callback, sourceStr)
		}

		return nil
	})
}

func (b *Bot) handleModelQuery(callback *tgbotapi.CallbackQuery, model string) error {
	spec, _, err := b.registry.Resolve(model)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("resolve model: %w", err))
	}

	b.sessions.SetModel(callback.From.ID, spec.Name)

	if _, err = b.sender.Request(tgbotapi.NewCallback(callback.ID, "✅ Модель выбрана.")); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return b.sendMessageWithKeyboard(
		callback.Message.Chat.ID,
		fmt.Sprintf(
			"🧠 Теперь конспекты делает *%s* \\(%s\\)\\.",
			spec.Name,
			spec.Provider,
		),
		nil,
	)
}

func (b *Bot) handleRegenerateQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	recordIDStr string,
) error {
	recordID, err := strconv.ParseInt(strings.TrimSpace(recordIDStr), 10, 64)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse recordID: %w", err))
	}

	record, err := b.store.GetByID(ctx, recordID)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("get record: %w", err))
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		userID := callback.From.ID

		result, err := b.pipeline.Process(ctx, pipeline.Request{
			URL:         record.URL,
			Model:       b.sessions.ModelFor(userID),
			RequestedBy: &userID,
			Regenerate:  true,
		})
		if err != nil {
			return b.replyPipelineError(callback.Message.Chat.ID, err)
		}

		return b.sendResult(callback.Message.Chat.ID, result)
	})
}

func (b *Bot) handleRecentQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	sourceStr string,
) error {
	source, err := domain.ParseSource(sourceStr)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse source: %w", err))
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		items, err := b.fetcher.Recent(ctx, source, recentItemsLimit)
		if err != nil {
			errs := []error{fmt.Errorf("fetch recent items: %w", err)}

			sendErr := b.sendMessageWithKeyboard(
				callback.Message.Chat.ID,
				"❌ Не удалось загрузить ленту\\.",
				nil,
			)
			if sendErr != nil {
				errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
			}

			return errors.Join(errs...)
		}

		if len(items) == 0 {
			return b.sendMessageWithKeyboard(callback.Message.Chat.ID, "✖️ В ленте пусто\\.", nil)
		}

		return b.sendMessageWithKeyboard(
			callback.Message.Chat.ID,
			formatFeedItemsMessage(source, items),
			nil,
		)
	})
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		errs = append(errs, fmt.Errorf("send request: %w", err))
	}

	if err := fn(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if _, sendErr := b.sender.Request(tgbotapi.NewCallback(callback.ID, "❌ Не получилось.")); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send request: %w", sendErr))
	}
	return err
}
