package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"mvdan.cc/xurls/v2"

	"conspectus/internal/domain"
	"conspectus/internal/pipeline"
	"conspectus/internal/provider"
)

const welcomeText = `🤖 *Конспектус*

Пришлите ссылку на статью — я извлеку текст и сделаю конспект\.

Поддерживаются:
– habr\.com — статьи
– github\.com — репозитории
– infostart\.ru — публикации

Команды:
/models — выбрать модель
/my — мои конспекты
/recent — свежие статьи из лент
/digest — конспекты за сутки
/help — помощь`

const helpText = `Пришлите ссылку на статью с habr\.com, github\.com или infostart\.ru\.

Готовые конспекты сохраняются: повторная ссылка вернёт конспект из кэша мгновенно, а кнопка под ним позволит сгенерировать его заново\.

По умолчанию работает локальная модель\. Облачные модели OpenAI доступны через /models при настроенном API\-ключе\.`

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		text := strings.TrimSpace(message.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			return b.sendMessageWithKeyboard(message.Chat.ID, welcomeText, nil)
		case strings.HasPrefix(text, "/help"):
			return b.sendMessageWithKeyboard(message.Chat.ID, helpText, nil)
		case strings.HasPrefix(text, "/models"):
			return b.handleModelsCommand(message.Chat.ID, message.From.ID)
		case strings.HasPrefix(text, "/my"):
			return b.handleMyCommand(ctx, message.Chat.ID, message.From.ID)
		case strings.HasPrefix(text, "/recent"):
			return b.handleRecentCommand(message.Chat.ID)
		case strings.HasPrefix(text, "/digest"):
			return b.handleDigestCommand(ctx, message.Chat.ID)
		default:
			return b.handleArticleText(ctx, text, message.Chat.ID, message.From.ID)
		}
	})
}

// handleArticleText treats any non-command text as a summarization request:
// the first URL found in it goes through the pipeline.
func (b *Bot) handleArticleText(
	ctx context.Context,
	text string,
	chatID int64,
	userID int64,
) error {
	rawURL := strings.TrimSpace(xurls.Strict().FindString(text))
	if rawURL == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Я не нашёл ссылку в сообщении\\. Пришлите URL статьи\\.",
			nil,
		)
	}

	result, err := b.pipeline.Process(ctx, pipeline.Request{
		URL:         rawURL,
		Model:       b.sessions.ModelFor(userID),
		RequestedBy: &userID,
	})
	if err != nil {
		return b.replyPipelineError(chatID, err)
	}

	return b.sendResult(chatID, result)
}

// sendResult delivers a formatted record. The regenerate button goes on the
// last chunk; cache hits are labeled so the user knows nothing was redone.
func (b *Bot) sendResult(chatID int64, result *pipeline.Result) error {
	messages := formatRecordMessages(result.Record)

	if result.CacheHit {
		messages = append([]string{fmt.Sprintf(
			"💾 Уже в кэше с %s\\.",
			result.Record.ProcessedAt.Format("02\\.01\\.2006"),
		)}, messages...)
	}

	var errs []error

	for i, message := range messages {
		var keyboard [][]tgbotapi.InlineKeyboardButton
		if i == len(messages)-1 {
			keyboard = regenerateKeyboard(result.Record.ID)
		}

		if err := b.sendMessageWithKeyboard(chatID, message, keyboard); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) handleModelsCommand(chatID int64, userID int64) error {
	current := b.sessions.ModelFor(userID)
	if current == "" {
		if spec, err := b.registry.Default(); err == nil {
			current = spec.Name
		}
	}

	return b.sendMessageWithKeyboard(
		chatID,
		"🧠 *Выберите модель:*",
		modelsKeyboard(b.registry.Models(), current),
	)
}

func (b *Bot) handleMyCommand(ctx context.Context, chatID int64, userID int64) error {
	records, err := b.store.ListByRequester(ctx, userID, 10)

	if len(records) == 0 {
		var errs []error
		if err != nil {
			errs = append(errs, fmt.Errorf("list records: %w", err))
		}

		sendErr := b.sendMessageWithKeyboard(chatID, "✖️ Пока нет конспектов\\.", nil)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("list records: %w", err))
	}

	if sendErr := b.sendMessageWithKeyboard(chatID, formatRecordListing(
		fmt.Sprintf("🗂 *Ваши конспекты \\(%d\\):*", len(records)),
		records,
	), nil); sendErr != nil {
		errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return errors.Join(errs...)
}

func (b *Bot) handleRecentCommand(chatID int64) error {
	keyboard := sourcesKeyboard(b.fetcher.Sources())
	if keyboard == nil {
		return b.sendMessageWithKeyboard(chatID, "✖️ Ленты не настроены\\.", nil)
	}

	return b.sendMessageWithKeyboard(chatID, "📰 *Выберите источник:*", keyboard)
}

func (b *Bot) handleDigestCommand(ctx context.Context, chatID int64) error {
	messages, err := b.buildDigest(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("build digest: %w", err)}

		if sendErr := b.sendMessageWithKeyboard(chatID, "❌ Не получилось\\.", nil); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(messages) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ За последние сутки конспектов не было\\.", nil)
	}

	var errs []error
	for _, message := range messages {
		if err := b.sendMessageWithKeyboard(chatID, message, nil); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) replyPipelineError(chatID int64, err error) error {
	text := "❌ Что\\-то пошло не так\\."

	var extErr *domain.ExtractionError
	var provErr *domain.ProviderError

	switch {
	case errors.As(err, &extErr):
		switch extErr.Reason {
		case domain.ExtractUnsupportedSource:
			text = "✖️ Источник не поддерживается\\. Я умею читать habr\\.com, github\\.com и infostart\\.ru\\."
		case domain.ExtractNetwork:
			text = "🌐 Не удалось загрузить страницу\\. Попробуйте позже\\."
		case domain.ExtractParse:
			text = "⚠️ Не удалось разобрать страницу\\."
		case domain.ExtractEmptyContent:
			text = "✖️ На странице не нашлось текста для конспекта\\."
		}

	case errors.As(err, &provErr):
		switch provErr.Kind {
		case domain.ProviderAuthMissing:
			text = "🔑 Облачная модель не настроена: нет API\\-ключа\\."
		case domain.ProviderUnavailable:
			text = "🤖 Модель недоступна\\. Проверьте, запущена ли Ollama\\."
		case domain.ProviderTimeout:
			text = "⏳ Модель не ответила вовремя\\. Попробуйте ещё раз\\."
		case domain.ProviderRateLimited:
			text = "⏳ Превышен лимит запросов к модели\\. Подождите немного\\."
		case domain.ProviderUpstreamError:
			text = "❌ Ошибка при генерации конспекта\\."
		}

	case errors.Is(err, provider.ErrUnknownModel):
		text = "✖️ Неизвестная модель\\. Выберите одну из /models\\."
	}

	if sendErr := b.sendMessageWithKeyboard(chatID, text, nil); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return err
}
