package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"conspectus/internal/domain"
)

const (
	modelCallbackPrefix      = "model_"
	regenerateCallbackPrefix = "regen_"
	recentCallbackPrefix     = "recent_"
)

func (b *Bot) sendMessageWithKeyboard(
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true
	if keyboard != nil {
		message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	}

	_, err := b.sender.Send(message)
	return err
}

func modelsKeyboard(
	specs []domain.ModelSpec,
	current string,
) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for _, spec := range specs {
		label := fmt.Sprintf("%s (%s)", spec.Name, spec.Provider)
		if spec.Name == current {
			label = "✅ " + label
		}

		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, modelCallbackPrefix+spec.Name),
		})
	}

	return keyboard
}

func regenerateKeyboard(recordID int64) [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData(
			"🔄 Обновить конспект",
			fmt.Sprintf("%s%d", regenerateCallbackPrefix, recordID),
		)},
	}
}

func sourcesKeyboard(sources []domain.Source) [][]tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton

	for _, source := range sources {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			string(source),
			recentCallbackPrefix+string(source),
		))
	}

	if row == nil {
		return nil
	}

	return [][]tgbotapi.InlineKeyboardButton{row}
}
