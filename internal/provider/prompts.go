package provider

import (
	"fmt"
	"strings"

	"conspectus/internal/domain"
)

// Prompts are per-source: a habr article, a GitHub repository and an
// Infostart publication each get a dedicated instruction. Metadata gathered
// at extraction time (author, date, stars, language) is part of the prompt,
// not just the body text.

const habrSystemPrompt = `Ты — фильтр статей для занятого разработчика.

Твоя задача: помочь понять, стоит ли читать статью.

Правила:
- Пиши простым текстом без форматирования
- Никаких списков, заголовков, эмодзи
- Максимум 5-7 предложений
- Передай суть и тон статьи (автор хвалится, жалуется, учит, делится опытом?)
- В конце — один главный вывод автора
`

const habrUserPromptTemplate = `Перескажи суть статьи в 2-3 предложениях: кто автор, что сделал, каков результат. Потом одно предложение — главный вывод.

ЗАГОЛОВОК: %s
АВТОР: %s
ДАТА: %s

ТЕКСТ СТАТЬИ:
%s
`

const githubSystemPrompt = `Ты — аналитик open-source проектов.

Твоя задача: дать краткую справку о репозитории.

Правила:
- Пиши кратко, без эмодзи
- Три пункта: Назначение, Технологии, Зрелость
- Зрелость оценивай по звёздам и полноте README
`

const githubUserPromptTemplate = `Дай справку о репозитории по трём пунктам:
- Назначение (что делает, для кого)
- Технологии (языки, фреймворки, зависимости)
- Зрелость (оценка по звёздам, документации, активности)

РЕПОЗИТОРИЙ: %s
АВТОР: %s
ОПИСАНИЕ: %s
ЗВЁЗДЫ: %s
ЯЗЫК: %s

README:
%s
`

const infostartSystemPrompt = `Ты — консультант по продуктам 1С.

Твоя задача: выделить главное из публикации для специалиста по 1С.

Правила:
- Пиши простым текстом без форматирования и эмодзи
- Максимум 5-7 предложений
- Назови ключевые термины предметной области, о которых идёт речь
- В конце — кому публикация будет полезна
`

const infostartUserPromptTemplate = `Перескажи суть публикации: какую задачу решает автор и как. Отдельно перечисли ключевые понятия предметной области.

ЗАГОЛОВОК: %s
АВТОР: %s
ДАТА: %s

ТЕКСТ ПУБЛИКАЦИИ:
%s
`

// BuildPrompt selects the system and user prompts for an article. It is a
// pure function of the article; the same input always yields the same pair.
func BuildPrompt(article *domain.Article) (system string, user string, err error) {
	switch article.Source {
	case domain.SourceHabr:
		return habrSystemPrompt, fmt.Sprintf(habrUserPromptTemplate,
			orDefault(article.Title, "Не указан"),
			orDefault(article.Author, "Не указан"),
			orDefault(article.PublishedDate, "Не указана"),
			orDefault(article.Content, "Текст отсутствует"),
		), nil
	case domain.SourceGitHub:
		return githubSystemPrompt, fmt.Sprintf(githubUserPromptTemplate,
			orDefault(article.Title, "Не указан"),
			orDefault(article.Author, "Не указан"),
			orDefault(article.Description, "Нет описания"),
			orDefault(article.Stars, "0"),
			orDefault(article.Language, "Не определён"),
			orDefault(article.Content, "README отсутствует"),
		), nil
	case domain.SourceInfostart:
		return infostartSystemPrompt, fmt.Sprintf(infostartUserPromptTemplate,
			orDefault(article.Title, "Не указан"),
			orDefault(article.Author, "Не указан"),
			orDefault(article.PublishedDate, "Не указана"),
			orDefault(article.Content, "Текст отсутствует"),
		), nil
	default:
		return "", "", fmt.Errorf("no prompt template for source %q", article.Source)
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
