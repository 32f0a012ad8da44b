// Package ratelimiter serializes outgoing Telegram API calls and paces them
// per chat, keeping the bot under Telegram's flood limits. Summaries for
// several users may finish at once; their deliveries queue here instead of
// tripping a 429.
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	privateChatInterval = time.Second
	groupChatInterval   = 3 * time.Second
	queueSize           = 1000
)

type request struct {
	message  tgbotapi.Chattable
	response chan response
}

type response struct {
	message tgbotapi.Message
	err     error
}

type Sender struct {
	api      *tgbotapi.BotAPI
	queue    chan request
	limiters map[int64]*rate.Limiter
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
}

func New(api *tgbotapi.BotAPI, log *slog.Logger) *Sender {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Sender{
		api:      api,
		queue:    make(chan request, queueSize),
		limiters: make(map[int64]*rate.Limiter),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	go s.processQueue()

	return s
}

// Send queues the message and blocks until it is delivered or the sender is
// stopped.
func (s *Sender) Send(message tgbotapi.Chattable) (tgbotapi.Message, error) {
	req := request{
		message:  message,
		response: make(chan response, 1),
	}

	select {
	case s.queue <- req:
		resp := <-req.response

		return resp.message, resp.err
	case <-s.ctx.Done():
		return tgbotapi.Message{}, s.ctx.Err()
	}
}

// Request performs calls that do not deliver messages (callback answers and
// the like); they are not subject to flood limits.
func (s *Sender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return s.api.Request(c)
}

func (s *Sender) Stop() {
	s.cancel()
}

func (s *Sender) processQueue() {
	for {
		select {
		case req := <-s.queue:
			s.handleRequest(req)
		case <-s.ctx.Done():
			close(s.queue)

			for req := range s.queue {
				req.response <- response{err: s.ctx.Err()}
			}

			return
		}
	}
}

func (s *Sender) handleRequest(req request) {
	chatID := chatIDOf(req.message)

	if err := s.limiterFor(chatID).Wait(s.ctx); err != nil {
		req.response <- response{err: err}
		return
	}

	message, err := s.api.Send(req.message)
	if err != nil {
		s.log.WarnContext(s.ctx, "Failed to send message",
			"chatID", chatID,
			"error", err,
			"queueLen", len(s.queue))
	}

	req.response <- response{
		message: message,
		err:     err,
	}
}

func (s *Sender) limiterFor(chatID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[chatID]
	if !ok {
		interval := privateChatInterval
		// Group chat IDs are negative and get the stricter limit.
		if chatID < 0 {
			interval = groupChatInterval
		}

		limiter = rate.NewLimiter(rate.Every(interval), 1)
		s.limiters[chatID] = limiter
	}

	return limiter
}

func chatIDOf(message tgbotapi.Chattable) int64 {
	switch m := message.(type) {
	case tgbotapi.MessageConfig:
		return m.ChatID
	case tgbotapi.EditMessageTextConfig:
		return m.ChatID
	case tgbotapi.DeleteMessageConfig:
		return m.ChatID
	case tgbotapi.ChatActionConfig:
		return m.ChatID
	default:
		return 0
	}
}
