// Package scheduler runs the daily digest job.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"conspectus/internal/bot"
)

const (
	DailyDigestSpec       = "0 8 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	sendDigestTimeout     = 15 * time.Minute
)

type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	bot  *bot.Bot
	log  *slog.Logger
}

func New(ctx context.Context, bot *bot.Bot, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:  ctx,
		cron: c,
		bot:  bot,
		log:  log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(DailyDigestSpec, s.sendDailyDigest); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sendDailyDigest() {
	ctx, cancel := context.WithTimeout(s.ctx, sendDigestTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	if err := s.bot.SendDailyDigest(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to send daily digest",
			"error", err)
	}
}
