// Package worker runs the background expiry cycle: recipients whose plan
// subscription is about to lapse get a reminder, just-lapsed ones a final
// notice. Redis markers keep both at one message per subscription.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lotbot/internal/store"
)

type Checker struct {
	Store store.Store
	Redis *redis.Client
	Bot   *telego.Bot
	Log   *zap.Logger
}

func NewChecker(st store.Store, rdb *redis.Client, bot *telego.Bot, log *zap.Logger) *Checker {
	return &Checker{Store: st, Redis: rdb, Bot: bot, Log: log}
}

// Start schedules the hourly cycle and runs one immediately. It returns
// the scheduler so the caller can shut it down.
func (c *Checker) Start() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(c.runCycle),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule expiry job: %w", err)
	}
	sched.Start()
	c.Log.Info("expiry worker started")
	return sched, nil
}

func (c *Checker) runCycle() {
	ctx := context.Background()
	now := time.Now()

	c.notifyExpiring(ctx, now)
	c.notifyExpired(ctx, now)
}

// notifyExpiring reminds subscriptions lapsing in [23h, 25h]. The window
// is wider than the hourly cadence so a slow cycle cannot skip anyone.
func (c *Checker) notifyExpiring(ctx context.Context, now time.Time) {
	from := float64(now.Add(23 * time.Hour).Unix())
	to := float64(now.Add(25 * time.Hour).Unix())

	subs, err := c.Store.ExpiringPlanSubscriptions(ctx, from, to)
	if err != nil {
		c.Log.Error("expiring subscriptions query failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		key := fmt.Sprintf("notified_24h_%d", sub.ID)
		exists, _ := c.Redis.Exists(ctx, key).Result()
		if exists > 0 {
			continue
		}
		user, err := c.Store.UserByID(ctx, sub.UserID)
		if err != nil {
			continue
		}
		_, err = c.Bot.SendMessage(ctx, tu.Message(
			tu.ID(user.TelegramID),
			fmt.Sprintf("⚠️ Il tuo piano %s scade tra 24 ore. Rinnovalo per continuare a ricevere le giocate.", sub.PlanName),
		))
		if err != nil {
			c.Log.Warn("expiry reminder failed", zap.Int64("chat", user.TelegramID), zap.Error(err))
			continue
		}
		c.Redis.Set(ctx, key, "1", 48*time.Hour)
	}
}

// notifyExpired sends the final notice for subscriptions lapsed within the
// last 24h.
func (c *Checker) notifyExpired(ctx context.Context, now time.Time) {
	from := float64(now.Add(-24 * time.Hour).Unix())
	to := float64(now.Unix())

	subs, err := c.Store.ExpiringPlanSubscriptions(ctx, from, to)
	if err != nil {
		c.Log.Error("expired subscriptions query failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		key := fmt.Sprintf("notified_expired_%d", sub.ID)
		exists, _ := c.Redis.Exists(ctx, key).Result()
		if exists > 0 {
			continue
		}
		user, err := c.Store.UserByID(ctx, sub.UserID)
		if err != nil {
			continue
		}
		_, err = c.Bot.SendMessage(ctx, tu.Message(
			tu.ID(user.TelegramID),
			fmt.Sprintf("❌ Il tuo piano %s è scaduto: le giocate coperte dal piano sono sospese finché non rinnovi.", sub.PlanName),
		))
		if err != nil {
			c.Log.Warn("expiry notice failed", zap.Int64("chat", user.TelegramID), zap.Error(err))
			continue
		}
		// The TTL outlives the 24h lookback, so the notice stays one-shot.
		c.Redis.Set(ctx, key, "1", 72*time.Hour)
	}
}
