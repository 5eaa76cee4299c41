package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tips-publish-system/models"
	"tips-publish-system/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Notifier announces published predictions and settled results to an
// outside channel. Implementations must not block the caller.
type Notifier interface {
	PredictionPublished(m *models.Match)
	ResultRecorded(m *models.Match)
}

// NoopNotifier is used when no channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) PredictionPublished(*models.Match) {}
func (NoopNotifier) ResultRecorded(*models.Match)      {}

// Min interval between two messages to the same chat (Telegram allows ~30/min).
const telegramSendInterval = 2 * time.Second

const telegramQueueSize = 100

// Close stops sending queued messages once this much time has passed.
const telegramDrainTimeout = 5 * time.Second

type chatSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts to a Telegram channel from a background queue.
// Messages are dropped when the queue is full.
type TelegramNotifier struct {
	sender       chatSender
	chatID       int64
	interval     time.Duration
	drainTimeout time.Duration
	clock        clockwork.Clock
	siteURL      string

	queue    chan string
	lastSend time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTelegramNotifier authorizes the bot and starts the sender goroutine.
func NewTelegramNotifier(token string, chatID int64, siteURL string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, utils.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false

	log.Info().Str("bot", bot.Self.UserName).Int64("chat_id", chatID).Msg("📣 Telegram notifier initialized")
	return newTelegramNotifier(bot, chatID, siteURL, telegramSendInterval, clockwork.NewRealClock()), nil
}

func newTelegramNotifier(sender chatSender, chatID int64, siteURL string, interval time.Duration, clock clockwork.Clock) *TelegramNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		sender:       sender,
		chatID:       chatID,
		interval:     interval,
		drainTimeout: telegramDrainTimeout,
		clock:        clock,
		siteURL:      strings.TrimRight(siteURL, "/"),
		queue:        make(chan string, telegramQueueSize),
		ctx:          ctx,
		cancel:       cancel,
	}

	n.wg.Add(1)
	go n.run()
	return n
}

func (n *TelegramNotifier) PredictionPublished(m *models.Match) {
	n.enqueue(fmt.Sprintf("⚽ New prediction: %s\n🏆 %s, %s UTC\n🎯 %s (%d%% confidence)\n%s/prediction/%s",
		m.Title(), m.League, m.MatchDate.UTC().Format("02 Jan 15:04"),
		m.Prediction, m.Confidence, n.siteURL, m.Slug))
}

func (n *TelegramNotifier) ResultRecorded(m *models.Match) {
	score := ""
	if m.ResultScore != nil {
		score = *m.ResultScore
	}
	n.enqueue(fmt.Sprintf("%s Result: %s %s\n🎯 %s: %s",
		betEmoji(m.BetStatus), m.Title(), score, m.Prediction, strings.ToUpper(string(m.BetStatus))))
}

// Close stops the sender. Queued messages are still sent while they fit in the
// drain timeout; the rest are dropped.
func (n *TelegramNotifier) Close() {
	n.cancel()
	n.wg.Wait()
}

func (n *TelegramNotifier) enqueue(text string) {
	select {
	case <-n.ctx.Done():
		return
	default:
	}

	select {
	case n.queue <- text:
	default:
		log.Warn().Int("queue_len", len(n.queue)).Msg("telegram queue full, dropping message")
	}
}

func (n *TelegramNotifier) run() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			n.drain(n.clock.Now().Add(n.drainTimeout))
			return
		default:
		}

		select {
		case <-n.ctx.Done():
		case text := <-n.queue:
			n.send(text)
		}
	}
}

func (n *TelegramNotifier) drain(deadline time.Time) {
	for {
		select {
		case text := <-n.queue:
			if n.nextSendAt().After(deadline) {
				log.Warn().Int("dropped", len(n.queue)+1).Msg("telegram drain timed out, dropping queued messages")
				return
			}
			n.send(text)
		default:
			return
		}
	}
}

func (n *TelegramNotifier) nextSendAt() time.Time {
	now := n.clock.Now()
	if n.lastSend.IsZero() {
		return now
	}
	if next := n.lastSend.Add(n.interval); next.After(now) {
		return next
	}
	return now
}

func (n *TelegramNotifier) send(text string) {
	if !n.lastSend.IsZero() {
		if wait := n.interval - n.clock.Since(n.lastSend); wait > 0 {
			n.clock.Sleep(wait)
		}
	}
	n.lastSend = n.clock.Now()

	if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		log.Error().Err(err).Int64("chat_id", n.chatID).Msg("telegram send failed")
	}
}

func betEmoji(b models.BetStatus) string {
	switch b {
	case models.BetStatusWon:
		return "✅"
	case models.BetStatusLost:
		return "❌"
	default:
		return "➖"
	}
}
