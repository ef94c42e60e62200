// Package bot provides Telegram bot functionality
//
// telegram.go - Telegram notifier for placed bids and loop errors.
// Answers /status and /stats from the state store and database.
package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/bidding"
	"github.com/web3guy0/autobid/internal/freelancer"
	"github.com/web3guy0/autobid/internal/state"
)

const projectURLBase = "https://www.freelancer.com/projects/"

// StatusSource reads the live bot state
type StatusSource interface {
	Snapshot(ctx context.Context) (state.Snapshot, error)
}

// StatsSource reads persisted totals
type StatsSource interface {
	GetStats() (map[string]interface{}, error)
}

// AmountFormatter renders a bid amount, e.g. with its USD equivalent
type AmountFormatter interface {
	Format(amount decimal.Decimal, code string) string
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot sends bid alerts to one chat and answers status commands
type Bot struct {
	api    *tgbotapi.BotAPI
	send   sender
	chatID int64
	status StatusSource
	stats  StatsSource
	amount AmountFormatter
	stopCh chan struct{}
}

// New connects to Telegram. status and stats may be nil.
func New(token string, chatID int64, status StatusSource, stats StatsSource) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram bot connected")

	return &Bot{
		api:    api,
		send:   api,
		chatID: chatID,
		status: status,
		stats:  stats,
		stopCh: make(chan struct{}),
	}, nil
}

// SetAmountFormatter shows bid amounts through f instead of the raw currency amount
func (b *Bot) SetAmountFormatter(f AmountFormatter) {
	b.amount = f
}

// Start begins the bot's command listener
func (b *Bot) Start() {
	go b.listenForCommands()

	if b.chatID != 0 {
		b.sendMarkdown(b.chatID, "🟢 *Autobid Online*\n\nMonitoring projects. Use /status to check the bot.")
	}
}

// Stop stops the bot
func (b *Bot) Stop() {
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
}

// NotifyBid alerts on placed bids. Failed attempts stay in the logs.
func (b *Bot) NotifyBid(p *freelancer.Project, res bidding.Result) {
	if b.chatID == 0 || !res.Success {
		return
	}
	if err := b.sendMarkdown(b.chatID, formatBid(p, res, b.amount)); err != nil {
		log.Warn().Err(err).Int64("project_id", p.ID).Msg("⚠️ Failed to send bid alert")
	}
}

// NotifyError alerts on loop errors
func (b *Bot) NotifyError(msg string) {
	if b.chatID == 0 {
		return
	}
	if err := b.sendText(b.chatID, "❌ "+msg); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to send error alert")
	}
}

var _ bidding.Notifier = (*Bot)(nil)

func (b *Bot) listenForCommands() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				go b.handleMessage(update.Message)
			}
			if update.CallbackQuery != nil {
				go b.handleCallback(update.CallbackQuery)
			}
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	log.Debug().
		Int64("chat_id", chatID).
		Str("text", msg.Text).
		Msg("Received message")

	if !msg.IsCommand() {
		return
	}
	switch msg.Command() {
	case "start", "help":
		b.cmdHelp(chatID)
	case "status":
		b.cmdStatus(chatID)
	case "stats":
		b.cmdStats(chatID)
	default:
		b.sendText(chatID, "❓ Unknown command. Use /help for available commands.")
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Debug().Err(err).Msg("Callback ack failed")
	}

	switch cb.Data {
	case "refresh_status":
		b.cmdStatus(chatID)
	case "refresh_stats":
		b.cmdStats(chatID)
	}
}

// Commands

func (b *Bot) cmdHelp(chatID int64) {
	b.sendMarkdown(chatID, `🤖 *Autobid Commands*

/status - Bot status and today's bids
/stats - Bid totals and managed projects
/help - This message`)
}

func (b *Bot) cmdStatus(chatID int64) {
	if b.status == nil {
		b.sendText(chatID, "Status is not available.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := b.status.Snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to read bot status")
		b.sendText(chatID, "❌ Could not read bot status.")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh_status"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Stats", "refresh_stats"),
		),
	)
	b.sendMarkdownWithKeyboard(chatID, formatStatus(snap), keyboard)
}

func (b *Bot) cmdStats(chatID int64) {
	if b.stats == nil {
		b.sendText(chatID, "Stats are not available.")
		return
	}
	stats, err := b.stats.GetStats()
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to read stats")
		b.sendText(chatID, "❌ Could not read stats.")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh_stats"),
		),
	)
	b.sendMarkdownWithKeyboard(chatID, formatStats(stats), keyboard)
}

// Formatting

func formatBid(p *freelancer.Project, res bidding.Result, f AmountFormatter) string {
	header := "✅ *BID PLACED*"
	if res.DryRun {
		header = "🧪 *BID PLACED (dry run)*"
	}
	amount := res.Amount.StringFixed(2) + " " + res.Currency
	if f != nil {
		amount = f.Format(res.Amount, res.Currency)
	}
	premium := ""
	if res.Premium {
		premium = "\n*Premium:* yes"
	}

	return fmt.Sprintf(`%s

*Project:* %s
*Amount:* %s
*Delivery:* %d days
*Bids so far:* %d%s

%s`,
		header,
		escapeMarkdown(p.Title),
		amount,
		res.Period,
		p.BidStats.BidCount,
		premium,
		projectURL(p),
	)
}

func formatStatus(s state.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Bot Status*\n\n")
	fmt.Fprintf(&b, "*Status:* %s\n", escapeMarkdown(orDash(s.Status)))
	fmt.Fprintf(&b, "*Uptime:* %s\n", orDash(s.Uptime))
	fmt.Fprintf(&b, "*Bids today:* %d\n", s.BidsToday)
	fmt.Fprintf(&b, "*Total bids:* %d\n", s.TotalBids)
	fmt.Fprintf(&b, "*Success rate:* %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(&b, "*Processed:* %d\n", s.ProcessedCount)
	if !s.LastBidTime.IsZero() {
		fmt.Fprintf(&b, "*Last bid:* %s\n", s.LastBidTime.Format("2006-01-02 15:04"))
	}
	if s.LastError != "" {
		fmt.Fprintf(&b, "\n⚠️ _%s_\n", escapeMarkdown(s.LastError))
	}
	return b.String()
}

func formatStats(stats map[string]interface{}) string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("📈 *Statistics*\n\n")
	for _, k := range keys {
		label := strings.ReplaceAll(k, "_", " ")
		switch v := stats[k].(type) {
		case float64:
			fmt.Fprintf(&b, "*%s:* %.1f\n", label, v)
		default:
			fmt.Fprintf(&b, "*%s:* %v\n", label, v)
		}
	}
	return b.String()
}

func projectURL(p *freelancer.Project) string {
	if p.SeoURL != "" {
		return projectURLBase + p.SeoURL
	}
	return fmt.Sprintf("%s%d", projectURLBase, p.ID)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Helpers

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.send.Send(msg)
	return err
}

func (b *Bot) sendMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	_, err := b.send.Send(msg)
	return err
}

func (b *Bot) sendMarkdownWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	_, err := b.send.Send(msg)
	return err
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
