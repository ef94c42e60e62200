package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/autobid/internal/bidding"
	"github.com/web3guy0/autobid/internal/currency"
	"github.com/web3guy0/autobid/internal/freelancer"
	"github.com/web3guy0/autobid/internal/state"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

type fakeStatus struct {
	snap state.Snapshot
	err  error
}

func (f fakeStatus) Snapshot(context.Context) (state.Snapshot, error) { return f.snap, f.err }

type fakeStats map[string]interface{}

func (f fakeStats) GetStats() (map[string]interface{}, error) { return f, nil }

func newTestBot(chatID int64) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	return &Bot{send: fs, chatID: chatID, stopCh: make(chan struct{})}, fs
}

func testProject() *freelancer.Project {
	return &freelancer.Project{
		ID:       12,
		Title:    "Build a [React] dashboard",
		SeoURL:   "react/build-dashboard",
		BidStats: freelancer.BidStats{BidCount: 4},
	}
}

func TestNotifyBid(t *testing.T) {
	b, fs := newTestBot(99)
	res := bidding.Result{
		Success:  true,
		Amount:   decimal.NewFromInt(250),
		Currency: "USD",
		Period:   5,
	}

	b.NotifyBid(testProject(), res)

	require.Len(t, fs.sent, 1)
	msg := fs.sent[0]
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Equal(t, "Markdown", msg.ParseMode)
	assert.Contains(t, msg.Text, "BID PLACED")
	assert.Contains(t, msg.Text, "250.00 USD")
	assert.Contains(t, msg.Text, "5 days")
	assert.Contains(t, msg.Text, `Build a \[React\] dashboard`)
	assert.Contains(t, msg.Text, "https://www.freelancer.com/projects/react/build-dashboard")
}

func TestNotifyBidWithUSDEquivalent(t *testing.T) {
	b, fs := newTestBot(99)
	b.SetAmountFormatter(currency.NewConverter(nil, ""))

	b.NotifyBid(testProject(), bidding.Result{
		Success:  true,
		Amount:   decimal.NewFromInt(16600),
		Currency: "INR",
		Period:   7,
	})

	require.Len(t, fs.sent, 1)
	assert.Contains(t, fs.sent[0].Text, "INR 16600.00 ($200.00 USD)")
}

func TestNotifyBidSkips(t *testing.T) {
	t.Run("failed bid", func(t *testing.T) {
		b, fs := newTestBot(99)
		b.NotifyBid(testProject(), bidding.Result{Success: false, Error: "boom"})
		assert.Empty(t, fs.sent)
	})
	t.Run("no chat", func(t *testing.T) {
		b, fs := newTestBot(0)
		b.NotifyBid(testProject(), bidding.Result{Success: true})
		b.NotifyError("x")
		assert.Empty(t, fs.sent)
	})
}

func TestNotifyBidDryRun(t *testing.T) {
	b, fs := newTestBot(1)
	b.NotifyBid(testProject(), bidding.Result{Success: true, DryRun: true, Amount: decimal.NewFromInt(10)})
	require.Len(t, fs.sent, 1)
	assert.Contains(t, fs.sent[0].Text, "dry run")
}

func TestNotifyError(t *testing.T) {
	b, fs := newTestBot(5)
	b.NotifyError("invalid token")
	require.Len(t, fs.sent, 1)
	assert.Equal(t, "❌ invalid token", fs.sent[0].Text)
}

func TestStatusCommand(t *testing.T) {
	b, fs := newTestBot(5)
	b.status = fakeStatus{snap: state.Snapshot{
		Status:      "Running",
		Uptime:      "1h 5m",
		BidsToday:   3,
		TotalBids:   40,
		SuccessRate: 92.5,
		LastBidTime: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
		LastError:   "rate_limited",
	}}

	b.cmdStatus(5)

	require.Len(t, fs.sent, 1)
	text := fs.sent[0].Text
	assert.Contains(t, text, "*Status:* Running")
	assert.Contains(t, text, "*Bids today:* 3")
	assert.Contains(t, text, "92.5%")
	assert.Contains(t, text, "2024-06-01 10:30")
	assert.Contains(t, text, `rate\_limited`)
	assert.NotNil(t, fs.sent[0].ReplyMarkup)
}

func TestStatusCommandErrors(t *testing.T) {
	b, fs := newTestBot(5)
	b.cmdStatus(5)
	b.status = fakeStatus{err: errors.New("redis down")}
	b.cmdStatus(5)

	require.Len(t, fs.sent, 2)
	assert.Equal(t, "Status is not available.", fs.sent[0].Text)
	assert.Contains(t, fs.sent[1].Text, "Could not read")
}

func TestStatsCommand(t *testing.T) {
	b, fs := newTestBot(5)
	b.stats = fakeStats{"total_bids": int64(10), "success_rate": 80.0}

	b.cmdStats(5)

	require.Len(t, fs.sent, 1)
	text := fs.sent[0].Text
	assert.Contains(t, text, "*success rate:* 80.0")
	assert.Contains(t, text, "*total bids:* 10")
	assert.Less(t, strings.Index(text, "success rate"), strings.Index(text, "total bids"))
}

func TestProjectURLFallback(t *testing.T) {
	assert.Equal(t, "https://www.freelancer.com/projects/77", projectURL(&freelancer.Project{ID: 77}))
}
