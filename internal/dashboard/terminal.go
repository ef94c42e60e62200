package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/web3guy0/autobid/internal/ratelimit"
	"github.com/web3guy0/autobid/internal/state"
)

// ═══════════════════════════════════════════════════════════════════════════
// TERMINAL DASHBOARD - Live bot status
// ═══════════════════════════════════════════════════════════════════════════
//
// Panels:
// - Header with status, uptime and last update
// - Bid counters and success rate
// - API quota usage
// - Recent bids (24h window from the state store)

const (
	DefaultRefresh = 5 * time.Second
	recentBidRows  = 8
	defaultWidth   = 100
	fetchTimeout   = 5 * time.Second
)

// Source is the read side of the state store
type Source interface {
	Snapshot(ctx context.Context) (state.Snapshot, error)
	RecentBids(ctx context.Context) ([]state.BidRecord, error)
}

// QuotaSource reports API rate limit usage
type QuotaSource interface {
	Status() ratelimit.Status
}

// Data is one refresh of everything the dashboard shows
type Data struct {
	Snapshot state.Snapshot
	Bids     []state.BidRecord
	Quota    *ratelimit.Status
	Fetched  time.Time
	Err      error
}

// Fetch reads a fresh Data from the sources. quota may be nil.
func Fetch(ctx context.Context, src Source, quota QuotaSource) Data {
	d := Data{Fetched: time.Now()}
	snap, err := src.Snapshot(ctx)
	if err != nil {
		d.Err = err
		return d
	}
	d.Snapshot = snap

	bids, err := src.RecentBids(ctx)
	if err != nil {
		d.Err = err
		return d
	}
	d.Bids = bids

	if quota != nil {
		st := quota.Status()
		d.Quota = &st
	}
	return d
}

var (
	colorBorder = lipgloss.Color("#22D3EE")
	colorGood   = lipgloss.Color("#4ADE80")
	colorBad    = lipgloss.Color("#F87171")
	colorWarn   = lipgloss.Color("#FACC15")
	colorDim    = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBorder)
	labelStyle = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(colorGood)
	badStyle   = lipgloss.NewStyle().Foreground(colorBad)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

// Render draws the dashboard for a terminal of the given width
func Render(d Data, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	inner := width - 4

	if d.Err != nil {
		return panelStyle.Width(inner).Render(
			titleStyle.Render("🤖 AUTOBID") + "\n\n" +
				badStyle.Render("❌ "+d.Err.Error()))
	}

	s := d.Snapshot
	header := panelStyle.Width(inner).Render(fmt.Sprintf("%s   %s %s   %s %s   %s %s",
		titleStyle.Render("🤖 AUTOBID"),
		labelStyle.Render("status"), statusStyle(s.Status).Render(orDash(s.Status)),
		labelStyle.Render("uptime"), valueStyle.Render(orDash(s.Uptime)),
		labelStyle.Render("updated"), valueStyle.Render(formatTime(s.LastUpdate)),
	))

	half := inner/2 - 2
	counters := panelStyle.Width(half).Render(strings.Join([]string{
		titleStyle.Render("📊 BIDS"),
		row("Today", fmt.Sprintf("%d", s.BidsToday)),
		row("Total", fmt.Sprintf("%d", s.TotalBids)),
		row("Success rate", rateStyle(s.SuccessRate).Render(fmt.Sprintf("%.1f%%", s.SuccessRate))),
		row("Processed", fmt.Sprintf("%d", s.ProcessedCount)),
		row("Last bid", formatTime(s.LastBidTime)),
	}, "\n"))

	quota := []string{titleStyle.Render("⏱️ API QUOTA")}
	if d.Quota == nil {
		quota = append(quota, labelStyle.Render("not tracked"))
	} else {
		q := d.Quota
		quota = append(quota,
			row("Last hour", fmt.Sprintf("%d / %d", q.RequestsLastHour, q.Limits.PerHour)),
			row("Last day", fmt.Sprintf("%d / %d", q.RequestsLastDay, q.Limits.PerDay)),
			row("Remaining", fmt.Sprintf("%d h / %d d", q.RemainingHour, q.RemainingDay)),
		)
	}
	quotaPanel := panelStyle.Width(half).Render(strings.Join(quota, "\n"))

	middle := lipgloss.JoinHorizontal(lipgloss.Top, counters, quotaPanel)

	bids := []string{titleStyle.Render("📋 RECENT BIDS")}
	if len(d.Bids) == 0 {
		bids = append(bids, warnStyle.Render("No bids in the last 24h - scanning..."))
	}
	for i, b := range d.Bids {
		if i == recentBidRows {
			break
		}
		bids = append(bids, bidLine(b, inner-4))
	}
	recent := panelStyle.Width(inner).Render(strings.Join(bids, "\n"))

	parts := []string{header, middle, recent}
	if s.LastError != "" {
		parts = append(parts, badStyle.Render("⚠️  last error: "+s.LastError))
	}
	parts = append(parts, labelStyle.Render("Press q to exit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value)
}

func bidLine(b state.BidRecord, width int) string {
	icon := goodStyle.Render("✓")
	if !b.Success {
		icon = badStyle.Render("✗")
	}
	title := truncate(b.Title, max(10, width-40))
	return fmt.Sprintf("%s %s  %-10s %s  %s",
		icon,
		labelStyle.Render(b.Timestamp.Format("15:04:05")),
		b.Amount+" "+b.Currency,
		title,
		labelStyle.Render(fmt.Sprintf("#%d", b.ProjectID)),
	)
}

func statusStyle(status string) lipgloss.Style {
	switch {
	case status == "Running":
		return goodStyle.Bold(true)
	case strings.HasPrefix(status, "Error"):
		return badStyle.Bold(true)
	case status == "":
		return labelStyle
	}
	return warnStyle.Bold(true)
}

func rateStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 80:
		return goodStyle
	case rate >= 50:
		return warnStyle
	}
	return badStyle
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ═══════════════════════════════════════════════════════════════════════════
// BUBBLETEA MODEL
// ═══════════════════════════════════════════════════════════════════════════

type dataMsg Data

type tickMsg time.Time

// Model refreshes Data on a ticker and renders it
type Model struct {
	src      Source
	quota    QuotaSource
	interval time.Duration
	data     Data
	loaded   bool
	width    int
}

// NewModel creates a dashboard model. quota may be nil.
func NewModel(src Source, quota QuotaSource, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultRefresh
	}
	return Model{src: src, quota: quota, interval: interval}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	src, quota := m.src, m.quota
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return dataMsg(Fetch(ctx, src, quota))
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
	case dataMsg:
		m.data = Data(msg)
		m.loaded = true
		return m, m.tick()
	case tickMsg:
		return m, m.fetch()
	}
	return m, nil
}

func (m Model) View() string {
	if !m.loaded {
		return titleStyle.Render("🤖 AUTOBID") + labelStyle.Render("  loading...")
	}
	return Render(m.data, m.width)
}

// Run shows the live dashboard until the user quits or ctx ends
func Run(ctx context.Context, src Source, quota QuotaSource, interval time.Duration) error {
	p := tea.NewProgram(NewModel(src, quota, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
