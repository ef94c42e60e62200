package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBotConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadBotConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.SmartBidding.MinProfitableBudget)
	assert.Equal(t, 16000.0, cfg.Currency.MinBudgetINR)
	assert.Equal(t, 5, cfg.Monitoring.MaxConsecutiveErrors)
	assert.Equal(t, 30*time.Second, cfg.Monitoring.CheckInterval())
	assert.Equal(t, 300*time.Second, cfg.Monitoring.ErrorRetryDelay())
	assert.NotEmpty(t, cfg.BidTemplates)
}

func TestLoadBotConfig_JSONOverridesDefaults(t *testing.T) {
	path := writeFile(t, "bot_config.json", `{
		"smart_bidding": {"max_existing_bids": 15, "min_profitable_budget": 300},
		"client_filtering": {"enabled": true, "min_client_rating": 4.5},
		"monitoring": {"check_interval_seconds": 60, "max_consecutive_errors": 3},
		"priority_skills": ["Go", "Rust"]
	}`)

	cfg, err := LoadBotConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.SmartBidding.MaxExistingBids)
	assert.Equal(t, 300.0, cfg.SmartBidding.MinProfitableBudget)
	assert.True(t, cfg.ClientFiltering.Enabled)
	assert.Equal(t, 4.5, cfg.ClientFiltering.MinClientRating)
	// untouched keys keep their defaults
	assert.Equal(t, 0.8, cfg.ClientFiltering.MinCompletionRate)
	assert.Equal(t, 3, cfg.Monitoring.MaxConsecutiveErrors)
	assert.Equal(t, []string{"Go", "Rust"}, cfg.PrioritySkills)
}

func TestLoadBotConfig_YAML(t *testing.T) {
	path := writeFile(t, "bot_config.yaml", "filtering:\n  portfolio_matching: true\n  min_skill_match_score: 0.5\n")

	cfg, err := LoadBotConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Filtering.PortfolioMatching)
	assert.Equal(t, 0.5, cfg.Filtering.MinSkillMatchScore)
}

func TestLoadBotConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"bidding": `},
		{"negative bids", `{"smart_bidding": {"max_existing_bids": -1}}`},
		{"score above one", `{"filtering": {"min_skill_match_score": 1.5}}`},
		{"zero interval", `{"monitoring": {"check_interval_seconds": 0}}`},
		{"no templates", `{"bid_templates": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBotConfig(writeFile(t, "bot_config.json", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("FREELANCER_OAUTH_TOKEN", "tok")
	t.Setenv("FREELANCER_USER_ID", "45214417")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/tmp/autobid")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BOT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.FreelancerToken)
	assert.Equal(t, int64(45214417), cfg.FreelancerUserID)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, filepath.Join("/tmp/autobid", "autowork.db"), cfg.DatabaseURL)
	assert.Equal(t, filepath.Join("/tmp/autobid", "rate_limit_tracking.json"), cfg.DataPath("rate_limit_tracking.json"))
	assert.NoError(t, cfg.RequireBidding())
}

func TestLoad_InvalidUserID(t *testing.T) {
	t.Setenv("FREELANCER_USER_ID", "abc")
	t.Setenv("BOT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	_, err := Load()
	assert.Error(t, err)
}

func TestRequireBidding(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireBidding())

	cfg.FreelancerToken = "tok"
	assert.Error(t, cfg.RequireBidding())

	cfg.FreelancerUserID = 1
	assert.NoError(t, cfg.RequireBidding())
}
