package freelancer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Project is a snapshot of an active marketplace project
type Project struct {
	ID                 int64    `json:"id"`
	OwnerID            int64    `json:"owner_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	PreviewDescription string   `json:"preview_description"`
	SeoURL             string   `json:"seo_url"`
	Status             string   `json:"status"`
	Type               string   `json:"type"` // "fixed" or "hourly"
	Budget             Budget   `json:"budget"`
	Currency           Currency `json:"currency"`
	BidStats           BidStats `json:"bid_stats"`
	Jobs               []Job    `json:"jobs"`
	Owner              Owner    `json:"owner"`
	Upgrades           Upgrades `json:"upgrades"`
	TimeSubmitted      int64    `json:"time_submitted"`
	BidPeriod          int      `json:"bidperiod"`
}

type Budget struct {
	Minimum decimal.Decimal `json:"minimum"`
	Maximum decimal.Decimal `json:"maximum"`
	Type    string          `json:"type,omitempty"`
}

type Currency struct {
	ID           int     `json:"id"`
	Code         string  `json:"code"`
	Sign         string  `json:"sign"`
	Name         string  `json:"name"`
	ExchangeRate float64 `json:"exchange_rate"`
}

type BidStats struct {
	BidCount int     `json:"bid_count"`
	BidAvg   float64 `json:"bid_avg"`
}

// Job is a skill tag attached to a project
type Job struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Owner struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Reputation Reputation  `json:"reputation"`
	Status     OwnerStatus `json:"status"`
}

type Reputation struct {
	EntireHistory History `json:"entire_history"`
}

type History struct {
	Overall        float64 `json:"overall"`
	Reviews        int     `json:"reviews"`
	Projects       int     `json:"all"`
	CompletionRate float64 `json:"completion_rate"`
}

type OwnerStatus struct {
	PaymentVerified bool `json:"payment_verified"`
	DepositMade     bool `json:"deposit_made"`
	EmailVerified   bool `json:"email_verified"`
}

type Upgrades struct {
	Featured   bool `json:"featured"`
	Sealed     bool `json:"sealed"`
	NDA        bool `json:"NDA"`
	IPContract bool `json:"ip_contract"`
	Urgent     bool `json:"urgent"`
	Qualified  bool `json:"qualified"`
	NonPublic  bool `json:"nonpublic"`
}

// IsElite reports whether the project carries an NDA, sealed, featured or
// IP-contract upgrade.
func (p *Project) IsElite() bool {
	u := p.Upgrades
	return u.NDA || u.Sealed || u.Featured || u.IPContract
}

// IsHourly reports whether the budget is an hourly rate
func (p *Project) IsHourly() bool {
	return p.Budget.Type == "hourly"
}

// CurrencyCode returns the upper-cased currency code, USD when absent
func (p *Project) CurrencyCode() string {
	if p.Currency.Code == "" {
		return "USD"
	}
	return strings.ToUpper(p.Currency.Code)
}

// SkillNames returns the names of the project's skill tags
func (p *Project) SkillNames() []string {
	names := make([]string, 0, len(p.Jobs))
	for _, job := range p.Jobs {
		if job.Name != "" {
			names = append(names, job.Name)
		}
	}
	return names
}

// SubmittedAt returns the submission time, zero when unknown
func (p *Project) SubmittedAt() time.Time {
	if p.TimeSubmitted <= 0 {
		return time.Time{}
	}
	return time.Unix(p.TimeSubmitted, 0)
}

var requiredProjectFields = []string{"id", "title", "budget", "bid_stats"}

// ValidateProjectData parses a raw project record. It returns nil when the
// record is malformed or lacks one of id, title, budget or bid_stats.
func ValidateProjectData(raw []byte) *Project {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Debug().Err(err).Msg("Skipping malformed project payload")
		return nil
	}

	for _, key := range requiredProjectFields {
		value, ok := fields[key]
		if !ok || string(value) == "null" {
			log.Debug().Str("field", key).Msg("Skipping project with missing field")
			return nil
		}
	}

	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Debug().Err(err).Msg("Skipping project with invalid field types")
		return nil
	}
	if p.ID == 0 {
		return nil
	}

	if p.Budget.Type == "" {
		p.Budget.Type = p.Type
	}
	if p.Budget.Type == "" {
		p.Budget.Type = "fixed"
	}
	if p.Currency.Code == "" {
		p.Currency.Code = "USD"
	}

	return &p
}
