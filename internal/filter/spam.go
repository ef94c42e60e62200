package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/web3guy0/autobid/internal/freelancer"
)

// DefaultSpamThreshold is the score at which a project counts as spam
const DefaultSpamThreshold = 50

// ═══════════════════════════════════════════════════════════════════
// KEYWORD TABLES
// ═══════════════════════════════════════════════════════════════════

var spamKeywords = []string{
	// get-rich-quick
	"make money fast", "earn per day", "passive income guaranteed",
	"financial freedom", "be your own boss today", "millionaire secrets",
	"guaranteed profit", "risk free investment", "double your money",
	// adult
	"adult", "escort", "dating site", "cam girl", "cam model", "only fans",
	"onlyfans", "adult content", "xxx", "porn", "sex chat", "hot girls",
	// crypto
	"crypto trading bot", "bitcoin investment", "forex signals",
	"pump and dump", "guaranteed returns", "crypto expert",
	// MLM
	"mlm", "network marketing", "pyramid", "referral program",
	"recruit others", "downline", "multi level",
	// academic
	"write my essay", "do my homework", "take my exam", "ghost writer",
	"academic writing", "assignment help", "dissertation for me",
	// gambling
	"casino", "gambling", "betting site", "poker bot", "slot machine",
	"sports betting", "odds prediction",
	// illegal
	"hack", "crack", "bypass security", "ddos", "phishing",
	"fake documents", "fake id", "counterfeit", "illegal",
	// reviews
	"fake review", "buy reviews", "5 star reviews", "app store reviews",
	"google reviews", "yelp reviews", "amazon reviews",
	// click fraud
	"click my ads", "watch ads", "click bot", "traffic bot",
	"fake traffic", "bot traffic", "click farm",
	// social manipulation
	"buy followers", "instagram followers", "fake followers",
	"youtube views", "tiktok likes", "social media bot",
	// survey / typing
	"survey", "data entry captcha", "form filling", "copy paste job",
	"simple typing", "earn by typing", "home based typing",
}

var suspiciousPatterns = compileAll(
	`\$\d+\s*(?:per|/)\s*(?:day|hour|week)`,
	`earn\s*\$?\d+\+?\s*(?:daily|hourly|weekly)`,
	`(?:whatsapp|telegram|skype|discord)\s*(?:me|contact|chat)`,
	`contact\s*me\s*(?:at|on)\s*[^\s]+@[^\s]+`,
	`(?:www\.|https?://)[^\s]+`,
	`\b(?:urgent|asap|immediately)\b.*\b(?:money|payment|cash)\b`,
	`(?:no\s*experience|anyone\s*can\s*do|easy\s*money)`,
	`(?:work\s*from\s*home|remote\s*job).*(?:guaranteed|assured)`,
)

var titleRedFlags = []string{
	"easy job", "simple task", "quick money", "urgent hiring",
	"data entry", "copy paste", "form filling", "ad clicking",
	"5 minutes work", "no experience", "hiring now",
}

var (
	simpleTaskWords  = []string{"data entry", "copy paste", "typing", "form filling", "simple task"}
	simpleTitleWords = []string{"data entry", "typing", "copy paste"}
	messagingApps    = []string{"whatsapp", "telegram", "skype", "discord", "signal", "viber"}
	roundBudgets     = []int64{1000, 5000, 10000}

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}\s?)?(?:\d{10,15}|\(\d{3}\)\s?\d{3}-?\d{4})`)

	titleCaser = cases.Title(language.English)
)

const (
	shortDescription  = 50
	vagueDescription  = 100
	simpleTaskMaxUSD  = 50
	tooHighHourlyRate = 100
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════
// SPAM FILTER
// ═══════════════════════════════════════════════════════════════════

// SpamResult is the verdict for one project
type SpamResult struct {
	IsSpam  bool     `json:"is_spam"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// ReasonCount is one entry of the top-reasons list
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// SpamStats summarizes checks since the last reset
type SpamStats struct {
	TotalChecked int           `json:"total_checked"`
	SpamDetected int           `json:"spam_detected"`
	SpamRate     float64       `json:"spam_rate"`
	TopReasons   []ReasonCount `json:"top_reasons"`
}

// SpamFilter scores projects for scam and off-platform signals
type SpamFilter struct {
	threshold int

	mu           sync.Mutex
	totalChecked int
	spamDetected int
	reasons      map[string]int
}

// NewSpamFilter creates a filter; threshold <= 0 uses DefaultSpamThreshold
func NewSpamFilter(threshold int) *SpamFilter {
	if threshold <= 0 {
		threshold = DefaultSpamThreshold
	}
	return &SpamFilter{
		threshold: threshold,
		reasons:   make(map[string]int),
	}
}

// Threshold returns the spam score cutoff
func (f *SpamFilter) Threshold() int {
	return f.threshold
}

// Check scores a project. Projects scoring at or above the threshold are spam.
func (f *SpamFilter) Check(p *freelancer.Project) SpamResult {
	title := fold(p.Title)
	description := fold(p.Description)

	var r SpamResult
	r.add(checkTitle(p.Title, title))
	r.add(checkDescription(description))
	r.add(checkBudget(p, title, description))
	r.add(checkMetadata(p, title))
	r.add(checkExternalContact(title + " " + description))
	r.IsSpam = r.Score >= f.threshold

	f.mu.Lock()
	f.totalChecked++
	if r.IsSpam {
		f.spamDetected++
		for _, reason := range r.Reasons {
			f.reasons[reason]++
		}
	}
	f.mu.Unlock()

	return r
}

// Stats returns counters and the five most frequent spam reasons
func (f *SpamFilter) Stats() SpamStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := SpamStats{
		TotalChecked: f.totalChecked,
		SpamDetected: f.spamDetected,
		TopReasons:   make([]ReasonCount, 0, len(f.reasons)),
	}
	if f.totalChecked > 0 {
		s.SpamRate = float64(f.spamDetected) / float64(f.totalChecked) * 100
	}
	for reason, count := range f.reasons {
		s.TopReasons = append(s.TopReasons, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(s.TopReasons, func(i, j int) bool {
		if s.TopReasons[i].Count != s.TopReasons[j].Count {
			return s.TopReasons[i].Count > s.TopReasons[j].Count
		}
		return s.TopReasons[i].Reason < s.TopReasons[j].Reason
	})
	if len(s.TopReasons) > 5 {
		s.TopReasons = s.TopReasons[:5]
	}
	return s
}

// ResetStats clears all counters
func (f *SpamFilter) ResetStats() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalChecked = 0
	f.spamDetected = 0
	f.reasons = make(map[string]int)
}

type partial struct {
	score   int
	reasons []string
}

func (p *partial) hit(points int, reason string) {
	p.score += points
	p.reasons = append(p.reasons, reason)
}

func (r *SpamResult) add(p partial) {
	r.Score += p.score
	r.Reasons = append(r.Reasons, p.reasons...)
}

// original is the title as posted; ALL CAPS cannot be seen after folding
func checkTitle(original, title string) partial {
	var p partial
	for _, flag := range titleRedFlags {
		if strings.Contains(title, flag) {
			p.hit(20, fmt.Sprintf("Suspicious title: '%s'", flag))
		}
	}
	if isAllCaps(original) && utf8.RuneCountInString(original) > 10 {
		p.hit(15, "Title in ALL CAPS")
	}
	if strings.Count(title, "!") > 2 || strings.Count(title, "$") > 2 {
		p.hit(10, "Excessive punctuation in title")
	}
	return p
}

func checkDescription(description string) partial {
	var p partial

	length := utf8.RuneCountInString(description)
	switch {
	case length < shortDescription:
		p.hit(30, fmt.Sprintf("Description too short (%d chars)", length))
	case length < vagueDescription:
		p.hit(15, fmt.Sprintf("Description too vague (%d chars)", length))
	}

	for _, kw := range spamKeywords {
		if strings.Contains(description, kw) {
			p.hit(25, fmt.Sprintf("Spam keyword: '%s'", kw))
			break
		}
	}

	for _, re := range suspiciousPatterns {
		if re.MatchString(description) {
			p.hit(20, "Suspicious pattern detected")
			break
		}
	}

	if hasExcessiveRepetition(description) {
		p.hit(15, "Excessive repetition in description")
	}
	return p
}

func checkBudget(proj *freelancer.Project, title, description string) partial {
	var p partial
	minimum := proj.Budget.Minimum
	simple := containsAny(title+" "+description, simpleTaskWords)

	if simple && minimum.GreaterThan(decimal.NewFromInt(simpleTaskMaxUSD)) {
		p.hit(30, fmt.Sprintf("Suspiciously high budget for simple task ($%s)", minimum.String()))
	}
	for _, round := range roundBudgets {
		if minimum.Equal(decimal.NewFromInt(round)) {
			p.hit(10, fmt.Sprintf("Suspiciously round budget ($%s)", minimum.String()))
			break
		}
	}
	if proj.IsHourly() && simple && minimum.GreaterThan(decimal.NewFromInt(tooHighHourlyRate)) {
		p.hit(25, fmt.Sprintf("Unrealistic hourly rate ($%s/hr)", minimum.String()))
	}
	return p
}

func checkMetadata(proj *freelancer.Project, title string) partial {
	var p partial

	if proj.Owner.Reputation.EntireHistory.Reviews == 0 && strings.Contains(title, "urgent") {
		p.hit(20, "New employer with 'urgent' project")
	}
	if proj.Upgrades.NDA && containsAny(title, simpleTitleWords) {
		p.hit(15, "NDA required for simple task")
	}
	if strings.Contains(title, "data entry") {
		for _, job := range proj.Jobs {
			cat := fold(job.Name)
			if strings.Contains(cat, "programming") || strings.Contains(cat, "software") {
				p.hit(20, "Category mismatch with title")
				break
			}
		}
	}
	return p
}

func checkExternalContact(text string) partial {
	var p partial
	for _, app := range messagingApps {
		if strings.Contains(text, app) {
			p.hit(30, "Requests contact via "+titleCaser.String(app))
			break
		}
	}
	if emailPattern.MatchString(text) {
		p.hit(25, "Contains email address")
	}
	if phonePattern.MatchString(text) {
		p.hit(25, "Contains phone number")
	}
	return p
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// hasExcessiveRepetition reports a character repeated five or more times in
// a row, or a single word making up over 20% of a text longer than 10 words.
func hasExcessiveRepetition(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev && r != '\n' {
			run++
			if run >= 5 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}

	words := strings.Fields(text)
	if len(words) <= 10 {
		return false
	}
	counts := make(map[string]int, len(words))
	top := 0
	for _, w := range words {
		counts[w]++
		top = max(top, counts[w])
	}
	return float64(top)/float64(len(words)) > 0.2
}
