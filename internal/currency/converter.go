// Package currency converts project budgets to USD using the marketplace's
// own exchange rates, cached on disk and refreshed daily.
package currency

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/freelancer"
)

// RateSource lists currencies with their units-per-USD rate
type RateSource interface {
	Currencies(ctx context.Context) ([]freelancer.Currency, error)
}

const refreshInterval = 24 * time.Hour

// FallbackRates are used when neither the API nor the cache has data
var FallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"AUD": 1.52,
	"CAD": 1.35,
	"INR": 83.0,
	"PKR": 278.0,
	"PHP": 56.0,
	"BRL": 5.0,
	"MXN": 17.0,
	"JPY": 150.0,
	"CNY": 7.2,
	"ZAR": 18.5,
	"NGN": 450.0,
	"EGP": 31.0,
	"AED": 3.67,
	"SAR": 3.75,
}

type cacheFile struct {
	Rates      map[string]float64 `json:"rates"`
	LastUpdate time.Time          `json:"last_update"`
}

// Converter holds the current rate table
type Converter struct {
	source    RateSource
	cachePath string

	rates      map[string]float64
	lastUpdate time.Time
	mu         sync.RWMutex
	stopCh     chan struct{}
	stopOnce   sync.Once

	now func() time.Time
}

// NewConverter loads the cache at cachePath. source may be nil, in which
// case only cached or fallback rates are used.
func NewConverter(source RateSource, cachePath string) *Converter {
	c := &Converter{
		source:    source,
		cachePath: cachePath,
		rates:     make(map[string]float64),
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
	c.loadCache()
	if len(c.rates) == 0 && source == nil {
		c.useFallback()
	}
	return c
}

// Start refreshes stale rates and keeps them fresh in the background
func (c *Converter) Start(ctx context.Context) {
	if c.ShouldUpdate() {
		c.Refresh(ctx)
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.ShouldUpdate() {
					c.Refresh(ctx)
				}
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			}
		}
	}()

	log.Info().Int("rates", c.Len()).Msg("💱 Currency converter started")
}

// Stop ends background refreshing
func (c *Converter) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// ShouldUpdate reports whether the table is empty or older than a day
func (c *Converter) ShouldUpdate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.rates) == 0 || c.lastUpdate.IsZero() {
		return true
	}
	return c.now().Sub(c.lastUpdate) > refreshInterval
}

// Refresh pulls rates from the API. On failure the existing table is kept,
// or the fallback table used when nothing is loaded.
func (c *Converter) Refresh(ctx context.Context) bool {
	if c.source == nil {
		log.Warn().Msg("No rate source available for currency update")
		c.ensureRates()
		return false
	}

	currencies, err := c.source.Currencies(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not update currency rates")
		c.ensureRates()
		return false
	}

	c.mu.Lock()
	for _, cur := range currencies {
		if cur.Code != "" && cur.ExchangeRate > 0 {
			c.rates[strings.ToUpper(cur.Code)] = cur.ExchangeRate
		}
	}
	c.lastUpdate = c.now()
	n := len(c.rates)
	c.mu.Unlock()

	c.saveCache()
	log.Info().Int("rates", n).Msg("💱 Updated currency rates")
	return true
}

// Rate returns units of code per USD
func (c *Converter) Rate(code string) (float64, bool) {
	code = strings.ToUpper(code)
	if code == "USD" {
		return 1, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rate, ok := c.rates[code]
	return rate, ok && rate > 0
}

// ToUSD converts amount in code to USD. ok is false when no rate is known,
// in which case amount is returned unchanged.
func (c *Converter) ToUSD(amount decimal.Decimal, code string) (decimal.Decimal, bool) {
	if strings.EqualFold(code, "USD") || code == "" {
		return amount, true
	}
	rate, ok := c.Rate(code)
	if !ok {
		log.Debug().Str("currency", code).Msg("No exchange rate")
		return amount, false
	}
	return amount.Div(decimal.NewFromFloat(rate)), true
}

// FromUSD converts a USD amount into code
func (c *Converter) FromUSD(usd decimal.Decimal, code string) decimal.Decimal {
	rate, ok := c.Rate(code)
	if !ok {
		return usd
	}
	return usd.Mul(decimal.NewFromFloat(rate))
}

// Format renders an amount with its USD equivalent
func (c *Converter) Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	if code == "USD" || code == "" {
		return "$" + amount.StringFixed(2) + " USD"
	}
	usd, _ := c.ToUSD(amount, code)
	return code + " " + amount.StringFixed(2) + " ($" + usd.StringFixed(2) + " USD)"
}

// Len returns the number of known rates
func (c *Converter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rates)
}

func (c *Converter) ensureRates() {
	c.mu.RLock()
	empty := len(c.rates) == 0
	c.mu.RUnlock()
	if empty {
		c.useFallback()
	}
}

func (c *Converter) useFallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for code, rate := range FallbackRates {
		c.rates[code] = rate
	}
	log.Info().Msg("Using fallback exchange rates")
}

func (c *Converter) loadCache() {
	if c.cachePath == "" {
		return
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Msg("Could not read currency cache")
		}
		return
	}

	var cache cacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Debug().Err(err).Msg("Could not parse currency cache")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for code, rate := range cache.Rates {
		c.rates[strings.ToUpper(code)] = rate
	}
	c.lastUpdate = cache.LastUpdate
	log.Debug().Int("rates", len(c.rates)).Msg("Loaded currency cache")
}

func (c *Converter) saveCache() {
	if c.cachePath == "" {
		return
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(cacheFile{Rates: c.rates, LastUpdate: c.lastUpdate}, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		log.Warn().Err(err).Msg("Could not encode currency cache")
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		log.Warn().Err(err).Msg("Could not create cache directory")
		return
	}
	if err := os.WriteFile(c.cachePath, data, 0644); err != nil {
		log.Warn().Err(err).Msg("Could not save currency cache")
	}
}
