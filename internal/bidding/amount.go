package bidding

import (
	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// BidAmount is the project's minimum budget, in the project's own currency
func BidAmount(p *freelancer.Project) decimal.Decimal {
	return p.Budget.Minimum
}

var durationTiers = []struct {
	below decimal.Decimal
	days  int
}{
	{decimal.NewFromInt(100), 3},
	{decimal.NewFromInt(200), 5},
	{decimal.NewFromInt(500), 7},
	{decimal.NewFromInt(1000), 10},
}

// EstimateDuration maps the minimum budget to delivery days. The budget is
// converted to USD first when a converter is given and knows the currency.
func EstimateDuration(p *freelancer.Project, converter filter.USDConverter) int {
	minimum := p.Budget.Minimum
	if converter != nil {
		minimum, _ = converter.ToUSD(minimum, p.CurrencyCode())
	}
	for _, tier := range durationTiers {
		if minimum.LessThan(tier.below) {
			return tier.days
		}
	}
	return 14
}
