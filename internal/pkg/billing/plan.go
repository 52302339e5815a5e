package billing

import "github.com/launchpadhq/launchpad/internal/pkg/env"

// Plan is one entry of the public pricing catalog. Price ids point at
// recurring Stripe prices and are configured per environment.
type Plan struct {
	Name     string
	Price    string
	Period   string
	Features []string
	PriceID  string
	Popular  bool
}

// Plans returns the pricing catalog shown on the pricing page.
func Plans() []Plan {
	return []Plan{
		{
			Name:     "Basic",
			Price:    "$10",
			Period:   "/month",
			Features: []string{"Up to 5 projects", "Email support", "Basic analytics"},
			PriceID:  env.GetEnv("STRIPE_PRICE_BASIC", "price_basic"),
		},
		{
			Name:   "Pro",
			Price:  "$25",
			Period: "/month",
			Features: []string{
				"Unlimited projects",
				"Priority support",
				"Advanced analytics",
				"API access",
			},
			PriceID: env.GetEnv("STRIPE_PRICE_PRO", "price_pro"),
			Popular: true,
		},
		{
			Name:   "Enterprise",
			Price:  "$50",
			Period: "/month",
			Features: []string{
				"All Pro features",
				"Team accounts",
				"Custom integrations",
				"Dedicated support",
			},
			PriceID: env.GetEnv("STRIPE_PRICE_ENTERPRISE", "price_enterprise"),
		},
	}
}

// PlanByPriceID resolves a catalog entry from its Stripe price id.
func PlanByPriceID(priceID string) (Plan, bool) {
	for _, p := range Plans() {
		if p.PriceID == priceID {
			return p, true
		}
	}
	return Plan{}, false
}
