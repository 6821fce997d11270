package model

// SubscriptionPlan describes a purchasable subscription tier.
type SubscriptionPlan struct {
	ID       string
	Name     string
	Price    float64
	Features []string

	// PriceID is the billing provider's price identifier. Empty for the
	// free tier, which has no checkout flow.
	PriceID string
}

// Plans returns the subscription plan catalog.
func Plans() []SubscriptionPlan {
	return []SubscriptionPlan{
		{
			ID:    TierFree,
			Name:  "Free",
			Price: 0,
			Features: []string{
				"Up to 3 lists",
				"Basic task management",
				"Dark mode",
			},
		},
		{
			ID:    TierPro,
			Name:  "Pro",
			Price: 9.99,
			Features: []string{
				"Unlimited lists",
				"Advanced task management",
				"Subtasks",
				"File attachments",
				"Priority support",
			},
			PriceID: "price_pro",
		},
		{
			ID:    TierPremium,
			Name:  "Premium",
			Price: 19.99,
			Features: []string{
				"Everything in Pro",
				"Team collaboration",
				"Custom themes",
				"API access",
				"Advanced analytics",
			},
			PriceID: "price_premium",
		},
	}
}
