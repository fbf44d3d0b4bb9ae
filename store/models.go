package store

// PaywallSettings is the remotely configured paywall and limit record.
type PaywallSettings struct {
	// Feature limits
	PresentationLimit int `json:"presentationLimit"`
	OutlineLimit      int `json:"outlineLimit"`

	// Paywall behavior
	HardPaywall                    bool `json:"hardPaywall"`
	CustomPaywall                  bool `json:"customPaywall"`
	CustomPaywallVersion           int  `json:"customPaywallVersion"`
	PaywallCloseButtonDelay        int  `json:"paywallCloseButtonDelay"`
	PaywallCloseButtonDelayOnLimit int  `json:"paywallCloseButtonDelayOnLimit"`
	ShowPaywallOnStart             bool `json:"showPaywallOnStart"`

	// Plan visibility on the v2 paywall
	CustomPaywallV2Monthly bool `json:"custompaywallv2Monthly"`
	CustomPaywallV2Weekly  bool `json:"custompaywallv2Weekly"`
}

// DefaultPaywallSettings is used when neither the network nor the cache
// has a record.
func DefaultPaywallSettings() *PaywallSettings {
	return &PaywallSettings{
		PresentationLimit:              2,
		OutlineLimit:                   3,
		HardPaywall:                    false,
		CustomPaywall:                  true,
		CustomPaywallVersion:           1,
		PaywallCloseButtonDelay:        30,
		PaywallCloseButtonDelayOnLimit: 35,
		ShowPaywallOnStart:             false,
		CustomPaywallV2Monthly:         true,
		CustomPaywallV2Weekly:          true,
	}
}

// Counter names in the usage_counts table.
const (
	CounterOutline      = "outline_generation_count"
	CounterPresentation = "presentation_generation_count"
)
