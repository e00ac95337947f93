package pricing

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
)

type PlanID string

const (
	PlanBasic   PlanID = "basic"
	PlanPremium PlanID = "premium"
	PlanElite   PlanID = "elite"
)

type TierID string

const (
	TierStandard  TierID = "standard"
	TierExclusive TierID = "exclusive"
	TierAI        TierID = "ai"
)

var (
	ErrUnknownPlan = errors.New("pricing: unknown plan")
	ErrUnknownTier = errors.New("pricing: unknown download tier")
)

// PricingPlan is a subscription plan catalog entry. Prices are INR paise,
// GST-exclusive; tax is added at display time outside this core.
type PricingPlan struct {
	ID              PlanID
	PriceMinorUnits int64
	CreditsGranted  int
	ValidityDays    int
}

// DownloadTier is a pay-per-download catalog entry. It is display pricing
// only and never consulted by the entitlement engine.
type DownloadTier struct {
	ID              TierID
	PriceMinorUnits int64
}

// Catalog is an immutable pricing snapshot. Purchase flows take a snapshot
// once and copy the derived values into the persisted order, so admin edits
// never retroactively change granted entitlements.
type Catalog struct {
	plans map[PlanID]PricingPlan
	tiers map[TierID]DownloadTier
}

// Defaults returns the built-in catalog.
func Defaults() Catalog {
	return Catalog{
		plans: map[PlanID]PricingPlan{
			PlanBasic:   {ID: PlanBasic, PriceMinorUnits: 60000, CreditsGranted: 10, ValidityDays: 15},
			PlanPremium: {ID: PlanPremium, PriceMinorUnits: 300000, CreditsGranted: 60, ValidityDays: 30},
			PlanElite:   {ID: PlanElite, PriceMinorUnits: 900000, CreditsGranted: 200, ValidityDays: 90},
		},
		tiers: map[TierID]DownloadTier{
			TierStandard:  {ID: TierStandard, PriceMinorUnits: 15000},
			TierExclusive: {ID: TierExclusive, PriceMinorUnits: 40000},
			TierAI:        {ID: TierAI, PriceMinorUnits: 8000},
		},
	}
}

// SnapshotFromSettings folds admin overrides from the settings table into a
// fresh snapshot of the defaults. Recognized keys:
//
//	pricing.plan.<id>.price_minor_units
//	pricing.plan.<id>.credits
//	pricing.plan.<id>.validity_days
//	pricing.tier.<id>.price_minor_units
//
// Unknown or malformed values are ignored.
func SnapshotFromSettings(settings []models.Setting) Catalog {
	c := Defaults()
	for _, s := range settings {
		parts := strings.Split(s.Key, ".")
		if len(parts) != 4 || parts[0] != "pricing" {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s.Value), 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		switch parts[1] {
		case "plan":
			plan, ok := c.plans[PlanID(parts[2])]
			if !ok {
				continue
			}
			switch parts[3] {
			case "price_minor_units":
				plan.PriceMinorUnits = n
			case "credits":
				plan.CreditsGranted = int(n)
			case "validity_days":
				plan.ValidityDays = int(n)
			default:
				continue
			}
			c.plans[plan.ID] = plan
		case "tier":
			tier, ok := c.tiers[TierID(parts[2])]
			if !ok {
				continue
			}
			if parts[3] == "price_minor_units" {
				tier.PriceMinorUnits = n
				c.tiers[tier.ID] = tier
			}
		}
	}
	return c
}

// Plan returns the catalog entry for a plan id.
func (c Catalog) Plan(id PlanID) (PricingPlan, error) {
	plan, ok := c.plans[id]
	if !ok {
		return PricingPlan{}, ErrUnknownPlan
	}
	return plan, nil
}

// Tier returns the catalog entry for a download tier id.
func (c Catalog) Tier(id TierID) (DownloadTier, error) {
	tier, ok := c.tiers[id]
	if !ok {
		return DownloadTier{}, ErrUnknownTier
	}
	return tier, nil
}

// Plans returns all plans for pricing display.
func (c Catalog) Plans() []PricingPlan {
	out := make([]PricingPlan, 0, len(c.plans))
	for _, id := range []PlanID{PlanBasic, PlanPremium, PlanElite} {
		if p, ok := c.plans[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Tiers returns all download tiers for pricing display.
func (c Catalog) Tiers() []DownloadTier {
	out := make([]DownloadTier, 0, len(c.tiers))
	for _, id := range []TierID{TierStandard, TierExclusive, TierAI} {
		if t, ok := c.tiers[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func normalizePlanID(raw string) PlanID {
	return PlanID(strings.ToLower(strings.TrimSpace(raw)))
}

// ParsePlanID validates a client-supplied plan id.
func ParsePlanID(raw string) (PlanID, error) {
	id := normalizePlanID(raw)
	switch id {
	case PlanBasic, PlanPremium, PlanElite:
		return id, nil
	}
	return "", ErrUnknownPlan
}

// ParseTierID validates a client-supplied download tier id.
func ParseTierID(raw string) (TierID, error) {
	id := TierID(strings.ToLower(strings.TrimSpace(raw)))
	switch id {
	case TierStandard, TierExclusive, TierAI:
		return id, nil
	}
	return "", ErrUnknownTier
}
