package pricing

import (
	"testing"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
)

func TestDefaults(t *testing.T) {
	c := Defaults()

	plan, err := c.Plan(PlanBasic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.PriceMinorUnits != 60000 || plan.CreditsGranted != 10 || plan.ValidityDays != 15 {
		t.Fatalf("unexpected basic plan: %+v", plan)
	}

	tier, err := c.Tier(TierExclusive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier.PriceMinorUnits != 40000 {
		t.Fatalf("unexpected exclusive tier: %+v", tier)
	}

	if _, err := c.Plan("gold"); err != ErrUnknownPlan {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
	if _, err := c.Tier("premium"); err != ErrUnknownTier {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestSnapshotFromSettings(t *testing.T) {
	settings := []models.Setting{
		{Key: "pricing.plan.basic.price_minor_units", Value: "75000", Type: "integer"},
		{Key: "pricing.plan.basic.credits", Value: "12", Type: "integer"},
		{Key: "pricing.tier.ai.price_minor_units", Value: "9900", Type: "integer"},
		{Key: "pricing.plan.basic.validity_days", Value: "not-a-number", Type: "integer"},
		{Key: "pricing.plan.gold.credits", Value: "5", Type: "integer"},
		{Key: "site_title", Value: "MyDesignBazaar", Type: "string"},
	}

	c := SnapshotFromSettings(settings)

	plan, _ := c.Plan(PlanBasic)
	if plan.PriceMinorUnits != 75000 {
		t.Fatalf("expected price override, got %d", plan.PriceMinorUnits)
	}
	if plan.CreditsGranted != 12 {
		t.Fatalf("expected credits override, got %d", plan.CreditsGranted)
	}
	if plan.ValidityDays != 15 {
		t.Fatalf("malformed override must keep default, got %d", plan.ValidityDays)
	}

	tier, _ := c.Tier(TierAI)
	if tier.PriceMinorUnits != 9900 {
		t.Fatalf("expected tier override, got %d", tier.PriceMinorUnits)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	settings := []models.Setting{
		{Key: "pricing.plan.premium.credits", Value: "99", Type: "integer"},
	}
	before := Defaults()
	_ = SnapshotFromSettings(settings)

	plan, _ := before.Plan(PlanPremium)
	if plan.CreditsGranted != 60 {
		t.Fatalf("earlier snapshot mutated by later overrides: %+v", plan)
	}
}

func TestParsePlanID(t *testing.T) {
	tests := []struct {
		in      string
		want    PlanID
		wantErr bool
	}{
		{in: "basic", want: PlanBasic},
		{in: " Premium ", want: PlanPremium},
		{in: "ELITE", want: PlanElite},
		{in: "gold", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePlanID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParsePlanID(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParsePlanID(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestParseTierID(t *testing.T) {
	tests := []struct {
		in      string
		want    TierID
		wantErr bool
	}{
		{in: "standard", want: TierStandard},
		{in: "Exclusive", want: TierExclusive},
		{in: "ai", want: TierAI},
		{in: "basic", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTierID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTierID(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseTierID(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}
