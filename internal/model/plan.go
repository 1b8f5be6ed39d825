// Package model defines domain entities for the application.
package model

// Plan identifiers for the pricing catalog.
const (
	PlanBasic = "basic"
	PlanPro   = "pro"
	PlanMax   = "max"
)

// Plan describes a purchasable subscription tier.
type Plan struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	PriceCentsMonthly int      `json:"price_cents_monthly"`
	PriceCentsAnnual  int      `json:"price_cents_annual"`
	ScansPerMonth     int      `json:"scans_per_month"` // 0 means unlimited
	Features          []string `json:"features"`
}

// Plans is the static pricing catalog, ordered cheapest first.
var Plans = []Plan{
	{
		ID:                PlanBasic,
		Name:              "Basic",
		PriceCentsMonthly: 900,
		PriceCentsAnnual:  9000,
		ScansPerMonth:     25,
		Features: []string{
			"deepfake_alerts",
			"manual_scans",
		},
	},
	{
		ID:                PlanPro,
		Name:              "Pro",
		PriceCentsMonthly: 2900,
		PriceCentsAnnual:  29000,
		ScansPerMonth:     250,
		Features: []string{
			"deepfake_alerts",
			"manual_scans",
			"impersonation_watch",
			"data_breach_monitor",
		},
	},
	{
		ID:                PlanMax,
		Name:              "Max",
		PriceCentsMonthly: 9900,
		PriceCentsAnnual:  99000,
		ScansPerMonth:     0,
		Features: []string{
			"deepfake_alerts",
			"manual_scans",
			"impersonation_watch",
			"data_breach_monitor",
			"priority_takedowns",
		},
	},
}

// PlanByID looks up a plan in the catalog. Returns nil if unknown.
func PlanByID(id string) *Plan {
	for i := range Plans {
		if Plans[i].ID == id {
			return &Plans[i]
		}
	}
	return nil
}
