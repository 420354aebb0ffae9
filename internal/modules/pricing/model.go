// README: Pricing table, destination tiers and the cost breakdown value.
package pricing

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierNear          Tier = "near"
	TierFar           Tier = "far"
	TierInternational Tier = "international"
)

type TierRates struct {
	BaseFare    float64
	NightlyRate float64
}

// TripTypeRule holds the fare multiplier and default duration for a trip type.
type TripTypeRule struct {
	Multiplier    float64
	DefaultNights int
}

// Table is the full set of inputs the estimator prices against.
type Table struct {
	Currency         string
	Tiers            map[Tier]TierRates
	Destinations     map[string]Tier
	DefaultTier      Tier
	TripTypes        map[string]TripTypeRule
	DefaultTripType  TripTypeRule
	TaxRate          float64
	OccupancyPerRoom int
	BudgetTolerance  float64
}

// DefaultTable returns the built-in INR pricing table.
func DefaultTable() Table {
	return Table{
		Currency: "INR",
		Tiers: map[Tier]TierRates{
			TierNear:          {BaseFare: 3500, NightlyRate: 2500},
			TierFar:           {BaseFare: 6500, NightlyRate: 4000},
			TierInternational: {BaseFare: 42000, NightlyRate: 9000},
		},
		Destinations: map[string]Tier{
			"coorg":       TierNear,
			"mysore":      TierNear,
			"mysuru":      TierNear,
			"ooty":        TierNear,
			"pondicherry": TierNear,
			"chikmagalur": TierNear,
			"wayanad":     TierNear,
			"goa":         TierFar,
			"mumbai":      TierFar,
			"delhi":       TierFar,
			"new delhi":   TierFar,
			"jaipur":      TierFar,
			"manali":      TierFar,
			"kolkata":     TierFar,
			"varanasi":    TierFar,
			"leh":         TierFar,
			"paris":       TierInternational,
			"london":      TierInternational,
			"dubai":       TierInternational,
			"singapore":   TierInternational,
			"bangkok":     TierInternational,
			"new york":    TierInternational,
			"tokyo":       TierInternational,
			"bali":        TierInternational,
			"maldives":    TierInternational,
		},
		DefaultTier: TierFar,
		TripTypes: map[string]TripTypeRule{
			"leisure":    {Multiplier: 1.0, DefaultNights: 4},
			"business":   {Multiplier: 1.75, DefaultNights: 2},
			"luxury":     {Multiplier: 2.5, DefaultNights: 4},
			"budget":     {Multiplier: 0.8, DefaultNights: 3},
			"honeymoon":  {Multiplier: 1.5, DefaultNights: 6},
			"family":     {Multiplier: 1.0, DefaultNights: 5},
			"adventure":  {Multiplier: 1.0, DefaultNights: 5},
			"weekend":    {Multiplier: 1.0, DefaultNights: 2},
			"round_trip": {Multiplier: 2.0, DefaultNights: 3},
			"one_way":    {Multiplier: 1.0, DefaultNights: 3},
		},
		DefaultTripType:  TripTypeRule{Multiplier: 1.0, DefaultNights: 3},
		TaxRate:          0.15,
		OccupancyPerRoom: 2,
		BudgetTolerance:  0.10,
	}
}

// CostBreakdown is the priced result for one set of collected fields.
type CostBreakdown struct {
	Destination    string   `json:"destination"`
	Tier           Tier     `json:"tier"`
	TierFallback   bool     `json:"tier_fallback"`
	TripType       string   `json:"trip_type"`
	Nights         int      `json:"nights"`
	TravelersCount int      `json:"travelers_count"`
	Rooms          int      `json:"rooms"`
	FlightCost     float64  `json:"flight_cost"`
	HotelCost      float64  `json:"hotel_cost"`
	TaxesAndFees   float64  `json:"taxes_and_fees"`
	TotalCost      float64  `json:"total_cost"`
	Currency       string   `json:"currency"`
	Budget         *float64 `json:"budget,omitempty"`
	OverBudget     bool     `json:"over_budget"`
}

// Summary renders the breakdown as one line for chat replies.
func (c CostBreakdown) Summary() string {
	s := fmt.Sprintf("Estimated cost for %d night(s), %d traveller(s): flights %s %.2f, hotel %s %.2f, taxes and fees %s %.2f, total %s %.2f.",
		c.Nights, c.TravelersCount,
		c.Currency, c.FlightCost, c.Currency, c.HotelCost, c.Currency, c.TaxesAndFees, c.Currency, c.TotalCost)
	if c.OverBudget && c.Budget != nil {
		s += fmt.Sprintf(" This is above your budget of %s %.2f.", c.Currency, *c.Budget)
	}
	return s
}

// MissingDataError lists the fields an estimate still needs.
type MissingDataError struct {
	Fields []string
}

func (e *MissingDataError) Error() string {
	return "missing trip data: " + strings.Join(e.Fields, ", ")
}

// InvalidDateRangeError reports unusable travel dates.
type InvalidDateRangeError struct {
	Departure string
	Return    string
	Reason    string
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range %s..%s: %s", e.Departure, e.Return, e.Reason)
}
