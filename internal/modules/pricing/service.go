// README: Pricing service computes trip cost estimates from collected fields.
package pricing

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripbot/internal/modules/conversation"
)

type Estimator struct {
	table  Table
	keys   []string
	logger *zap.Logger
}

func NewEstimator(table Table, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := make([]string, 0, len(table.Destinations))
	for k := range table.Destinations {
		keys = append(keys, k)
	}
	// Longest match wins so "new delhi" is tried before "delhi".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return &Estimator{table: table, keys: keys, logger: logger}
}

func (e *Estimator) Currency() string {
	return e.table.Currency
}

// Estimate prices the trip described by fields. It does no I/O.
func (e *Estimator) Estimate(fields map[string]string) (CostBreakdown, error) {
	dest := strings.TrimSpace(fields[conversation.FieldDestination])
	dep := strings.TrimSpace(fields[conversation.FieldDepartureDate])
	ret := strings.TrimSpace(fields[conversation.FieldReturnDate])
	travelersRaw := strings.TrimSpace(fields[conversation.FieldTravelersCount])
	tripType := strings.ToLower(strings.TrimSpace(fields[conversation.FieldTripType]))

	var missing []string
	if dest == "" {
		missing = append(missing, conversation.FieldDestination)
	}
	if dep == "" {
		missing = append(missing, conversation.FieldDepartureDate)
	}
	if travelersRaw == "" {
		missing = append(missing, conversation.FieldTravelersCount)
	}
	if tripType == "" {
		missing = append(missing, conversation.FieldTripType)
	}
	if len(missing) > 0 {
		return CostBreakdown{}, &MissingDataError{Fields: missing}
	}
	travelers, err := strconv.Atoi(travelersRaw)
	if err != nil || travelers < 1 {
		return CostBreakdown{}, &MissingDataError{Fields: []string{conversation.FieldTravelersCount}}
	}

	rule, ok := e.table.TripTypes[tripType]
	if !ok {
		e.logger.Debug("unknown trip type, using default rule", zap.String("trip_type", tripType))
		rule = e.table.DefaultTripType
	}
	nights, err := e.nights(dep, ret, rule)
	if err != nil {
		return CostBreakdown{}, err
	}

	tier, fallback := e.TierFor(dest)
	if fallback {
		e.logger.Warn("unknown destination, using default pricing tier",
			zap.String("destination", dest),
			zap.String("tier", string(tier)),
		)
	}
	rates := e.table.Tiers[tier]
	occupancy := e.table.OccupancyPerRoom
	if occupancy < 1 {
		occupancy = 1
	}
	rooms := int(math.Ceil(float64(travelers) / float64(occupancy)))

	flight := decimal.NewFromFloat(rates.BaseFare).
		Mul(decimal.NewFromInt(int64(travelers))).
		Mul(decimal.NewFromFloat(rule.Multiplier)).
		Round(2)
	hotel := decimal.NewFromFloat(rates.NightlyRate).
		Mul(decimal.NewFromInt(int64(nights))).
		Mul(decimal.NewFromInt(int64(rooms))).
		Round(2)
	taxes := flight.Add(hotel).Mul(decimal.NewFromFloat(e.table.TaxRate)).Round(2)
	total := flight.Add(hotel).Add(taxes).Round(2)

	out := CostBreakdown{
		Destination:    dest,
		Tier:           tier,
		TierFallback:   fallback,
		TripType:       tripType,
		Nights:         nights,
		TravelersCount: travelers,
		Rooms:          rooms,
		FlightCost:     flight.InexactFloat64(),
		HotelCost:      hotel.InexactFloat64(),
		TaxesAndFees:   taxes.InexactFloat64(),
		TotalCost:      total.InexactFloat64(),
		Currency:       e.table.Currency,
	}
	if budget, ok := ParseAmount(fields[conversation.FieldBudget]); ok {
		out.Budget = &budget
		limit := decimal.NewFromFloat(budget).Mul(decimal.NewFromFloat(1 + e.table.BudgetTolerance))
		out.OverBudget = total.GreaterThan(limit)
	}
	return out, nil
}

func (e *Estimator) nights(dep, ret string, rule TripTypeRule) (int, error) {
	if _, err := conversation.ParseDate(dep); err != nil {
		return 0, &InvalidDateRangeError{Departure: dep, Return: ret, Reason: "departure date is not a calendar date"}
	}
	if ret == "" {
		if rule.DefaultNights > 0 {
			return rule.DefaultNights, nil
		}
		return e.table.DefaultTripType.DefaultNights, nil
	}
	n, err := conversation.NightsBetween(normalizeDate(dep), normalizeDate(ret))
	if err != nil {
		return 0, &InvalidDateRangeError{Departure: dep, Return: ret, Reason: "return date is not a calendar date"}
	}
	if n < 0 {
		return 0, &InvalidDateRangeError{Departure: dep, Return: ret, Reason: "return date is before departure date"}
	}
	if n == 0 {
		n = 1
	}
	return n, nil
}

// TierFor maps a destination to its pricing tier. The second result is true
// when the destination is unknown and the default tier was used.
func (e *Estimator) TierFor(destination string) (Tier, bool) {
	norm := " " + normalizePlace(destination) + " "
	for _, k := range e.keys {
		if strings.Contains(norm, " "+k+" ") {
			return e.table.Destinations[k], false
		}
	}
	return e.table.DefaultTier, true
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normalizePlace(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(s), " "))
}

func normalizeDate(s string) string {
	if d, err := conversation.ParseDate(s); err == nil {
		return d
	}
	return s
}

var amountPattern = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(k|thousand|lakhs?|lacs?|l|crores?|cr)?\b`)

// ParseAmount reads a money amount such as "₹50,000", "50k" or "1.5 lakh".
func ParseAmount(s string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k", "thousand":
		v *= 1_000
	case "l", "lakh", "lakhs", "lac", "lacs":
		v *= 100_000
	case "cr", "crore", "crores":
		v *= 10_000_000
	}
	return v, true
}
