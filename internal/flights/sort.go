package flights

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration reads the PnDTnHnMnS durations the offers API returns.
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}

// FormatDuration renders d as "5h 30m".
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// SortOffers orders offers by price or by outbound duration, cheapest or
// shortest first. Ties fall back to the other key.
func SortOffers(offers []Offer, by string) {
	byPrice := func(a, b Offer) int { return a.Price.Amount.Cmp(b.Price.Amount) }
	byDuration := func(a, b Offer) int { return a.Outbound.Minutes - b.Outbound.Minutes }
	first, second := byDuration, byPrice
	if by == SortByPrice {
		first, second = byPrice, byDuration
	}
	sort.SliceStable(offers, func(i, j int) bool {
		if c := first(offers[i], offers[j]); c != 0 {
			return c < 0
		}
		return second(offers[i], offers[j]) < 0
	})
}
