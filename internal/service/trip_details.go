package service

import (
	"regexp"
	"strconv"
	"strings"

	"tripbot/internal/modules/conversation"
	"tripbot/internal/modules/pricing"
)

// TripDetails are the structured hints found in the free-text preferences.
type TripDetails struct {
	TravelersCount int
	TripType       string
	Budget         float64
}

const (
	DefaultTravelersCount = 1
	DefaultTripType       = "leisure"
)

var (
	countPattern  = regexp.MustCompile(`(?i)\b(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten)\s+(?:people|persons|person|travell?ers|adults|pax|guests|members|friends|of us)\b`)
	familyPattern = regexp.MustCompile(`(?i)\bfamily of (\d{1,2}|two|three|four|five|six|seven|eight|nine|ten)\b`)
	budgetPattern = regexp.MustCompile(`(?i)\b(budget|under|within|below|max(?:imum)?|up\s?to)\b\s*(?:of|is|around|about|:)?\s*((?:rs\.?|inr|₹)?\s*\d[\d,.]*\s*(?:k|thousand|lakhs?|lacs?|crores?|cr|l)?)\b`)
	rupeePattern  = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*(\d[\d,.]*\s*(?:k|thousand|lakhs?|lacs?|crores?|cr|l)?)\b`)
	moneyMarker   = regexp.MustCompile(`(?:₹|rs|inr)|(?:k|thousand|lakhs?|lacs?|crores?|cr|l)$`)

	// A number followed by one of these counts people or time, not money.
	quantityNoun = regexp.MustCompile(`^\s*(?:people|persons?|pax|adults?|kids|child(?:ren)?|guests?|travell?ers?|members?|friends|days?|nights?|weeks?|hours?|hrs?|minutes?|mins?|km|kms|kilomet(?:er|re)s?|stars?)\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// tripTypeKeywords is checked in order; the first hit wins.
var tripTypeKeywords = []struct {
	tripType string
	words    []string
}{
	{"honeymoon", []string{"honeymoon"}},
	{"business", []string{"business", "conference", "work trip", "client meeting"}},
	{"luxury", []string{"luxury", "5 star", "five star", "premium"}},
	{"budget", []string{"budget trip", "cheap", "backpack", "hostel"}},
	{"round_trip", []string{"round trip", "round-trip", "return flight"}},
	{"one_way", []string{"one way", "one-way"}},
	{"family", []string{"family", "kids", "children"}},
	{"adventure", []string{"adventure", "trek", "hiking", "rafting", "scuba"}},
	{"weekend", []string{"weekend"}},
	{"leisure", []string{"leisure", "vacation", "holiday", "relax"}},
}

var pairWords = []string{"couple", "honeymoon", "my wife", "my husband", "my partner", "my girlfriend", "my boyfriend", "two of us"}
var soloWords = []string{"solo", "alone", "just me", "by myself"}

// ParseTripDetails reads travellers count, trip type and budget from text.
// Zero values mean the detail was not mentioned.
func ParseTripDetails(text string) TripDetails {
	var d TripDetails
	lower := strings.ToLower(text)

	if m := familyPattern.FindStringSubmatch(lower); m != nil {
		d.TravelersCount = parseCount(m[1])
	} else if m := countPattern.FindStringSubmatch(lower); m != nil {
		d.TravelersCount = parseCount(m[1])
	} else if containsAny(lower, soloWords) {
		d.TravelersCount = 1
	} else if containsAny(lower, pairWords) {
		d.TravelersCount = 2
	}

	for _, k := range tripTypeKeywords {
		if containsAny(lower, k.words) {
			d.TripType = k.tripType
			break
		}
	}

	d.Budget = parseBudget(lower)
	return d
}

// parseBudget returns the first amount that reads as money. Words like
// "under" or "up to" only count when the amount carries a currency or unit,
// or the text talks about a budget.
func parseBudget(lower string) float64 {
	mentionsBudget := strings.Contains(lower, "budget")
	for _, m := range budgetPattern.FindAllStringSubmatchIndex(lower, -1) {
		keyword := lower[m[2]:m[3]]
		amount := strings.TrimSpace(lower[m[4]:m[5]])
		if quantityNoun.MatchString(lower[m[1]:]) {
			continue
		}
		if keyword != "budget" && !mentionsBudget && !moneyMarker.MatchString(amount) {
			continue
		}
		if v, ok := pricing.ParseAmount(amount); ok {
			return v
		}
	}
	for _, m := range rupeePattern.FindAllStringSubmatch(lower, -1) {
		if v, ok := pricing.ParseAmount(m[1]); ok {
			return v
		}
	}
	return 0
}

// applyTripDetails writes detected details into fields and fills defaults for
// keys that are still absent. Existing values are only replaced by new hits.
func applyTripDetails(fields map[string]string, d TripDetails) {
	if d.TravelersCount > 0 {
		fields[conversation.FieldTravelersCount] = strconv.Itoa(d.TravelersCount)
	} else if fields[conversation.FieldTravelersCount] == "" {
		fields[conversation.FieldTravelersCount] = strconv.Itoa(DefaultTravelersCount)
	}
	if d.TripType != "" {
		fields[conversation.FieldTripType] = d.TripType
	} else if fields[conversation.FieldTripType] == "" {
		fields[conversation.FieldTripType] = DefaultTripType
	}
	if d.Budget > 0 {
		fields[conversation.FieldBudget] = strconv.FormatFloat(d.Budget, 'f', -1, 64)
	}
}

func parseCount(s string) int {
	if n, ok := numberWords[s]; ok {
		return n
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
