package flights

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tripbot/internal/types"
)

const (
	ClassEconomy        = "ECONOMY"
	ClassPremiumEconomy = "PREMIUM_ECONOMY"
	ClassBusiness       = "BUSINESS"
	ClassFirst          = "FIRST"
)

var TravelClasses = []string{ClassEconomy, ClassPremiumEconomy, ClassBusiness, ClassFirst}

const (
	SortByDuration = "duration"
	SortByPrice    = "price"
)

// Passenger limits of the flight offers API.
const (
	MaxAdults     = 9
	MaxChildren   = 8
	MaxInfants    = 5
	MaxPassengers = 9
)

const (
	DefaultMaxResults = 10
	maxResultsCap     = 50
	dateLayout        = "2006-01-02"
)

var (
	ErrNotConfigured = errors.New("flight search is not configured")
	ErrUpstream      = errors.New("flight search provider failed")
)

// ValidationError names the request field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SearchRequest is one flight search. Origin and Destination are IATA codes;
// dates use YYYY-MM-DD.
type SearchRequest struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Children      int
	Infants       int
	TravelClass   string
	NonStop       bool
	MaxPrice      float64
	Currency      string
	MaxResults    int
	SortBy        string
}

// Normalized returns a copy with codes upper-cased and defaults filled in.
func (r SearchRequest) Normalized(currency string) SearchRequest {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	r.DepartureDate = strings.TrimSpace(r.DepartureDate)
	r.ReturnDate = strings.TrimSpace(r.ReturnDate)
	r.TravelClass = strings.ToUpper(strings.TrimSpace(r.TravelClass))
	if r.TravelClass == "" {
		r.TravelClass = ClassEconomy
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = strings.ToUpper(currency)
	}
	r.SortBy = strings.ToLower(strings.TrimSpace(r.SortBy))
	if r.SortBy == "" {
		r.SortBy = SortByDuration
	}
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults > maxResultsCap {
		r.MaxResults = maxResultsCap
	}
	return r
}

// Validate reports the first invalid field.
func (r SearchRequest) Validate() error {
	if err := ValidateAirportCode(r.Origin, "source"); err != nil {
		return err
	}
	if err := ValidateAirportCode(r.Destination, "destination"); err != nil {
		return err
	}
	if r.Origin == r.Destination {
		return invalid("destination", "must differ from source")
	}
	if err := ValidatePassengers(r.Adults, r.Children, r.Infants); err != nil {
		return err
	}
	if err := ValidateTravelClass(r.TravelClass); err != nil {
		return err
	}
	if err := ValidateCurrency(r.Currency); err != nil {
		return err
	}
	if err := ValidateDates(r.DepartureDate, r.ReturnDate); err != nil {
		return err
	}
	if r.MaxPrice < 0 {
		return invalid("max_price", "must not be negative")
	}
	switch r.SortBy {
	case SortByDuration, SortByPrice:
	default:
		return invalid("sort", "must be %s or %s", SortByPrice, SortByDuration)
	}
	return nil
}

// ValidateAirportCode accepts three upper-case letters.
func ValidateAirportCode(code, field string) error {
	if len(code) != 3 || !isUpperAlpha(code) {
		return invalid(field, "must be a 3-letter uppercase IATA code, got %q", code)
	}
	return nil
}

func ValidatePassengers(adults, children, infants int) error {
	switch {
	case adults < 1 || adults > MaxAdults:
		return invalid("adults", "must be between 1 and %d", MaxAdults)
	case children < 0 || children > MaxChildren:
		return invalid("children", "must be between 0 and %d", MaxChildren)
	case infants < 0 || infants > MaxInfants:
		return invalid("infants", "must be between 0 and %d", MaxInfants)
	case adults+children+infants > MaxPassengers:
		return invalid("passengers", "total cannot exceed %d", MaxPassengers)
	case infants > adults:
		return invalid("infants", "cannot exceed the number of adults")
	}
	return nil
}

func ValidateTravelClass(class string) error {
	for _, c := range TravelClasses {
		if class == c {
			return nil
		}
	}
	return invalid("travel_class", "must be one of %s", strings.Join(TravelClasses, ", "))
}

// ValidateCurrency accepts a 3-letter ISO code such as INR.
func ValidateCurrency(code string) error {
	if len(code) != 3 || !isUpperAlpha(code) {
		return invalid("currency", "must be a 3-letter ISO code, got %q", code)
	}
	return nil
}

// ValidateDates checks the layout of both dates and that a return date is
// not before departure. returnDate may be empty for one-way searches.
func ValidateDates(departure, returnDate string) error {
	dep, err := time.Parse(dateLayout, departure)
	if err != nil {
		return invalid("travel_date", "must be a valid YYYY-MM-DD date")
	}
	if returnDate == "" {
		return nil
	}
	ret, err := time.Parse(dateLayout, returnDate)
	if err != nil {
		return invalid("return_date", "must be a valid YYYY-MM-DD date")
	}
	if ret.Before(dep) {
		return invalid("return_date", "cannot be before travel_date")
	}
	return nil
}

func isUpperAlpha(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Leg is one direction of an offer.
type Leg struct {
	From         string `json:"from"`
	To           string `json:"to"`
	DepartureAt  string `json:"departure_at"`
	ArrivalAt    string `json:"arrival_at"`
	FlightNumber string `json:"flight_number"`
	Stops        int    `json:"stops"`
	Duration     string `json:"duration"`
	Minutes      int    `json:"duration_minutes"`
}

type Offer struct {
	ID          string      `json:"id"`
	Airline     string      `json:"airline"`
	Price       types.Money `json:"price"`
	TravelClass string      `json:"travel_class"`
	SeatsLeft   int         `json:"seats_left,omitempty"`
	Outbound    Leg         `json:"outbound"`
	Inbound     *Leg        `json:"inbound,omitempty"`
}
