// README: Travel date parsing for the date collection step.
package conversation

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const DateLayout = "2006-01-02"

var (
	ErrNoDate          = errors.New("no date found")
	ErrTooManyDates    = errors.New("more than two dates given")
	ErrReturnBeforeDep = errors.New("return date is before departure date")
)

var (
	dateRangeSep = regexp.MustCompile(`(?i)\s+(?:to|until|till|through|thru|and|returning(?:\s+on)?|back(?:\s+on)?)\s+|\s+[-–—]\s+|\s*[–—]\s*`)
	datePrefix   = regexp.MustCompile(`(?i)^(?:from|leaving|departing|departure|starting|on|between)\s+`)
)

// ParseDate parses a single calendar date and returns it in DateLayout.
func ParseDate(input string) (string, error) {
	s := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(input), ".!"))
	s = datePrefix.ReplaceAllString(s, "")
	if s == "" {
		return "", ErrNoDate
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", err
	}
	if t.Year() < 1900 {
		return "", ErrNoDate
	}
	return t.Format(DateLayout), nil
}

// ParseTravelDates reads "departure" or "departure to return" from free text.
// The return value is empty when only one date was given.
func ParseTravelDates(input string) (departure, ret string, err error) {
	s := strings.TrimSpace(input)
	s = datePrefix.ReplaceAllString(s, "")
	parts := dateRangeSep.Split(s, -1)
	var dates []string
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		d, err := ParseDate(p)
		if err != nil {
			return "", "", err
		}
		dates = append(dates, d)
	}
	switch len(dates) {
	case 0:
		return "", "", ErrNoDate
	case 1:
		return dates[0], "", nil
	case 2:
		if dates[1] < dates[0] {
			return dates[0], dates[1], ErrReturnBeforeDep
		}
		return dates[0], dates[1], nil
	default:
		return "", "", ErrTooManyDates
	}
}

// NightsBetween returns whole days from departure to return, both in DateLayout.
func NightsBetween(departure, ret string) (int, error) {
	d, err := time.Parse(DateLayout, departure)
	if err != nil {
		return 0, err
	}
	r, err := time.Parse(DateLayout, ret)
	if err != nil {
		return 0, err
	}
	return int(r.Sub(d).Hours() / 24), nil
}
