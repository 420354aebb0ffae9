package conversation

import (
	"fmt"
	"strings"
)

// Question renders the deterministic prompt for step.
func Question(step Step, fields map[string]string) string {
	switch step {
	case StepGreeting:
		return "Hi! I'm your trip planning assistant. Say hello to get started."
	case StepNameCollection:
		return "Hi! I'm your trip planning assistant. What name should I put the booking under?"
	case StepEmailCollection:
		return fmt.Sprintf("Thanks, %s! What email address should I send the itinerary to?", orDefault(fields[FieldTravelerName], "traveller"))
	case StepDestinationCollection:
		return "Where would you like to go?"
	case StepDateCollection:
		return fmt.Sprintf("When are you travelling to %s? Give a departure date, and a return date if you have one (for example 2025-05-08 to 2025-05-12).", orDefault(fields[FieldDestination], "your destination"))
	case StepPreferencesCollection:
		return "Any preferences for the trip? Tell me how many people are travelling, the kind of trip (leisure, business, family, honeymoon...), a budget, or anything else."
	case StepConfirmation:
		return Summary(fields) + " Shall I book it? (yes/no)"
	case StepFinalConfirmation:
		return fmt.Sprintf("Your trip to %s is booked. Start a new chat to plan another trip.", orDefault(fields[FieldDestination], "your destination"))
	}
	return ""
}

// Summary describes the collected trip in one paragraph.
func Summary(fields map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your trip: %s <%s> to %s", fields[FieldTravelerName], fields[FieldTravelerEmail], fields[FieldDestination])
	if ret := fields[FieldReturnDate]; ret != "" {
		fmt.Fprintf(&b, " from %s to %s", fields[FieldDepartureDate], ret)
	} else {
		fmt.Fprintf(&b, " departing %s", fields[FieldDepartureDate])
	}
	if n := fields[FieldTravelersCount]; n != "" {
		fmt.Fprintf(&b, ", %s traveller(s)", n)
	}
	if t := fields[FieldTripType]; t != "" {
		fmt.Fprintf(&b, ", %s trip", t)
	}
	if bud := fields[FieldBudget]; bud != "" {
		fmt.Fprintf(&b, ", budget %s", bud)
	}
	b.WriteString(".")
	if p := fields[FieldPreferences]; p != "" {
		fmt.Fprintf(&b, " Preferences: %s.", strings.TrimRight(p, "."))
	}
	return b.String()
}

func rejectionPrompt(e *ValidationError) string {
	switch e.Field {
	case FieldTravelerName:
		return "I didn't catch a name. Please tell me the name for the booking (" + e.Expected + ")."
	case FieldTravelerEmail:
		return fmt.Sprintf("%q doesn't look like a valid email address. Please enter %s.", e.Value, e.Expected)
	case FieldDestination:
		return "Please tell me where you'd like to go (" + e.Expected + ")."
	case FieldDepartureDate, FieldReturnDate:
		return fmt.Sprintf("I couldn't use %q as the %s. Please send %s.", e.Value, strings.ReplaceAll(e.Field, "_", " "), e.Expected)
	case "confirmation":
		return "Please answer " + e.Expected + "."
	}
	return fmt.Sprintf("Please send %s for %s.", e.Expected, e.Field)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
