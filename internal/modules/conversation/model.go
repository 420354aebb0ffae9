// README: Conversation steps, field keys and the state passed to the stepper.
package conversation

import (
	"errors"
	"fmt"
)

type Step string

const (
	StepGreeting              Step = "greeting"
	StepNameCollection        Step = "name_collection"
	StepEmailCollection       Step = "email_collection"
	StepDestinationCollection Step = "destination_collection"
	StepDateCollection        Step = "date_collection"
	StepPreferencesCollection Step = "preferences_collection"
	StepConfirmation          Step = "confirmation"
	StepFinalConfirmation     Step = "final_confirmation"
)

// Steps lists every step in dialogue order.
var Steps = []Step{
	StepGreeting,
	StepNameCollection,
	StepEmailCollection,
	StepDestinationCollection,
	StepDateCollection,
	StepPreferencesCollection,
	StepConfirmation,
	StepFinalConfirmation,
}

// Keys under which collected values are stored.
const (
	FieldTravelerName   = "traveler_name"
	FieldTravelerEmail  = "traveler_email"
	FieldDestination    = "destination"
	FieldDepartureDate  = "departure_date"
	FieldReturnDate     = "return_date"
	FieldPreferences    = "preferences"
	FieldTravelersCount = "travelers_count"
	FieldTripType       = "trip_type"
	FieldBudget         = "budget"
)

var ErrUnknownStep = errors.New("unknown conversation step")

// State is the part of a session the stepper reads.
type State struct {
	Step   Step
	Fields map[string]string
}

// Outcome is the result of one stepper call.
type Outcome struct {
	Fields   map[string]string
	Next     Step
	Prompt   string
	Invalid  *ValidationError
	Advanced bool
}

// ValidationError describes input the active step rejected.
type ValidationError struct {
	Field    string
	Value    string
	Expected string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: expected %s", e.Field, e.Value, e.Expected)
}

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	_, ok := stepTable[s]
	return ok
}

func (s Step) Terminal() bool {
	return s == StepFinalConfirmation
}
