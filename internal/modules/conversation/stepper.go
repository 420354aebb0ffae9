// README: Conversation stepper advances a session by one validated user turn.
package conversation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLen        = 100
	maxDestinationLen = 200
)

var validate = validator.New()

// stepRule is one row of the step table. accept returns the fields to write,
// or a validation error that keeps the step where it is.
type stepRule struct {
	field  string
	next   Step
	accept func(input string, fields map[string]string) (map[string]string, *ValidationError)
}

var stepTable = map[Step]stepRule{
	StepGreeting: {
		next:   StepNameCollection,
		accept: func(string, map[string]string) (map[string]string, *ValidationError) { return nil, nil },
	},
	StepNameCollection: {
		field:  FieldTravelerName,
		next:   StepEmailCollection,
		accept: acceptName,
	},
	StepEmailCollection: {
		field:  FieldTravelerEmail,
		next:   StepDestinationCollection,
		accept: acceptEmail,
	},
	StepDestinationCollection: {
		field:  FieldDestination,
		next:   StepDateCollection,
		accept: acceptDestination,
	},
	StepDateCollection: {
		field:  FieldDepartureDate,
		next:   StepPreferencesCollection,
		accept: acceptDates,
	},
	StepPreferencesCollection: {
		field:  FieldPreferences,
		next:   StepConfirmation,
		accept: acceptPreferences,
	},
	StepConfirmation: {
		next: StepFinalConfirmation,
	},
	StepFinalConfirmation: {
		next: StepFinalConfirmation,
	},
}

// Advance applies one user utterance to the session state. It never mutates
// state.Fields and never removes a key. Invalid input keeps the current step.
func Advance(state State, input string) (Outcome, error) {
	rule, ok := stepTable[state.Step]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownStep, state.Step)
	}
	fields := copyFields(state.Fields)
	input = strings.TrimSpace(input)

	switch state.Step {
	case StepConfirmation:
		return confirm(fields, input), nil
	case StepFinalConfirmation:
		return Outcome{Fields: fields, Next: StepFinalConfirmation, Prompt: Question(StepFinalConfirmation, fields)}, nil
	}

	updates, verr := rule.accept(input, fields)
	if verr != nil {
		return Outcome{
			Fields:  fields,
			Next:    state.Step,
			Prompt:  rejectionPrompt(verr),
			Invalid: verr,
		}, nil
	}
	for k, v := range updates {
		fields[k] = v
	}
	return Outcome{
		Fields:   fields,
		Next:     rule.next,
		Prompt:   Question(rule.next, fields),
		Advanced: true,
	}, nil
}

// FieldFor returns the key the step writes, or "" for steps that collect nothing.
func FieldFor(step Step) string {
	return stepTable[step].field
}

func acceptName(input string, _ map[string]string) (map[string]string, *ValidationError) {
	n := utf8.RuneCountInString(input)
	if n == 0 || n > maxNameLen || !strings.ContainsFunc(input, unicode.IsLetter) {
		return nil, &ValidationError{Field: FieldTravelerName, Value: input, Expected: "a name of 1 to 100 characters"}
	}
	return map[string]string{FieldTravelerName: input}, nil
}

func acceptEmail(input string, _ map[string]string) (map[string]string, *ValidationError) {
	if err := validate.Var(input, "required,email"); err != nil {
		return nil, &ValidationError{Field: FieldTravelerEmail, Value: input, Expected: "an email address like name@example.com"}
	}
	return map[string]string{FieldTravelerEmail: input}, nil
}

func acceptDestination(input string, _ map[string]string) (map[string]string, *ValidationError) {
	n := utf8.RuneCountInString(input)
	if n == 0 || n > maxDestinationLen {
		return nil, &ValidationError{Field: FieldDestination, Value: input, Expected: "a city or place name"}
	}
	return map[string]string{FieldDestination: input}, nil
}

func acceptDates(input string, fields map[string]string) (map[string]string, *ValidationError) {
	dep, ret, err := ParseTravelDates(input)
	if errors.Is(err, ErrReturnBeforeDep) {
		return nil, &ValidationError{Field: FieldReturnDate, Value: ret, Expected: "a return date on or after the departure date " + dep}
	}
	if err != nil {
		return nil, &ValidationError{Field: FieldDepartureDate, Value: input, Expected: "a date like 2025-05-08, optionally followed by 'to' and a return date"}
	}
	if ret == "" {
		if prev := fields[FieldReturnDate]; prev != "" && prev < dep {
			return nil, &ValidationError{Field: FieldDepartureDate, Value: dep, Expected: "a departure date on or before the return date " + prev}
		}
		return map[string]string{FieldDepartureDate: dep}, nil
	}
	return map[string]string{FieldDepartureDate: dep, FieldReturnDate: ret}, nil
}

func acceptPreferences(input string, _ map[string]string) (map[string]string, *ValidationError) {
	return map[string]string{FieldPreferences: input}, nil
}

var (
	affirmatives = []string{"yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "confirmed", "book", "book it", "go ahead", "proceed", "correct", "looks good"}
	negatives    = []string{"no", "n", "nope", "nah", "not yet", "change", "cancel", "wait", "edit", "wrong", "incorrect"}

	// Checked before negatives so "no problem" is not read as "no".
	agreeingPhrases = []string{"no problem", "no worries", "not a problem", "no issues", "why not", "sounds good"}
)

func confirm(fields map[string]string, input string) Outcome {
	switch classifyAnswer(input) {
	case answerYes:
		return Outcome{Fields: fields, Next: StepFinalConfirmation, Prompt: Question(StepFinalConfirmation, fields), Advanced: true}
	case answerNo:
		return Outcome{
			Fields:   fields,
			Next:     StepDestinationCollection,
			Prompt:   "No problem, let's revisit the trip details. " + Question(StepDestinationCollection, fields),
			Advanced: true,
		}
	default:
		verr := &ValidationError{Field: "confirmation", Value: input, Expected: "yes to book or no to change the details"}
		return Outcome{Fields: fields, Next: StepConfirmation, Prompt: rejectionPrompt(verr), Invalid: verr}
	}
}

type answer int

const (
	answerUnclear answer = iota
	answerYes
	answerNo
)

func classifyAnswer(input string) answer {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimRight(s, ".!")
	switch {
	case startsWithAny(s, agreeingPhrases):
		return answerYes
	case startsWithAny(s, negatives):
		return answerNo
	case startsWithAny(s, affirmatives):
		return answerYes
	}
	return answerUnclear
}

func startsWithAny(s string, words []string) bool {
	for _, w := range words {
		if s == w || strings.HasPrefix(s, w+" ") || strings.HasPrefix(s, w+",") {
			return true
		}
	}
	return false
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}
