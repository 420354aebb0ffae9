// README: Stepper tests (table coverage, per-step validation, confirmation branches).
package conversation

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestStepTableCoversEveryStep(t *testing.T) {
	for i, s := range Steps {
		rule, ok := stepTable[s]
		if !ok {
			t.Fatalf("step %s has no table entry", s)
		}
		if s == StepFinalConfirmation {
			continue
		}
		if rule.next != Steps[i+1] {
			t.Fatalf("step %s advances to %s, want %s", s, rule.next, Steps[i+1])
		}
		if s != StepConfirmation && rule.accept == nil {
			t.Fatalf("step %s has no validator", s)
		}
	}
	if len(stepTable) != len(Steps) {
		t.Fatalf("table has %d entries, want %d", len(stepTable), len(Steps))
	}
}

func TestAdvanceValidInput(t *testing.T) {
	cases := []struct {
		step      Step
		fields    map[string]string
		input     string
		wantNext  Step
		wantField string
		wantValue string
	}{
		{StepGreeting, nil, "hello", StepNameCollection, "", ""},
		{StepNameCollection, nil, "  Gagan Bajpai ", StepEmailCollection, FieldTravelerName, "Gagan Bajpai"},
		{StepEmailCollection, nil, "gagan.bajpai@gmail.com", StepDestinationCollection, FieldTravelerEmail, "gagan.bajpai@gmail.com"},
		{StepDestinationCollection, nil, "Coorg", StepDateCollection, FieldDestination, "Coorg"},
		{StepDateCollection, nil, "2025-05-08", StepPreferencesCollection, FieldDepartureDate, "2025-05-08"},
		{StepDateCollection, nil, "2025-05-08 to 2025-05-12", StepPreferencesCollection, FieldReturnDate, "2025-05-12"},
		{StepPreferencesCollection, nil, "2 people, beach resort", StepConfirmation, FieldPreferences, "2 people, beach resort"},
	}
	for _, tc := range cases {
		t.Run(string(tc.step), func(t *testing.T) {
			out, err := Advance(State{Step: tc.step, Fields: tc.fields}, tc.input)
			if err != nil {
				t.Fatalf("advance: %v", err)
			}
			if out.Next != tc.wantNext {
				t.Fatalf("next = %s, want %s", out.Next, tc.wantNext)
			}
			if !out.Advanced || out.Invalid != nil {
				t.Fatalf("expected accepted input, got invalid=%v", out.Invalid)
			}
			if tc.wantField != "" && out.Fields[tc.wantField] != tc.wantValue {
				t.Fatalf("%s = %q, want %q", tc.wantField, out.Fields[tc.wantField], tc.wantValue)
			}
			if out.Prompt == "" {
				t.Fatal("expected a prompt")
			}
		})
	}
}

func TestAdvanceInvalidInputKeepsStep(t *testing.T) {
	cases := []struct {
		step      Step
		fields    map[string]string
		input     string
		wantField string
	}{
		{StepNameCollection, nil, "   ", FieldTravelerName},
		{StepNameCollection, nil, "12345", FieldTravelerName},
		{StepNameCollection, nil, strings.Repeat("a", 101), FieldTravelerName},
		{StepEmailCollection, nil, "not-an-email", FieldTravelerEmail},
		{StepEmailCollection, nil, "", FieldTravelerEmail},
		{StepDestinationCollection, nil, "", FieldDestination},
		{StepDateCollection, nil, "sometime soon", FieldDepartureDate},
		{StepDateCollection, nil, "2025-05-12 to 2025-05-08", FieldReturnDate},
		{StepDateCollection, map[string]string{FieldReturnDate: "2025-05-01"}, "2025-05-08", FieldDepartureDate},
		{StepConfirmation, nil, "hmm maybe", "confirmation"},
	}
	for _, tc := range cases {
		t.Run(string(tc.step)+"/"+tc.input, func(t *testing.T) {
			out, err := Advance(State{Step: tc.step, Fields: tc.fields}, tc.input)
			if err != nil {
				t.Fatalf("advance: %v", err)
			}
			if out.Next != tc.step || out.Advanced {
				t.Fatalf("next = %s, want to stay on %s", out.Next, tc.step)
			}
			if out.Invalid == nil || out.Invalid.Field != tc.wantField {
				t.Fatalf("invalid = %+v, want field %s", out.Invalid, tc.wantField)
			}
			if !reflect.DeepEqual(nonNil(out.Fields), nonNil(tc.fields)) {
				t.Fatalf("fields changed: %v", out.Fields)
			}
		})
	}
}

func TestAdvanceEmailScenario(t *testing.T) {
	state := State{Step: StepEmailCollection, Fields: map[string]string{FieldTravelerName: "Gagan"}}

	out, err := Advance(state, "not-an-email")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.Next != StepEmailCollection {
		t.Fatalf("next = %s, want email_collection", out.Next)
	}
	if !strings.Contains(out.Prompt, "email") {
		t.Fatalf("prompt should name the email field: %q", out.Prompt)
	}

	out, err = Advance(state, "gagan.bajpai@gmail.com")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.Next != StepDestinationCollection {
		t.Fatalf("next = %s, want destination_collection", out.Next)
	}
	if out.Fields[FieldTravelerEmail] != "gagan.bajpai@gmail.com" {
		t.Fatalf("email not stored: %v", out.Fields)
	}
}

func TestAdvanceNegativeConfirmationRetainsFields(t *testing.T) {
	fields := fullFields()
	out, err := Advance(State{Step: StepConfirmation, Fields: fields}, "No, change it")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.Next != StepDestinationCollection {
		t.Fatalf("next = %s, want destination_collection", out.Next)
	}
	if !reflect.DeepEqual(out.Fields, fields) {
		t.Fatalf("fields changed: got %v want %v", out.Fields, fields)
	}
}

func TestAdvanceAffirmativeConfirmation(t *testing.T) {
	for _, in := range []string{"yes", "Yes!", "sure", "book it", "ok, go ahead", "no problem, go ahead", "No worries!"} {
		out, err := Advance(State{Step: StepConfirmation, Fields: fullFields()}, in)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if out.Next != StepFinalConfirmation {
			t.Fatalf("%q: next = %s, want final_confirmation", in, out.Next)
		}
	}
}

func TestClassifyAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want answer
	}{
		{"no problem, go ahead", answerYes},
		{"not a problem", answerYes},
		{"no", answerNo},
		{"No, change the dates", answerNo},
		{"not yet", answerNo},
		{"nope.", answerNo},
		{"yeah", answerYes},
		{"nothing", answerUnclear},
		{"maybe later", answerUnclear},
	}
	for _, tc := range cases {
		if got := classifyAnswer(tc.in); got != tc.want {
			t.Errorf("classifyAnswer(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAdvanceFinalConfirmationIsTerminal(t *testing.T) {
	out, err := Advance(State{Step: StepFinalConfirmation, Fields: fullFields()}, "book another")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.Next != StepFinalConfirmation || out.Advanced {
		t.Fatalf("next = %s, advanced = %v", out.Next, out.Advanced)
	}
}

func TestAdvanceUnknownStep(t *testing.T) {
	_, err := Advance(State{Step: "payment"}, "x")
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("err = %v, want ErrUnknownStep", err)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	fields := map[string]string{FieldTravelerName: "Asha"}
	out, err := Advance(State{Step: StepEmailCollection, Fields: fields}, "asha@example.com")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, ok := fields[FieldTravelerEmail]; ok {
		t.Fatal("input map was mutated")
	}
	if out.Fields[FieldTravelerName] != "Asha" {
		t.Fatal("existing field dropped")
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	state := State{Step: StepDateCollection, Fields: map[string]string{FieldDestination: "Coorg"}}
	a, _ := Advance(state, "2025-05-08 to 2025-05-12")
	b, _ := Advance(state, "2025-05-08 to 2025-05-12")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("outcomes differ: %+v vs %+v", a, b)
	}
}

func TestAdvanceOverwritesOnRevisit(t *testing.T) {
	fields := fullFields()
	out, err := Advance(State{Step: StepDestinationCollection, Fields: fields}, "Paris")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.Fields[FieldDestination] != "Paris" {
		t.Fatalf("destination = %q", out.Fields[FieldDestination])
	}
	if out.Fields[FieldTravelerEmail] != fields[FieldTravelerEmail] {
		t.Fatal("unrelated field changed")
	}
}

func TestConfirmationPromptIncludesSummary(t *testing.T) {
	out, err := Advance(State{Step: StepPreferencesCollection, Fields: fullFields()}, "quiet hotel")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	for _, want := range []string{"Coorg", "2025-05-08", "2025-05-12", "quiet hotel", "yes/no"} {
		if !strings.Contains(out.Prompt, want) {
			t.Fatalf("prompt %q missing %q", out.Prompt, want)
		}
	}
}

func fullFields() map[string]string {
	return map[string]string{
		FieldTravelerName:  "Gagan",
		FieldTravelerEmail: "gagan.bajpai@gmail.com",
		FieldDestination:   "Coorg",
		FieldDepartureDate: "2025-05-08",
		FieldReturnDate:    "2025-05-12",
		FieldPreferences:   "homestay",
	}
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
