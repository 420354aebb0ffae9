package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripbot/internal/modules/conversation"
)

var ErrUnavailable = errors.New("llm assistant unavailable")

// Assistant uses an LLMProvider for the two language tasks of a chat turn:
// pulling the active field out of free text and phrasing the reply.
type Assistant struct {
	provider LLMProvider
	timeout  time.Duration
}

func NewAssistant(provider LLMProvider, timeout time.Duration) *Assistant {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Assistant{provider: provider, timeout: timeout}
}

func (a *Assistant) Available() bool {
	return a != nil && a.provider != nil
}

func (a *Assistant) Provider() string {
	if !a.Available() {
		return "none"
	}
	return a.provider.Name()
}

// ExtractValue returns the value the user gave for the step's field, shaped
// the way the stepper expects it. It returns "" when the message holds no
// such value; the caller then passes the raw text through.
func (a *Assistant) ExtractValue(ctx context.Context, step conversation.Step, text string) (string, error) {
	if !a.Available() {
		return "", ErrUnavailable
	}
	hint, ok := extractionHints[step]
	if !ok {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.provider.Generate(ctx, Request{
		System:      buildExtractionPrompt(hint),
		Messages:    []Message{{Role: RoleUser, Content: text}},
		JSON:        true,
		MaxTokens:   200,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	var res ExtractionResult
	if err := json.Unmarshal([]byte(cleanJSONString(raw)), &res); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, raw)
	}
	if !res.Found {
		return "", nil
	}
	if step == conversation.StepDateCollection {
		dep := strings.TrimSpace(res.DepartureDate)
		if dep == "" {
			return "", nil
		}
		if ret := strings.TrimSpace(res.ReturnDate); ret != "" {
			return dep + " to " + ret, nil
		}
		return dep, nil
	}
	return strings.TrimSpace(res.Value), nil
}

// ComposeReply rephrases the deterministic prompt in a conversational tone,
// using recent history for context. history must end with the user's message.
func (a *Assistant) ComposeReply(ctx context.Context, history []Message, prompt string, fields map[string]string) (string, error) {
	if !a.Available() {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.provider.Generate(ctx, Request{
		System:      buildReplyPrompt(prompt, fields),
		Messages:    history,
		MaxTokens:   500,
		Temperature: 0.7,
	})
}

type extractionHint struct {
	field  string
	format string
	schema string
}

var extractionHints = map[conversation.Step]extractionHint{
	conversation.StepNameCollection: {
		field:  "the traveller's name",
		format: "the name exactly as written, without greetings or filler words",
		schema: `{"found": boolean, "value": "string"}`,
	},
	conversation.StepEmailCollection: {
		field:  "the traveller's email address",
		format: "the email address only",
		schema: `{"found": boolean, "value": "string"}`,
	},
	conversation.StepDestinationCollection: {
		field:  "the travel destination",
		format: "the place name only, e.g. \"Coorg\" or \"Paris, France\"",
		schema: `{"found": boolean, "value": "string"}`,
	},
	conversation.StepDateCollection: {
		field:  "the departure date and optional return date",
		format: "dates as YYYY-MM-DD; leave return_date empty when not given; do not guess a missing year",
		schema: `{"found": boolean, "departure_date": "YYYY-MM-DD", "return_date": "YYYY-MM-DD or empty"}`,
	},
	conversation.StepConfirmation: {
		field:  "whether the traveller confirms the booking",
		format: "\"yes\" when they confirm, \"no\" when they want changes; found=false when unclear",
		schema: `{"found": boolean, "value": "yes" | "no"}`,
	},
}

func buildExtractionPrompt(hint extractionHint) string {
	return fmt.Sprintf(`Role: You extract one value from a traveller's chat message for a trip booking assistant.

Extract: %s.
Format: %s.

RULES:
1. Only use what the message states. Never invent or infer a value that is not there.
2. If the message does not contain the value, set "found": false.
3. Output a single JSON object matching this schema:
%s
`, hint.field, hint.format, hint.schema)
}

func buildReplyPrompt(draft string, fields map[string]string) string {
	known := "NONE"
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for _, k := range []string{
			conversation.FieldTravelerName,
			conversation.FieldDestination,
			conversation.FieldDepartureDate,
			conversation.FieldReturnDate,
			conversation.FieldTravelersCount,
			conversation.FieldTripType,
		} {
			if v := fields[k]; v != "" {
				keys = append(keys, k+"="+v)
			}
		}
		if len(keys) > 0 {
			known = strings.Join(keys, ", ")
		}
	}
	return fmt.Sprintf(`Role: You are TripBot, a friendly trip planning assistant chatting with a traveller.
Known trip details: %s

Your next message must convey this draft:
"""
%s
"""

RULES:
1. Keep every fact, number, date, price and question from the draft. Do not add prices, dates or promises that are not in it.
2. Keep it short: at most three sentences plus any cost lines from the draft.
3. Reply with the message text only, no markdown headings.
`, known, draft)
}
