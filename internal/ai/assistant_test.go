package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tripbot/internal/modules/conversation"
)

type fakeProvider struct {
	reply string
	err   error
	last  Request
}

func (f *fakeProvider) Generate(_ context.Context, req Request) (string, error) {
	f.last = req
	return f.reply, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

func TestExtractValue(t *testing.T) {
	cases := []struct {
		name  string
		step  conversation.Step
		reply string
		want  string
	}{
		{"email", conversation.StepEmailCollection, `{"found": true, "value": " gagan@example.com "}`, "gagan@example.com"},
		{"markdown fenced", conversation.StepDestinationCollection, "```json\n{\"found\": true, \"value\": \"Coorg\"}\n```", "Coorg"},
		{"not found", conversation.StepNameCollection, `{"found": false, "value": ""}`, ""},
		{"date range", conversation.StepDateCollection, `{"found": true, "departure_date": "2025-05-08", "return_date": "2025-05-12"}`, "2025-05-08 to 2025-05-12"},
		{"single date", conversation.StepDateCollection, `{"found": true, "departure_date": "2025-05-08", "return_date": ""}`, "2025-05-08"},
		{"confirmation", conversation.StepConfirmation, `{"found": true, "value": "yes"}`, "yes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{reply: tc.reply}
			got, err := NewAssistant(p, 0).ExtractValue(context.Background(), tc.step, "some text")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.True(t, p.last.JSON)
			require.Contains(t, p.last.System, "Never invent")
		})
	}
}

func TestExtractValueSkipsFreeTextSteps(t *testing.T) {
	p := &fakeProvider{reply: `{"found": true, "value": "x"}`}
	a := NewAssistant(p, 0)
	for _, step := range []conversation.Step{conversation.StepGreeting, conversation.StepPreferencesCollection, conversation.StepFinalConfirmation} {
		got, err := a.ExtractValue(context.Background(), step, "beach please")
		require.NoError(t, err)
		require.Empty(t, got)
	}
	require.Empty(t, p.last.System, "provider should not be called")
}

func TestExtractValueErrors(t *testing.T) {
	_, err := NewAssistant(&fakeProvider{reply: "not json"}, 0).ExtractValue(context.Background(), conversation.StepNameCollection, "x")
	require.Error(t, err)

	boom := errors.New("boom")
	_, err = NewAssistant(&fakeProvider{err: boom}, 0).ExtractValue(context.Background(), conversation.StepNameCollection, "x")
	require.ErrorIs(t, err, boom)

	_, err = NewAssistant(nil, 0).ExtractValue(context.Background(), conversation.StepNameCollection, "x")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestComposeReply(t *testing.T) {
	p := &fakeProvider{reply: "Lovely! Where would you like to go?"}
	a := NewAssistant(p, 0)
	history := []Message{{Role: RoleAssistant, Content: "hi"}, {Role: RoleUser, Content: "gagan@example.com"}}

	got, err := a.ComposeReply(context.Background(), history, "Where would you like to go?", map[string]string{
		conversation.FieldTravelerName: "Gagan",
	})
	require.NoError(t, err)
	require.Equal(t, "Lovely! Where would you like to go?", got)
	require.Contains(t, p.last.System, "Where would you like to go?")
	require.Contains(t, p.last.System, "traveler_name=Gagan")
	require.False(t, p.last.JSON)
	require.Len(t, p.last.Messages, 2)
}

func TestBuildReplyPromptWithoutFields(t *testing.T) {
	got := buildReplyPrompt("draft text", nil)
	require.True(t, strings.Contains(got, "Known trip details: NONE"))
}
