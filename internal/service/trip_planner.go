package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripbot/internal/ai"
	"tripbot/internal/maps"
	"tripbot/internal/modules/booking"
	"tripbot/internal/modules/conversation"
	"tripbot/internal/modules/pricing"
	"tripbot/internal/modules/session"
)

const (
	MaxMessageLen        = 2000
	DefaultHistoryWindow = 10

	// Stored history is kept to this many prompt windows.
	historyKeepFactor = 4
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")
)

// Reply sources reported in AdditionalData.
const (
	ReplyLLM      = "llm"
	ReplyTemplate = "template"
)

type BookingCreator interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
}

// UsageMeter rations LLM calls per session.
type UsageMeter interface {
	UseCall(ctx context.Context, sessionID string) error
	Forget(ctx context.Context, sessionID string) error
}

type AttractionFinder interface {
	SuggestAttractions(ctx context.Context, destination, preferences string) ([]maps.Place, error)
}

type TravelTimer interface {
	GetTravelEstimate(ctx context.Context, origin, destination string) (maps.TravelEstimate, error)
}

// Deps wires a TripPlanner. Sessions, Estimator and Bookings are required;
// the rest may be nil and their features are skipped.
type Deps struct {
	Sessions      session.Store
	Estimator     *pricing.Estimator
	Bookings      BookingCreator
	Assistant     *ai.Assistant
	Usage         UsageMeter
	Places        AttractionFinder
	Routes        TravelTimer
	Logger        *zap.Logger
	HistoryWindow int
	OriginCity    string
}

// TripPlanner runs one chat turn at a time per session: it advances the
// conversation, prices the trip and books it once the traveller confirms.
type TripPlanner struct {
	sessions  session.Store
	estimator *pricing.Estimator
	bookings  BookingCreator
	assistant *ai.Assistant
	usage     UsageMeter
	places    AttractionFinder
	routes    TravelTimer
	logger    *zap.Logger
	window    int
	origin    string
	now       func() time.Time
}

func NewTripPlanner(d Deps) *TripPlanner {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.HistoryWindow <= 0 {
		d.HistoryWindow = DefaultHistoryWindow
	}
	return &TripPlanner{
		sessions:  d.Sessions,
		estimator: d.Estimator,
		bookings:  d.Bookings,
		assistant: d.Assistant,
		usage:     d.Usage,
		places:    d.Places,
		routes:    d.Routes,
		logger:    d.Logger,
		window:    d.HistoryWindow,
		origin:    strings.TrimSpace(d.OriginCity),
		now:       time.Now,
	}
}

// TurnResult is what a chat turn returns to the caller.
type TurnResult struct {
	SessionID      string            `json:"session_id"`
	Response       string            `json:"response"`
	CurrentStep    conversation.Step `json:"current_step"`
	CollectedData  map[string]string `json:"collected_data"`
	AdditionalData AdditionalData    `json:"additional_data"`
}

type AdditionalData struct {
	CostBreakdown   *pricing.CostBreakdown `json:"cost_breakdown,omitempty"`
	QuoteError      string                 `json:"quote_error,omitempty"`
	Suggestions     []maps.Place           `json:"suggestions,omitempty"`
	TravelTime      string                 `json:"travel_time,omitempty"`
	Booking         *booking.Booking       `json:"booking,omitempty"`
	ValidationError string                 `json:"validation_error,omitempty"`
	ReplySource     string                 `json:"reply_source"`
}

// Chat handles one user message. An empty sessionID starts a new session.
func (p *TripPlanner) Chat(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock, err := p.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		sess = session.New(sessionID, p.now().UTC())
	} else if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.Append(session.RoleUser, message, p.now().UTC())

	useLLM := p.allowLLM(ctx, sessionID)
	prev := sess.Step
	out, err := p.advance(ctx, sess, message, useLLM)
	if err != nil {
		return nil, err
	}

	res := &TurnResult{SessionID: sessionID}
	prompt := out.Prompt
	next := out.Next
	if out.Invalid != nil {
		res.AdditionalData.ValidationError = out.Invalid.Error()
	}

	if out.Advanced && prev == conversation.StepPreferencesCollection {
		applyTripDetails(out.Fields, ParseTripDetails(message))
		prompt = conversation.Question(next, out.Fields)
	}

	rephrase := useLLM
	switch {
	case out.Advanced && next == conversation.StepConfirmation:
		prompt = p.enterConfirmation(ctx, out.Fields, prompt, &res.AdditionalData)
	case out.Advanced && next == conversation.StepFinalConfirmation:
		next, prompt = p.book(ctx, sess, out.Fields, &res.AdditionalData)
		rephrase = false
	}

	reply, source := p.compose(ctx, sess, prompt, out.Fields, rephrase)
	res.AdditionalData.ReplySource = source

	sess.Step = next
	sess.Fields = out.Fields
	sess.UpdatedAt = p.now().UTC()
	sess.Append(session.RoleAssistant, reply, sess.UpdatedAt)
	sess.Trim(p.window * historyKeepFactor)
	if err := p.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	p.logger.Info("chat turn",
		zap.String("session_id", sessionID),
		zap.String("from_step", string(prev)),
		zap.String("to_step", string(next)),
		zap.String("reply_source", source),
	)

	res.Response = reply
	res.CurrentStep = next
	res.CollectedData = out.Fields
	return res, nil
}

// advance runs the stepper, first on the LLM-extracted value when one is
// available and then on the raw message if the extracted value is rejected.
func (p *TripPlanner) advance(ctx context.Context, sess *session.Session, message string, useLLM bool) (conversation.Outcome, error) {
	state := conversation.State{Step: sess.Step, Fields: sess.Fields}
	if useLLM && sess.Step != conversation.StepPreferencesCollection && !sess.Step.Terminal() {
		value, err := p.assistant.ExtractValue(ctx, sess.Step, message)
		if err != nil {
			p.logger.Warn("llm extraction failed", zap.String("session_id", sess.ID), zap.Error(err))
		} else if value != "" && value != message {
			out, err := conversation.Advance(state, value)
			if err != nil {
				return conversation.Outcome{}, err
			}
			if out.Invalid == nil {
				return out, nil
			}
		}
	}
	return conversation.Advance(state, message)
}

func (p *TripPlanner) allowLLM(ctx context.Context, sessionID string) bool {
	if !p.assistant.Available() {
		return false
	}
	if p.usage == nil {
		return true
	}
	if err := p.usage.UseCall(ctx, sessionID); err != nil {
		p.logger.Info("llm disabled for turn", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	return true
}

// enterConfirmation prices the trip and decorates the summary with the quote,
// attraction ideas and a road travel time for nearby destinations.
func (p *TripPlanner) enterConfirmation(ctx context.Context, fields map[string]string, prompt string, extra *AdditionalData) string {
	quote, err := p.estimator.Estimate(fields)
	if err != nil {
		extra.QuoteError = err.Error()
		return prompt
	}
	extra.CostBreakdown = &quote

	var b strings.Builder
	b.WriteString(conversation.Summary(fields))
	b.WriteString(" ")
	b.WriteString(quote.Summary())

	dest := fields[conversation.FieldDestination]
	if p.places != nil {
		places, err := p.places.SuggestAttractions(ctx, dest, fields[conversation.FieldPreferences])
		if err != nil {
			p.logger.Warn("attraction lookup failed", zap.String("destination", dest), zap.Error(err))
		} else if len(places) > 0 {
			extra.Suggestions = places
			names := make([]string, len(places))
			for i, pl := range places {
				names[i] = pl.Name
			}
			fmt.Fprintf(&b, " Worth a visit: %s.", strings.Join(names, ", "))
		}
	}
	if p.routes != nil && p.origin != "" && quote.Tier == pricing.TierNear && !quote.TierFallback {
		est, err := p.routes.GetTravelEstimate(ctx, p.origin, dest)
		if err != nil {
			p.logger.Warn("route lookup failed", zap.String("destination", dest), zap.Error(err))
		} else {
			extra.TravelTime = est.Describe()
			b.WriteString(" ")
			b.WriteString(extra.TravelTime)
		}
	}
	b.WriteString(" Shall I book it? (yes/no)")
	return b.String()
}

// book turns a confirmed conversation into a booking. Anything short of a
// captured payment keeps the session at confirmation so the traveller can retry.
func (p *TripPlanner) book(ctx context.Context, sess *session.Session, fields map[string]string, extra *AdditionalData) (conversation.Step, string) {
	quote, err := p.estimator.Estimate(fields)
	if err != nil {
		extra.QuoteError = err.Error()
		return conversation.StepConfirmation, "I couldn't price this trip (" + err.Error() + "). Reply no to change the details."
	}
	extra.CostBreakdown = &quote

	b, err := p.bookings.Create(ctx, booking.CreateCommand{SessionID: sess.ID, Fields: fields, Cost: quote})
	if err != nil {
		p.logger.Error("booking failed", zap.String("session_id", sess.ID), zap.Error(err))
		return conversation.StepConfirmation, "Sorry, I couldn't complete the booking right now. Reply yes to try again."
	}
	extra.Booking = b
	if b.Status != booking.StatusConfirmed {
		return conversation.StepConfirmation, fmt.Sprintf(
			"The payment for booking %s was declined: %s. Reply yes to try again or no to change the details.",
			b.Reference, b.Payment.Message)
	}

	sess.BookingRef = b.Reference
	return conversation.StepFinalConfirmation, fmt.Sprintf(
		"Your trip to %s is booked! Reference %s. Total charged %s %.2f (transaction %s). A confirmation will be sent to %s.",
		b.Destination, b.Reference, quote.Currency, quote.TotalCost, b.Payment.TransactionID, b.TravelerEmail)
}

func (p *TripPlanner) compose(ctx context.Context, sess *session.Session, prompt string, fields map[string]string, useLLM bool) (string, string) {
	if !useLLM {
		return prompt, ReplyTemplate
	}
	recent := sess.Recent(p.window)
	history := make([]ai.Message, 0, len(recent))
	for _, m := range recent {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}
	reply, err := p.assistant.ComposeReply(ctx, history, prompt, fields)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		if err != nil {
			p.logger.Warn("llm reply failed, using template", zap.String("session_id", sess.ID), zap.Error(err))
		}
		return prompt, ReplyTemplate
	}
	return reply, ReplyLLM
}

// Quote prices the session's current fields without changing the session.
func (p *TripPlanner) Quote(ctx context.Context, sessionID string) (pricing.CostBreakdown, error) {
	sess, err := p.sessions.Get(ctx, sessionID)
	if err != nil {
		return pricing.CostBreakdown{}, err
	}
	return p.estimator.Estimate(sess.Fields)
}

// Reset forgets the session and its LLM usage.
func (p *TripPlanner) Reset(ctx context.Context, sessionID string) error {
	unlock, err := p.sessions.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if p.usage != nil {
		if err := p.usage.Forget(ctx, sessionID); err != nil {
			p.logger.Warn("failed to clear llm usage", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

func (p *TripPlanner) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	return p.sessions.Get(ctx, sessionID)
}
