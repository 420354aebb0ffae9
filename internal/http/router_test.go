package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tripbot/internal/flights"
	httptransport "tripbot/internal/http"
	"tripbot/internal/http/handlers"
	"tripbot/internal/infra"
	"tripbot/internal/modules/booking"
	"tripbot/internal/modules/pricing"
	"tripbot/internal/modules/session"
	"tripbot/internal/service"
	"tripbot/internal/types"
)

type stubVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(context.Context, string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

type stubOffers struct {
	offers []flights.Offer
	err    error
}

func (s *stubOffers) SearchOffers(context.Context, flights.SearchRequest) ([]flights.Offer, error) {
	return s.offers, s.err
}

func testOffers() []flights.Offer {
	return []flights.Offer{
		{ID: "slow", Airline: "INDIGO", Price: types.NewMoney(decimal.NewFromInt(4200), "INR"), Outbound: flights.Leg{From: "BLR", To: "GOI", Minutes: 240}},
		{ID: "fast", Airline: "AIR INDIA", Price: types.NewMoney(decimal.NewFromInt(6100), "INR"), Outbound: flights.Leg{From: "BLR", To: "GOI", Minutes: 75}},
	}
}

func newTestRouter(t *testing.T, verifier infra.TokenVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	limit := types.NewMoney(decimal.NewFromInt(500000), "INR")
	bookings := booking.NewService(booking.NewMemoryStore(), booking.MockPayments{Limit: limit}, nil)
	planner := service.NewTripPlanner(service.Deps{
		Sessions:  session.NewMemoryStore(time.Hour, time.Second),
		Estimator: pricing.NewEstimator(pricing.DefaultTable(), nil),
		Bookings:  bookings,
	})
	return httptransport.NewRouter(httptransport.RouterDeps{
		Chat:     handlers.NewChatHandler(planner, time.Second),
		Bookings: handlers.NewBookingHandler(bookings, time.Second),
		Flights:  handlers.NewFlightHandler(flights.NewService(&stubOffers{offers: testOffers()}, "INR", time.Minute, nil), time.Second),
		Verifier: verifier,
	})
}

func do(r http.Handler, method, path, sid string, body any, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.Header.Set("X-Session-ID", sid)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type chatResp struct {
	SessionID      string            `json:"session_id"`
	Response       string            `json:"response"`
	CurrentStep    string            `json:"current_step"`
	CollectedData  map[string]string `json:"collected_data"`
	AdditionalData struct {
		CostBreakdown *pricing.CostBreakdown `json:"cost_breakdown"`
		Booking       *booking.Booking       `json:"booking"`
	} `json:"additional_data"`
}

func chat(t *testing.T, r http.Handler, sid, msg string) chatResp {
	t.Helper()
	w := do(r, http.MethodPost, "/api/chat", sid, map[string]string{"message": msg}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out chatResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// bookTrip runs a whole conversation and returns the booking reference.
func bookTrip(t *testing.T, r http.Handler, sid string) string {
	t.Helper()
	for _, msg := range []string{"hi", "Gagan", "gagan.bajpai@gmail.com", "Coorg", "2025-05-08 to 2025-05-12", "just me"} {
		chat(t, r, sid, msg)
	}
	out := chat(t, r, sid, "yes")
	require.Equal(t, "final_confirmation", out.CurrentStep)
	require.NotNil(t, out.AdditionalData.Booking)
	return out.AdditionalData.Booking.Reference
}

func TestHealthAndIndex(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	w = do(r, http.MethodGet, "/", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "TripBot")
}

func TestChatEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/chat", "", map[string]string{"message": "hello"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Header().Get("X-Session-ID")
	require.NotEmpty(t, sid)

	out := chat(t, r, sid, "Gagan")
	require.Equal(t, "email_collection", out.CurrentStep)
	out = chat(t, r, sid, "not-an-email")
	require.Equal(t, "email_collection", out.CurrentStep)

	w = do(r, http.MethodPost, "/api/chat", sid, map[string]string{"message": "   "}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/chat", sid, "not an object", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/chat", "bad id!", map[string]string{"message": "hi"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteResetSession(t *testing.T) {
	r := newTestRouter(t, nil)
	sid := "quote-session"

	w := do(r, http.MethodPost, "/api/quote", "", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/quote", sid, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	chat(t, r, sid, "hi")
	w = do(r, http.MethodPost, "/api/quote", sid, nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var qerr struct {
		Code   string   `json:"code"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &qerr))
	require.Equal(t, "missing_data", qerr.Code)
	require.Contains(t, qerr.Fields, "destination")

	w = do(r, http.MethodGet, "/api/session", sid, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"current_step":"name_collection"`)

	w = do(r, http.MethodPost, "/api/reset", sid, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success": true}`, w.Body.String())
	w = do(r, http.MethodGet, "/api/session", sid, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteAfterPreferences(t *testing.T) {
	r := newTestRouter(t, nil)
	sid := "priced"
	for _, msg := range []string{"hi", "Gagan", "gagan.bajpai@gmail.com", "Coorg", "2025-05-08 to 2025-05-12"} {
		chat(t, r, sid, msg)
	}
	out := chat(t, r, sid, "just me, leisure")
	require.Equal(t, "confirmation", out.CurrentStep)
	require.NotNil(t, out.AdditionalData.CostBreakdown)
	require.Equal(t, 15525.0, out.AdditionalData.CostBreakdown.TotalCost)

	w := do(r, http.MethodPost, "/api/quote", sid, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var q pricing.CostBreakdown
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	require.Equal(t, 15525.0, q.TotalCost)
	require.Equal(t, 4, q.Nights)
}

func TestBookingEndpointsWithoutAuth(t *testing.T) {
	r := newTestRouter(t, nil)
	ref := bookTrip(t, r, "book-1")

	w := do(r, http.MethodGet, "/api/bookings/"+ref, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), ref)

	w = do(r, http.MethodGet, "/api/bookings?email=GAGAN.BAJPAI@gmail.com", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), ref)

	w = do(r, http.MethodGet, "/api/bookings", "", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/bookings/"+ref+"/cancel", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"cancelled"`)

	w = do(r, http.MethodPost, "/api/bookings/"+ref+"/cancel", "", nil, "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/bookings/TRP-NOPE", "", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingEndpointsWithAuth(t *testing.T) {
	owner := &stubVerifier{token: &infra.FirebaseToken{UID: "u1", Claims: map[string]interface{}{"email": "gagan.bajpai@gmail.com"}}}
	r := newTestRouter(t, owner)
	ref := bookTrip(t, r, "book-2")

	w := do(r, http.MethodGet, "/api/bookings", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/bookings", "", nil, "Bearer ok")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), ref)

	w = do(r, http.MethodGet, "/api/bookings?email=someone@else.com", "", nil, "Bearer ok")
	require.Equal(t, http.StatusForbidden, w.Code)

	owner.token = &infra.FirebaseToken{UID: "u2", Claims: map[string]interface{}{"email": "someone@else.com"}}
	w = do(r, http.MethodGet, "/api/bookings/"+ref, "", nil, "Bearer ok")
	require.Equal(t, http.StatusForbidden, w.Code)
	w = do(r, http.MethodPost, "/api/bookings/"+ref+"/cancel", "", nil, "Bearer ok")
	require.Equal(t, http.StatusForbidden, w.Code)

	owner.err = errors.New("expired")
	w = do(r, http.MethodGet, "/api/bookings/"+ref, "", nil, "Bearer ok")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFlightSearchEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/travel/search_flights?source=blr&destination=GOI&travel_date=2025-05-08&sort=price", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    []flights.Offer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "success", out.Status)
	require.Equal(t, "Found 2 flights", out.Message)
	require.Equal(t, "slow", out.Data[0].ID)

	w = do(r, http.MethodGet, "/api/travel/search_flights?source=BLR&destination=GOI&travel_date=2025-05-08", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "fast", out.Data[0].ID)
}

func TestFlightSearchValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	cases := []struct {
		query string
		field string
	}{
		{"destination=GOI&travel_date=2025-05-08", ""},
		{"source=Bengaluru&destination=GOI&travel_date=2025-05-08", "source"},
		{"source=BLR&destination=GOI&travel_date=2025-05-08&adults=10", "adults"},
		{"source=BLR&destination=GOI&travel_date=2025-05-08&adults=1&infants=2", "infants"},
		{"source=BLR&destination=GOI&travel_date=2025-05-08&travel_class=coach", "travel_class"},
		{"source=BLR&destination=GOI&travel_date=2025-05-08&return_date=2025-05-01", "return_date"},
		{"source=BLR&destination=GOI&travel_date=08/05/2025", "travel_date"},
	}
	for _, tc := range cases {
		w := do(r, http.MethodGet, "/api/travel/search_flights?"+tc.query, "", nil, "")
		require.Equal(t, http.StatusBadRequest, w.Code, tc.query)
		var e struct {
			Code   string   `json:"code"`
			Fields []string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
		require.Equal(t, "invalid_flight_search", e.Code, tc.query)
		if tc.field != "" {
			require.Equal(t, []string{tc.field}, e.Fields, tc.query)
		}
	}
}

func TestFlightSearchUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	query := "/api/travel/search_flights?source=BLR&destination=GOI&travel_date=2025-05-08"

	r := httptransport.NewRouter(httptransport.RouterDeps{
		Flights: handlers.NewFlightHandler(flights.NewService(nil, "INR", time.Minute, nil), time.Second),
	})
	w := do(r, http.MethodGet, query, "", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	failing := &stubOffers{err: fmt.Errorf("%w: amadeus error (500)", flights.ErrUpstream)}
	r = httptransport.NewRouter(httptransport.RouterDeps{
		Flights: handlers.NewFlightHandler(flights.NewService(failing, "INR", time.Minute, nil), time.Second),
	})
	w = do(r, http.MethodGet, query, "", nil, "")
	require.Equal(t, http.StatusBadGateway, w.Code)
}
