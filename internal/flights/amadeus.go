package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripbot/internal/types"
)

const (
	DefaultBaseURL = "https://test.api.amadeus.com"
	tokenKey       = "access_token"

	// Tokens are dropped this long before the provider expires them.
	tokenSkew = 30 * time.Second
)

type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// Retries is how many times a throttled or failed call is repeated.
	Retries int
	Backoff time.Duration
}

// AmadeusClient calls the Amadeus flight offers API with a cached OAuth2
// client-credentials token.
type AmadeusClient struct {
	cfg    ClientConfig
	http   *http.Client
	tokens *cache.Cache
	logger *zap.Logger
}

func NewAmadeusClient(cfg ClientConfig, logger *zap.Logger) (*AmadeusClient, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmadeusClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: cache.New(cache.NoExpiration, 10*time.Minute),
		logger: logger,
	}, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("amadeus error (%d): %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (c *AmadeusClient) token(ctx context.Context) (string, error) {
	if v, ok := c.tokens.Get(tokenKey); ok {
		return v.(string), nil
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}
	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenSkew
	if ttl <= 0 {
		ttl = time.Second
	}
	c.tokens.Set(tokenKey, out.AccessToken, ttl)
	return out.AccessToken, nil
}

func (c *AmadeusClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}
	return body, nil
}

// get runs an authorized GET with exponential backoff on 429 and 5xx.
// A 401 drops the cached token and tries once more.
func (c *AmadeusClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	delay := c.cfg.Backoff
	refreshed := false
	for attempt := 0; ; attempt++ {
		token, err := c.token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusUnauthorized && !refreshed {
			c.tokens.Delete(tokenKey)
			refreshed = true
			continue
		}
		retryable := ctx.Err() == nil && (!errors.As(err, &se) || se.retryable())
		if !retryable || attempt >= c.cfg.Retries {
			return nil, err
		}
		wait := delay + time.Duration(rand.Int63n(int64(delay)/4+1))
		c.logger.Warn("flight search retry",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
}

// SearchOffers queries /v2/shopping/flight-offers. The request must already
// be normalized and valid.
func (c *AmadeusClient) SearchOffers(ctx context.Context, r SearchRequest) ([]Offer, error) {
	q := url.Values{}
	q.Set("originLocationCode", r.Origin)
	q.Set("destinationLocationCode", r.Destination)
	q.Set("departureDate", r.DepartureDate)
	if r.ReturnDate != "" {
		q.Set("returnDate", r.ReturnDate)
	}
	q.Set("adults", strconv.Itoa(r.Adults))
	if r.Children > 0 {
		q.Set("children", strconv.Itoa(r.Children))
	}
	if r.Infants > 0 {
		q.Set("infants", strconv.Itoa(r.Infants))
	}
	q.Set("travelClass", r.TravelClass)
	if r.NonStop {
		q.Set("nonStop", "true")
	}
	if r.MaxPrice > 0 {
		q.Set("maxPrice", strconv.Itoa(int(r.MaxPrice)))
	}
	q.Set("currencyCode", r.Currency)
	q.Set("max", strconv.Itoa(r.MaxResults))

	body, err := c.get(ctx, "/v2/shopping/flight-offers", q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return parseOffers(body, r.TravelClass)
}

type offersResponse struct {
	Data []struct {
		ID                    string `json:"id"`
		NumberOfBookableSeats int    `json:"numberOfBookableSeats"`
		Price                 struct {
			GrandTotal string `json:"grandTotal"`
			Currency   string `json:"currency"`
		} `json:"price"`
		Itineraries []struct {
			Duration string    `json:"duration"`
			Segments []segment `json:"segments"`
		} `json:"itineraries"`
		ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	} `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type segment struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

func parseOffers(body []byte, class string) ([]Offer, error) {
	var resp offersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode flight offers: %w", err)
	}
	offers := make([]Offer, 0, len(resp.Data))
	for _, d := range resp.Data {
		if len(d.Itineraries) == 0 || len(d.Itineraries[0].Segments) == 0 {
			continue
		}
		price, err := decimal.NewFromString(d.Price.GrandTotal)
		if err != nil || !price.IsPositive() {
			continue
		}
		outbound, err := toLeg(d.Itineraries[0].Duration, d.Itineraries[0].Segments)
		if err != nil {
			continue
		}
		o := Offer{
			ID:          d.ID,
			Price:       types.NewMoney(price, d.Price.Currency),
			TravelClass: class,
			SeatsLeft:   d.NumberOfBookableSeats,
			Outbound:    outbound,
		}
		carrier := d.Itineraries[0].Segments[0].CarrierCode
		if carrier == "" && len(d.ValidatingAirlineCodes) > 0 {
			carrier = d.ValidatingAirlineCodes[0]
		}
		o.Airline = carrier
		if name := resp.Dictionaries.Carriers[carrier]; name != "" {
			o.Airline = name
		}
		if len(d.Itineraries) > 1 && len(d.Itineraries[1].Segments) > 0 {
			if inbound, err := toLeg(d.Itineraries[1].Duration, d.Itineraries[1].Segments); err == nil {
				o.Inbound = &inbound
			}
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func toLeg(duration string, segs []segment) (Leg, error) {
	d, err := ParseISODuration(duration)
	if err != nil {
		return Leg{}, err
	}
	first, last := segs[0], segs[len(segs)-1]
	return Leg{
		From:         first.Departure.IataCode,
		To:           last.Arrival.IataCode,
		DepartureAt:  first.Departure.At,
		ArrivalAt:    last.Arrival.At,
		FlightNumber: first.CarrierCode + first.Number,
		Stops:        len(segs) - 1,
		Duration:     FormatDuration(d),
		Minutes:      int(d.Minutes()),
	}, nil
}
