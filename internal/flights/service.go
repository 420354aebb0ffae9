package flights

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// OfferSource fetches offers for a normalized, valid request.
type OfferSource interface {
	SearchOffers(ctx context.Context, r SearchRequest) ([]Offer, error)
}

// Service validates searches, caches provider results per route and
// passenger mix, and sorts them on the way out.
type Service struct {
	source   OfferSource
	results  *cache.Cache
	currency string
	logger   *zap.Logger
}

func NewService(source OfferSource, currency string, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:   source,
		results:  cache.New(cacheTTL, 2*cacheTTL),
		currency: currency,
		logger:   logger,
	}
}

// Search returns at most r.MaxResults offers ordered by r.SortBy. Invalid
// requests fail with *ValidationError before the provider is called.
func (s *Service) Search(ctx context.Context, r SearchRequest) ([]Offer, error) {
	r = r.Normalized(s.currency)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, ErrNotConfigured
	}

	key := cacheKey(r)
	var offers []Offer
	if v, ok := s.results.Get(key); ok {
		offers = v.([]Offer)
	} else {
		start := time.Now()
		found, err := s.source.SearchOffers(ctx, r)
		if err != nil {
			s.logger.Warn("flight search failed",
				zap.String("route", r.Origin+"-"+r.Destination),
				zap.Error(err),
			)
			return nil, err
		}
		s.results.Set(key, found, cache.DefaultExpiration)
		offers = found
		s.logger.Info("flight search",
			zap.String("route", r.Origin+"-"+r.Destination),
			zap.String("departure", r.DepartureDate),
			zap.Int("offers", len(found)),
			zap.Duration("took", time.Since(start)),
		)
	}

	out := make([]Offer, len(offers))
	copy(out, offers)
	SortOffers(out, r.SortBy)
	if len(out) > r.MaxResults {
		out = out[:r.MaxResults]
	}
	return out, nil
}

// cacheKey leaves out SortBy so re-sorting a search reuses its results.
func cacheKey(r SearchRequest) string {
	return strings.Join([]string{
		r.Origin, r.Destination, r.DepartureDate, r.ReturnDate,
		strconv.Itoa(r.Adults), strconv.Itoa(r.Children), strconv.Itoa(r.Infants),
		r.TravelClass, strconv.FormatBool(r.NonStop),
		fmt.Sprintf("%.0f", r.MaxPrice), r.Currency, strconv.Itoa(r.MaxResults),
	}, "|")
}
