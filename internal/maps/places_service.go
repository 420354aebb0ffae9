package maps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"googlemaps.github.io/maps"
)

// Place represents a simplified location result.
type Place struct {
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Rating           float32 `json:"rating"`
	PlaceID          string  `json:"place_id"`
	UserRatingsTotal int     `json:"user_ratings_total"`
}

const (
	maxSuggestions = 3
	minRating      = 4.0
)

// textSearcher is the subset of *maps.Client used for attraction lookups.
type textSearcher interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

// PlacesService suggests attractions for a destination via the Places API.
// Results are cached per destination and preference keyword.
type PlacesService struct {
	client textSearcher
	cache  *cache.Cache
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string, cacheTTL time.Duration) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newPlacesService(client, cacheTTL), nil
}

func newPlacesService(client textSearcher, cacheTTL time.Duration) *PlacesService {
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}
	return &PlacesService{client: client, cache: cache.New(cacheTTL, 2*cacheTTL)}
}

// SuggestAttractions returns up to three well rated attractions in destination.
// preferences may carry a theme such as "beach" or "trekking".
func (s *PlacesService) SuggestAttractions(ctx context.Context, destination, preferences string) ([]Place, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, nil
	}
	theme := themeFor(preferences)
	key := strings.ToLower(destination) + "|" + theme
	if v, ok := s.cache.Get(key); ok {
		return v.([]Place), nil
	}

	query := "top tourist attractions in " + destination
	if theme != "" {
		query = theme + " " + query
	}
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query, Language: "en"})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var results []Place
	for _, r := range resp.Results {
		if r.Rating < minRating {
			continue
		}
		results = append(results, Place{
			Name:             r.Name,
			Address:          r.FormattedAddress,
			Rating:           r.Rating,
			PlaceID:          r.PlaceID,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UserRatingsTotal > results[j].UserRatingsTotal
	})
	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}

	s.cache.SetDefault(key, results)
	return results, nil
}

var themes = []string{"beach", "trek", "hiking", "museum", "temple", "wildlife", "nightlife", "food", "shopping", "waterfall", "coffee"}

func themeFor(preferences string) string {
	p := strings.ToLower(preferences)
	for _, t := range themes {
		if strings.Contains(p, t) {
			return t
		}
	}
	return ""
}
