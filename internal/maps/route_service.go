package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client directionsAPI
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// TravelEstimate is a road trip estimate between two places.
type TravelEstimate struct {
	Origin   string        `json:"origin"`
	Duration time.Duration `json:"duration"`
	Distance string        `json:"distance"`
}

// GetTravelEstimate returns the driving duration and distance from origin to destination.
func (s *RouteService) GetTravelEstimate(ctx context.Context, origin, destination string) (TravelEstimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Language:    "en",
		Region:      "in",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return TravelEstimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return TravelEstimate{}, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return TravelEstimate{Origin: origin, Duration: leg.Duration, Distance: leg.Distance.HumanReadable}, nil
}

// Describe renders the estimate for chat replies.
func (e TravelEstimate) Describe() string {
	h := int(e.Duration.Hours())
	m := int(e.Duration.Minutes()) % 60
	return fmt.Sprintf("It's about %dh%02dm (%s) by road from %s.", h, m, e.Distance, e.Origin)
}
