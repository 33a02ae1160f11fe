package tourmodel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"googlemaps.github.io/maps"

	"github.com/rotblauer/catTrips/model"
)

// Namer puts a human name on a location.
type Namer interface {
	Name(ctx context.Context, loc model.Location) (string, error)
}

// GoogleNamer reverse geocodes through the Google Maps API.
type GoogleNamer struct {
	client *maps.Client
}

func NewGoogleNamer(apiKey string) (*GoogleNamer, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GoogleNamer{client: c}, nil
}

// Name is the formatted address of the best reverse geocoding match, or "" when there is none.
func (g *GoogleNamer) Name(ctx context.Context, loc model.Location) (string, error) {
	res, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: loc.Lat, Lng: loc.Lng},
	})
	if err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", nil
	}
	return res[0].FormattedAddress, nil
}

// NamePlaces fills in the names of tm's common places. A failed lookup leaves that place unnamed.
func NamePlaces(ctx context.Context, n Namer, tm *model.TourModel) {
	for i := range tm.CommonPlaces {
		cp := &tm.CommonPlaces[i]
		name, err := n.Name(ctx, cp.Centroid)
		if err != nil {
			log.Warn().Err(err).Str("cat", tm.UserID).Str("place", cp.ID).Msg("name place")
			continue
		}
		cp.Name = name
	}
}
