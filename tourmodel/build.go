package tourmodel

import (
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
)

type Config struct {
	Places Places `koanf:"places"`
	// GoogleMapsAPIKey turns on naming of common places by reverse geocoding.
	GoogleMapsAPIKey string `koanf:"google_maps_api_key"`
}

func DefaultConfig() Config {
	return Config{Places: Places{Radius: DefaultRadius}}
}

type tripKey struct {
	start, end string
}

// Build computes the tour model of user from scratch.
func Build(user string, trips []model.Trip, cfg Config) model.TourModel {
	tm := model.EmptyTourModel(user)
	if len(trips) == 0 {
		return tm
	}
	ordered := make(model.Trips, len(trips))
	copy(ordered, trips)
	sort.Stable(ordered)
	trips = ordered

	visits := make([]model.PlaceVisit, 0, 2*len(trips))
	for _, t := range trips {
		visits = append(visits,
			model.PlaceVisit{TripID: t.ID, Kind: model.VisitStart, Location: t.StartLoc, Ts: t.StartTs},
			model.PlaceVisit{TripID: t.ID, Kind: model.VisitEnd, Location: t.EndLoc, Ts: t.EndTs},
		)
	}

	startPlace := map[string]string{}
	endPlace := map[string]string{}
	for i, members := range cfg.Places.Cluster(visits) {
		locs := make([]model.Location, len(members))
		for j, v := range members {
			locs[j] = v.Location
		}
		cp := model.CommonPlace{
			ID:          model.NewID(user, "place", strconv.Itoa(i)),
			UserID:      user,
			Centroid:    geo.Centroid(locs),
			Members:     members,
			MemberCount: len(members),
		}
		for _, v := range members {
			if v.Kind == model.VisitStart {
				startPlace[v.TripID] = cp.ID
			} else {
				endPlace[v.TripID] = cp.ID
			}
		}
		tm.CommonPlaces = append(tm.CommonPlaces, cp)
	}

	var order []tripKey
	byKey := map[tripKey][]model.Trip{}
	leaving := map[string]int{}
	for _, t := range trips {
		k := tripKey{start: startPlace[t.ID], end: endPlace[t.ID]}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], t)
		leaving[k.start]++
	}

	for _, k := range order {
		members := byKey[k]
		ids := make([]string, len(members))
		durations := make(stats.Float64Data, len(members))
		for i, t := range members {
			ids[i] = t.ID
			durations[i] = t.Duration()
		}
		mean, _ := durations.Mean()
		median, _ := durations.Median()
		tm.CommonTrips = append(tm.CommonTrips, model.CommonTrip{
			ID:             model.NewID(user, "common_trip", k.start, k.end),
			UserID:         user,
			StartPlaceID:   k.start,
			EndPlaceID:     k.end,
			MemberTripIDs:  ids,
			MemberCount:    len(members),
			Probability:    float64(len(members)) / float64(leaving[k.start]),
			MeanDuration:   mean,
			MedianDuration: median,
		})
	}
	return tm
}
