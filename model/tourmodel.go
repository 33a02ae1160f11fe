package model

// VisitKind says whether a place visit was the start or the end of a trip.
type VisitKind string

const (
	VisitStart VisitKind = "start"
	VisitEnd   VisitKind = "end"
)

// PlaceVisit is one trip endpoint observation assigned to a common place.
type PlaceVisit struct {
	TripID   string    `json:"trip_id"`
	Kind     VisitKind `json:"kind"`
	Location Location  `json:"location"`
	Ts       float64   `json:"ts"`
}

type CommonPlace struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Centroid    Location     `json:"centroid"`
	Members     []PlaceVisit `json:"members"`
	MemberCount int          `json:"member_count"`
	Name        string       `json:"name,omitempty"`
}

type CommonTrip struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	StartPlaceID   string   `json:"start_place_id"`
	EndPlaceID     string   `json:"end_place_id"`
	MemberTripIDs  []string `json:"member_trip_ids"`
	MemberCount    int      `json:"member_count"`
	Probability    float64  `json:"probability"`
	MeanDuration   float64  `json:"mean_duration"`
	MedianDuration float64  `json:"median_duration"`
}

// TourModel is the per-user summary of recurring places and trips.
// It is always rebuilt from scratch, never patched.
type TourModel struct {
	UserID       string        `json:"user_id"`
	CommonPlaces []CommonPlace `json:"common_places"`
	CommonTrips  []CommonTrip  `json:"common_trips"`
}

// EmptyTourModel has non-nil, empty collections so it encodes as [] rather than null.
func EmptyTourModel(user string) TourModel {
	return TourModel{
		UserID:       user,
		CommonPlaces: []CommonPlace{},
		CommonTrips:  []CommonTrip{},
	}
}

// Place looks up a common place by id.
func (tm TourModel) Place(id string) (CommonPlace, bool) {
	for _, p := range tm.CommonPlaces {
		if p.ID == id {
			return p, true
		}
	}
	return CommonPlace{}, false
}
