// Package store is the time series and analysis record storage catTrips reads and writes.
package store

import (
	"context"
	"errors"
	"math"

	"github.com/goccy/go-json"
	"github.com/golang/geo/s2"

	"github.com/rotblauer/catTrips/model"
)

// Streams of raw points.
const (
	StreamLocation         = "background/location"
	StreamFilteredLocation = "background/filtered_location"
)

// Keys of analysis records.
const (
	KeyRawTrip    = "segmentation/raw_trip"
	KeyRawSection = "segmentation/raw_section"
	KeySmoothing  = "analysis/smoothing"
	KeyTourModel  = "analysis/tour_model"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidUser = errors.New("invalid user")
)

// TimeQuery bounds a point read by timestamp, both ends inclusive.
// A zero End means no upper bound.
type TimeQuery struct {
	Start float64 `json:"start_ts"`
	End   float64 `json:"end_ts"`
}

// AllTime matches every point.
var AllTime = TimeQuery{}

func (tq TimeQuery) Contains(ts float64) bool {
	if ts < tq.Start {
		return false
	}
	return tq.End == 0 || ts <= tq.End
}

// Overlaps reports whether [start, end] shares any time with tq.
func (tq TimeQuery) Overlaps(start, end float64) bool {
	return end >= tq.Start && start <= tq.end()
}

func (tq TimeQuery) end() float64 {
	if tq.End == 0 {
		return math.Inf(1)
	}
	return tq.End
}

// Entry is one analysis record. Data is the json encoded payload.
type Entry struct {
	Metadata model.Metadata  `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

// Store is everything the pipeline needs from the outside world.
// Implementations must be safe for concurrent use by different users.
type Store interface {
	Users(ctx context.Context) ([]string, error)

	// AppendPoints adds points to a stream. A point with the same timestamp and id
	// as a stored one replaces it. It returns how many points were new.
	AppendPoints(ctx context.Context, user, stream string, points []model.Point) (int, error)
	// Points returns the stream's points inside tq ordered by timestamp.
	Points(ctx context.Context, user, stream string, tq TimeQuery) ([]model.Point, error)
	// LastTs is the newest timestamp in a stream, ErrNotFound if it is empty.
	LastTs(ctx context.Context, user, stream string) (float64, error)

	// PutEntry writes the record for entityID under key, replacing what was there.
	PutEntry(ctx context.Context, user, key, entityID string, e Entry) error
	Entry(ctx context.Context, user, key, entityID string) (Entry, error)
	// DeleteEntry drops the record for entityID under key. A missing record is not an error.
	DeleteEntry(ctx context.Context, user, key, entityID string) error
	// Entries returns every record under key, in entity id order.
	Entries(ctx context.Context, user, key string) ([]Entry, error)
}

// CellIndex is implemented by stores that can look records up by s2 cell.
type CellIndex interface {
	// ReplaceCells drops every cell entry under key and writes cells in its place.
	ReplaceCells(ctx context.Context, user, key string, cells map[string]s2.CellID) error
	// InCell returns the ids whose cell lies inside c.
	InCell(ctx context.Context, user, key string, c s2.CellID) ([]string, error)
}

func checkUser(user string) error {
	if user == "" {
		return ErrInvalidUser
	}
	return nil
}
