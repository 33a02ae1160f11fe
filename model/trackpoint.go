package model

import (
	"strconv"

	"github.com/rotblauer/trackpoints/trackPoint"
	"github.com/tidwall/gjson"
)

// FromTrackPoint converts a cat tracker record.
// The sensed mode comes from the "activity" field of the notes json, if any.
func FromTrackPoint(tp trackPoint.TrackPoint) Point {
	return Point{
		ID:       TrackPointID(tp),
		Lat:      tp.Lat,
		Lng:      tp.Lng,
		Ts:       TsFromTime(tp.Time),
		Accuracy: tp.Accuracy,
		Mode:     ActivityFromNotes(tp.Notes),
	}
}

// TrackPointID mirrors how catTracks keys its points: time, then uuid when present.
func TrackPointID(tp trackPoint.TrackPoint) string {
	nanos := strconv.FormatInt(tp.Time.UnixNano(), 10)
	if tp.Uuid == "" {
		if tp.ID != 0 {
			return strconv.FormatInt(tp.ID, 10)
		}
		return nanos
	}
	return nanos + "-" + tp.Uuid
}

// ActivityFromNotes pulls the activity label out of a notes blob.
func ActivityFromNotes(notes string) string {
	if notes == "" || !gjson.Valid(notes) {
		return ""
	}
	return gjson.Get(notes, "activity").String()
}

// ToTrackPoint goes the other way, for things that want catTracks records (line simplification, exports).
func ToTrackPoint(user string, p Point) *trackPoint.TrackPoint {
	return &trackPoint.TrackPoint{
		Uuid:     p.ID,
		Name:     user,
		Lat:      p.Lat,
		Lng:      p.Lng,
		Accuracy: p.Accuracy,
		Speed:    p.Speed,
		Heading:  p.Heading,
		Time:     TimeFromTs(p.Ts),
	}
}
