package model

import (
	"time"
)

const (
	PlatformServer  = "server"
	DefaultTimeZone = "America/Chicago"
)

// Metadata travels with every record written back to the store.
// It is written once and never updated; a rerun writes a fresh record.
type Metadata struct {
	Key          string  `json:"key"`
	Platform     string  `json:"platform"`
	WriteTs      float64 `json:"write_ts"`
	TimeZone     string  `json:"time_zone"`
	WriteFmtTime string  `json:"write_fmt_time"`
}

// NewResultMetadata stamps an analysis result for key written at now.
func NewResultMetadata(key string, now time.Time) Metadata {
	tz := DefaultTimeZone
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
		tz = "UTC"
	}
	return Metadata{
		Key:          key,
		Platform:     PlatformServer,
		WriteTs:      TsFromTime(now),
		TimeZone:     tz,
		WriteFmtTime: now.In(loc).Format(time.RFC3339Nano),
	}
}

// TsFromTime converts t to float seconds since the epoch.
func TsFromTime(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// TimeFromTs is the inverse of TsFromTime, to the nearest microsecond.
func TimeFromTs(ts float64) time.Time {
	return time.Unix(0, int64(ts*1e6)*1e3).UTC()
}
