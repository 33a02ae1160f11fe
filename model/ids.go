package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// namespace for every id catTrips derives. Changing it changes every id.
var namespace = uuid.MustParse("6c1f7a0e-3b52-5d6b-9e0a-2f5b8c7d4e31")

// NewID derives a stable id from parts. The same parts always give the same id,
// which is what lets a rerun overwrite its earlier records instead of piling up.
func NewID(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "\x1f"))).String()
}

// FormatTs renders a timestamp for use in ids and keys, millisecond precision.
func FormatTs(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 3, 64)
}
