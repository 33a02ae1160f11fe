package api

import (
	"net/http"

	"github.com/creack/httpreq"

	"github.com/rotblauer/catTrips/store"
)

// DefaultCellLevel is the s2 level of the cell searched around lat,lng, about 2km across.
const DefaultCellLevel = 12

type query struct {
	Epsilon float64
	Lat     float64
	Lng     float64
	Level   int
	Start   float64
	End     float64

	hasLoc bool
}

func (q *query) timeQuery() store.TimeQuery {
	return store.TimeQuery{Start: q.Start, End: q.End}
}

func parseQuery(r *http.Request, epsilon float64) (*query, error) {
	q := &query{}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if err := httpreq.NewParsingMap().
		Add("epsilon", httpreq.ToFloat64, &q.Epsilon).
		Add("lat", httpreq.ToFloat64, &q.Lat).
		Add("lng", httpreq.ToFloat64, &q.Lng).
		Add("level", httpreq.ToInt, &q.Level).
		Add("start", httpreq.ToFloat64, &q.Start).
		Add("end", httpreq.ToFloat64, &q.End).
		Parse(r.Form); err != nil {
		return nil, err
	}
	q.hasLoc = r.Form.Get("lat") != "" && r.Form.Get("lng") != ""
	if r.Form.Get("epsilon") == "" {
		q.Epsilon = epsilon
	}
	if r.Form.Get("level") == "" || q.Level < 0 || q.Level > 30 {
		q.Level = DefaultCellLevel
	}
	if q.Epsilon < 0 {
		q.Epsilon = 0
	}
	return q, nil
}
