package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/layers"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/pipeline"
	"github.com/rotblauer/catTrips/store"
	"github.com/rotblauer/catTrips/tourmodel"
)

func logged(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		log.Debug().
			Str("route", name).
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Dur("took", time.Since(start)).
			Msg("http")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidUser):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("http")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) getUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.st.Users(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) getTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := store.GetTrips(r.Context(), s.st, mux.Vars(r)["user"])
	if err != nil {
		writeErr(w, err)
		return
	}
	if trips == nil {
		trips = []model.Trip{}
	}
	writeJSON(w, http.StatusOK, trips)
}

func (s *Server) getTripSections(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trip, err := store.GetTrip(r.Context(), s.st, vars["user"], vars["trip"])
	if err != nil {
		writeErr(w, err)
		return
	}
	secs, err := store.GetTripSections(r.Context(), s.st, vars["user"], trip)
	if err != nil {
		writeErr(w, err)
		return
	}
	if secs == nil {
		secs = []model.Section{}
	}
	writeJSON(w, http.StatusOK, secs)
}

func (s *Server) getSmoothing(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := store.GetSmoothing(r.Context(), s.st, vars["user"], vars["section"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getSectionGeoJSON(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q, err := parseQuery(r, s.cfg.Layers.Epsilon)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sec, err := store.GetSection(r.Context(), s.st, vars["user"], vars["section"])
	if err != nil {
		writeErr(w, err)
		return
	}
	f, err := layers.SectionFeature(r.Context(), s.st, vars["user"], sec, q.Epsilon)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, err := f.MarshalJSON()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(b)
}

func (s *Server) getTourModel(w http.ResponseWriter, r *http.Request) {
	tm, err := tourmodel.GetTourModel(r.Context(), s.st, mux.Vars(r)["user"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tm)
}

// getPlaces lists a cat's common places, only those in the s2 cell
// around lat,lng when both are given.
func (s *Server) getPlaces(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	q, err := parseQuery(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var places []model.CommonPlace
	if q.hasLoc {
		c := geo.CellIDAt(model.Location{Lat: q.Lat, Lng: q.Lng}, q.Level)
		places, err = tourmodel.PlacesInCell(r.Context(), s.st, user, c)
	} else {
		var tm model.TourModel
		tm, err = tourmodel.GetTourModel(r.Context(), s.st, user)
		places = tm.CommonPlaces
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	if places == nil {
		places = []model.CommonPlace{}
	}
	writeJSON(w, http.StatusOK, places)
}

// postRun runs the pipeline for one cat over the start,end window, after any
// run already going for that cat, and answers with the report once it is done.
func (s *Server) postRun(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rep, err := pipeline.RunUser(r.Context(), s.st, mux.Vars(r)["user"], q.timeQuery(), s.cfg)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.Notify(rep)
	writeJSON(w, http.StatusOK, rep)
}
