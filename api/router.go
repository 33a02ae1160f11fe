// Package api serves the analysis records over http and tells websocket
// listeners when a run finishes.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/olahol/melody"

	"github.com/rotblauer/catTrips/config"
	"github.com/rotblauer/catTrips/store"
)

type Server struct {
	st  store.Store
	cfg *config.Config
	m   *melody.Melody
}

func NewServer(st store.Store, cfg *config.Config) *Server {
	s := &Server{st: st, cfg: cfg, m: melody.New()}
	s.m.HandleMessage(s.onMessage)
	return s
}

func (s *Server) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, route := range s.routes() {
		var handler http.Handler

		handler = logged(route.Name, route.HandlerFunc)

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}
