package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/pipeline"
	"github.com/rotblauer/catTrips/tourmodel"
)

// message is what a socket client sends to ask for a cat's tour model.
type message struct {
	User string `json:"user"`
}

type event struct {
	Type   string           `json:"type"`
	Report *pipeline.Report `json:"report,omitempty"`
	Data   interface{}      `json:"data,omitempty"`
}

func (s *Server) getSocket(w http.ResponseWriter, r *http.Request) {
	s.m.HandleRequest(w, r)
}

// Notify tells every socket that a run finished.
func (s *Server) Notify(rep pipeline.Report) {
	b, err := json.Marshal(event{Type: "run", Report: &rep})
	if err != nil {
		log.Error().Err(err).Msg("marshal run event")
		return
	}
	s.m.Broadcast(b)
}

// Close hangs up on every socket.
func (s *Server) Close() {
	s.m.Close()
}

func (s *Server) onMessage(sess *melody.Session, msg []byte) {
	var q message
	if err := json.Unmarshal(msg, &q); err != nil || q.User == "" {
		log.Debug().Err(err).Msg("socket message ignored")
		return
	}
	tm, err := tourmodel.GetTourModel(context.Background(), s.st, q.User)
	if err != nil {
		log.Warn().Err(err).Str("cat", q.User).Msg("socket tour model")
		return
	}
	b, err := json.Marshal(event{Type: "tour_model", Data: tm})
	if err != nil {
		return
	}
	sess.Write(b)
}
