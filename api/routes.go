package api

import "net/http"

type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

type Routes []Route

func (s *Server) routes() Routes {
	return Routes{
		Route{
			"Users",
			"GET",
			"/users",
			s.getUsers,
		},
		Route{
			"Trips",
			"GET",
			"/users/{user}/trips",
			s.getTrips,
		},
		Route{
			"TripSections",
			"GET",
			"/users/{user}/trips/{trip}/sections",
			s.getTripSections,
		},
		Route{
			"Smoothing",
			"GET",
			"/users/{user}/sections/{section}/smoothing",
			s.getSmoothing,
		},
		Route{
			"SectionGeoJSON",
			"GET",
			"/users/{user}/sections/{section}/geojson",
			s.getSectionGeoJSON,
		},
		Route{
			"TourModel",
			"GET",
			"/users/{user}/tourmodel",
			s.getTourModel,
		},
		Route{
			"Places",
			"GET",
			"/users/{user}/places",
			s.getPlaces,
		},
		Route{
			"Run",
			"POST",
			"/users/{user}/run",
			s.postRun,
		},
		Route{
			"Socket",
			"GET",
			"/socket",
			s.getSocket,
		},
	}
}
