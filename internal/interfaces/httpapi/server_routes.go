package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDashboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}", handler.GetLeague)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/dashboard", handler.GetDashboard)
	mux.HandleFunc("GET /v1/teams/logos", handler.ListTeamLogos)
}

func registerOperatorRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/leagues/{leagueID}/refresh/{kind}", handler.Refresh)
	mux.HandleFunc("GET /v1/tracking", handler.ListTrackingJobs)
}
