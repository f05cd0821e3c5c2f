package http

import (
	"net/http"

	"arbflow/internal/adapters/handlers/http/handler"
)

func addRoutes(mux *http.ServeMux, arbHandler *handler.ArbitrageHandler) {
	mux.HandleFunc("GET /healthz", arbHandler.Health)
	mux.HandleFunc("GET /rates/latest/{pair}", arbHandler.GetLatestRate)
	mux.HandleFunc("GET /opportunities/latest", arbHandler.GetLatestOpportunity)
	mux.HandleFunc("GET /opportunities", arbHandler.GetOpportunities)
}
