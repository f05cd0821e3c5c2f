package http

import (
	"log/slog"
	"net/http"

	"arbflow/internal/adapters/handlers/http/handler"
	"arbflow/internal/core/port"
)

func NewServer(logger *slog.Logger, service port.ArbitrageServicePort) http.Handler {
	mux := http.NewServeMux()
	addRoutes(mux, handler.NewArbitrageHandler(logger, service))

	var h http.Handler = mux

	return h
}
