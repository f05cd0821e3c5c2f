package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"arbflow/internal/core/domain"
	"arbflow/internal/core/port"
	"arbflow/pkg/jsonresponse"
)

type ArbitrageHandler struct {
	Service port.ArbitrageServicePort
	logger  *slog.Logger
}

func NewArbitrageHandler(logger *slog.Logger, service port.ArbitrageServicePort) *ArbitrageHandler {
	return &ArbitrageHandler{
		Service: service,
		logger:  logger,
	}
}

func (h *ArbitrageHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonresponse.WriteResponse(w, http.StatusOK, h.Service.Health(r.Context()))
}

// GetLatestRate serves GET /rates/latest/{pair} where pair looks like
// "USD-JPY" (order does not matter).
func (h *ArbitrageHandler) GetLatestRate(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("pair")

	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 || !domain.Currency(parts[0]).Valid() || !domain.Currency(parts[1]).Valid() {
		h.logger.Error("invalid pair in request", slog.String("pair", raw))
		jsonresponse.WriteError(w, jsonresponse.WrapError(
			jsonresponse.ErrInvalidInput,
			"Pair must look like USD-JPY",
			http.StatusBadRequest,
		))
		return
	}
	pair := domain.NewPairKey(domain.Currency(parts[0]), domain.Currency(parts[1]))

	quote, err := h.Service.GetLatestRate(r.Context(), pair)
	if err != nil {
		h.logger.Error("failed to get latest rate", slog.Any("error", err))
		jsonresponse.WriteError(w, jsonresponse.WrapError(
			jsonresponse.ErrInternalError,
			"Failed to get latest rate",
			http.StatusInternalServerError,
		))
		return
	}
	if quote == nil {
		jsonresponse.WriteError(w, jsonresponse.WrapError(
			jsonresponse.ErrNotFound,
			"No rate observed for pair "+pair.String(),
			http.StatusNotFound,
		))
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, domain.RateResponse{
		Base:       quote.Base,
		Quote:      quote.Quote,
		Rate:       quote.Rate,
		ObservedAt: quote.ObservedAt,
	})
}

func (h *ArbitrageHandler) GetLatestOpportunity(w http.ResponseWriter, r *http.Request) {
	opp, err := h.Service.GetLatestOpportunity(r.Context())
	if err != nil {
		h.logger.Error("failed to get latest opportunity", slog.Any("error", err))
		jsonresponse.WriteError(w, jsonresponse.WrapError(
			jsonresponse.ErrInternalError,
			"Failed to get latest opportunity",
			http.StatusInternalServerError,
		))
		return
	}
	if opp == nil {
		jsonresponse.WriteError(w, jsonresponse.WrapError(
			jsonresponse.ErrNotFound,
			"No opportunity detected yet",
			http.StatusNotFound,
		))
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, opp)
}

// GetOpportunities serves GET /opportunities?period=15m.
func (h *ArbitrageHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	period := time.Hour
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			h.logger.Error("invalid period in request", slog.String("period", raw))
			jsonresponse.WriteError(w, jsonresponse.WrapError(
				jsonresponse.ErrInvalidInput,
				"Period must be a positive duration like 15m",
				http.StatusBadRequest,
			))
			return
		}
		period = parsed
	}

	opps, err := h.Service.GetOpportunitiesByPeriod(r.Context(), period)
	if err != nil {
		h.logger.Error("failed to get opportunities", slog.Any("error", err))
		jsonresponse.WriteError(w, jsonresponse.WrapError(
			jsonresponse.ErrInternalError,
			"Failed to get opportunities",
			http.StatusInternalServerError,
		))
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, opps)
}
