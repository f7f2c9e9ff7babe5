package serving

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aqipipe/internal/types"
)

// maxForecastDays caps the requestable horizon; upstream forecasts do not
// extend further anyway.
const maxForecastDays = 7

// PredictionService defines the service contract for the HTTP handler.
type PredictionService interface {
	PredictLatest(ctx context.Context) (*Prediction, error)
	PredictForecast(ctx context.Context, lat, lon float64, days int) ([]Prediction, error)
}

// Handler maps HTTP requests to PredictionService methods. Requests that omit
// a location fall back to the configured default point.
type Handler struct {
	service     PredictionService
	defaultLat  float64
	defaultLon  float64
	defaultDays int
	logger      *slog.Logger
}

// NewHandler creates an HTTP handler around the prediction service.
func NewHandler(svc PredictionService, defaultLat, defaultLon float64, defaultDays int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:     svc,
		defaultLat:  defaultLat,
		defaultLon:  defaultLon,
		defaultDays: defaultDays,
		logger:      logger,
	}
}

// Router builds the full middleware chain and route table.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recoverer(h.logger))
	r.Use(RequestLogger(h.logger))

	r.Get("/healthz", h.HandleHealth)
	r.Route("/v1/predict", func(r chi.Router) {
		r.Post("/latest", h.HandlePredictLatest)
		r.Post("/forecast", h.HandlePredictForecast)
	})
	return r
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// HandlePredictLatest handles POST /v1/predict/latest. It runs the current
// model against the most recent stored observation.
func (h *Handler) HandlePredictLatest(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.PredictLatest(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: p})
}

// HandlePredictForecast handles POST /v1/predict/forecast. Optional query
// parameters: days (1..7), lat, lon. Omitted parameters fall back to the
// configured defaults.
func (h *Handler) HandlePredictForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	days := h.defaultDays
	if raw := q.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxForecastDays {
			Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidInput,
				"days must be an integer between 1 and 7",
				nil,
			))
			return
		}
		days = parsed
	}

	lat, ok := h.floatParam(w, r, "lat", h.defaultLat)
	if !ok {
		return
	}
	lon, ok := h.floatParam(w, r, "lon", h.defaultLon)
	if !ok {
		return
	}

	predictions, err := h.service.PredictForecast(r.Context(), lat, lon, days)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: predictions})
}

// floatParam parses an optional float query parameter, writing a validation
// error and returning ok=false when the value is present but malformed.
func (h *Handler) floatParam(w http.ResponseWriter, r *http.Request, name string, def float64) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidInput,
			name+" must be a valid number",
			nil,
		))
		return 0, false
	}
	return v, true
}
