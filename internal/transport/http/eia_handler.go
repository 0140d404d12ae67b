package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"energypolicy/internal/config"
	"energypolicy/internal/eia"
	apierrors "energypolicy/internal/errors"
)

// EIAHandler proxies GET requests to the upstream statistics API. Its
// failures use a flat {"error": message} body rather than problem documents.
type EIAHandler struct {
	client       EIAClientInterface
	cacheControl string
	logger       *slog.Logger
}

// NewEIAHandler creates the proxy handler
func NewEIAHandler(client EIAClientInterface, cfg config.EIAConfig, logger *slog.Logger) *EIAHandler {
	return &EIAHandler{
		client:       client,
		cacheControl: eia.CacheControl(cfg.CacheMaxAge, cfg.StaleWhileRevalidate),
		logger:       logger.With(slog.String("handler", "eia")),
	}
}

type eiaError struct {
	Error string `json:"error"`
}

// ServeHTTP handles GET /api/eia
func (h *EIAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := eia.ParseQuery(r.URL.RawQuery)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if params.Route == "" {
		h.fail(w, r, http.StatusBadRequest, "Missing required parameter: route")
		return
	}
	if !h.client.Configured() {
		h.logger.ErrorContext(ctx, "EIA proxy called without an API key")
		h.fail(w, r, http.StatusInternalServerError, eia.ErrMissingAPIKey.Error())
		return
	}

	body, err := h.client.Fetch(ctx, params)
	if err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			h.fail(w, r, http.StatusBadRequest, "Invalid parameter: "+verrs[0].Field())
		case errors.Is(err, eia.ErrMissingAPIKey):
			h.fail(w, r, http.StatusInternalServerError, err.Error())
		default:
			h.fail(w, r, http.StatusBadGateway, upstreamMessage(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", h.cacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.WarnContext(ctx, "EIA response write failed", slog.String("error", err.Error()))
	}
}

func (h *EIAHandler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, eiaError{Error: msg})
}

// upstreamMessage drops the classification prefix from network failures
func upstreamMessage(err error) string {
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apierrors.ErrTypeNetwork && appErr.Cause != nil {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return err.Error()
}
