package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"energypolicy/internal/config"
	apierrors "energypolicy/internal/errors"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/services"
	"energypolicy/internal/stats"
	ws "energypolicy/internal/websocket"
)

// Count-up stream message types
const (
	MessageStart = "start"
	MessageFrame = "frame"
	MessageError = "error"
)

// StartPayload opens a count-up stream
type StartPayload struct {
	Stat          stats.ParsedStat `json:"stat"`
	DurationMs    int64            `json:"durationMs"`
	ReducedMotion bool             `json:"reducedMotion"`
}

// StatsHandler parses statistic labels and streams their count-ups
type StatsHandler struct {
	service      StatsServiceInterface
	upgrader     *websocket.Upgrader
	writeWait    time.Duration
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewStatsHandler creates a stats handler. metrics may be nil.
func NewStatsHandler(service StatsServiceInterface, wsCfg config.WebSocketConfig, allowedOrigins []string, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *StatsHandler {
	logger = logger.With(slog.String("handler", "stats"))
	h := &StatsHandler{
		service:      service,
		writeWait:    wsCfg.WriteWait,
		metrics:      metrics,
		logger:       logger,
		errorHandler: errorHandler,
	}
	h.upgrader = ws.NewUpgrader(wsCfg, allowedOrigins, logger, func(w http.ResponseWriter, r *http.Request, status int, reason error) {
		upgradeErr := apierrors.ErrWebSocketUpgrade.WithDetails(reason.Error())
		upgradeErr.StatusCode = status
		errorHandler.HandleError(w, r, upgradeErr)
	})
	return h
}

// ParseStat handles GET /api/stats/parse?s=
func (h *StatsHandler) ParseStat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("s") {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter("s"))
		return
	}
	view, err := h.service.Parse(q.Get("s"))
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, ""))
		return
	}
	render.JSON(w, r, view)
}

// CountUp handles GET /ws/count-up?s=&duration=&reducedMotion=. Parameters
// are checked before the upgrade so bad requests get a problem document.
// Closing the socket stops the animation.
func (h *StatsHandler) CountUp(w http.ResponseWriter, r *http.Request) {
	req, err := countUpRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	view, err := h.service.Parse(req.Label)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, ""))
		return
	}
	if !view.Numeric {
		h.errorHandler.HandleError(w, r, apierrors.ErrNotNumeric)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	stream := ws.NewStream(r.Context(), ws.NewConnectionWrapper(conn), h.writeWait, h.logger)
	stream.Start()
	defer stream.Close()

	ctx := stream.Context()
	done := h.metrics.StreamStarted(ctx)
	defer done()

	anim, stat, err := h.service.CountUp(ctx, req)
	if err != nil {
		_ = stream.Send(MessageError, map[string]string{"message": err.Error()})
		return
	}

	if err := stream.Send(MessageStart, StartPayload{
		Stat:          stat,
		DurationMs:    anim.Duration().Milliseconds(),
		ReducedMotion: req.ReducedMotion,
	}); err != nil {
		return
	}

	err = anim.Start(func(f stats.Frame) {
		if err := stream.Send(MessageFrame, f); err != nil {
			anim.Stop()
			return
		}
		h.metrics.RecordFrame(ctx, f.Final)
	})
	if err != nil {
		h.logger.DebugContext(ctx, "count-up not started", slog.String("error", err.Error()))
		return
	}
	<-anim.Done()

	h.logger.DebugContext(ctx, "count-up stream finished",
		slog.String("stream_id", stream.ID()),
		slog.String("label", req.Label),
		slog.Bool("cancelled", ctx.Err() != nil))
}

func countUpRequest(r *http.Request) (services.CountUpRequest, error) {
	q := r.URL.Query()
	req := services.CountUpRequest{Label: q.Get("s")}
	if req.Label == "" {
		return req, apierrors.MissingParameter("s")
	}

	if raw := q.Get("duration"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			return req, apierrors.ErrValidation("duration", "must be a non-negative integer number of milliseconds")
		}
		d := time.Duration(ms) * time.Millisecond
		req.Duration = &d
	}

	if raw := q.Get("reducedMotion"); raw != "" {
		reduced, err := strconv.ParseBool(raw)
		if err != nil {
			return req, apierrors.ErrValidation("reducedMotion", "must be a boolean")
		}
		req.ReducedMotion = reduced
	}
	return req, nil
}
