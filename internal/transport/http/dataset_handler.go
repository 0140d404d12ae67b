package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"energypolicy/internal/datasets"
	apierrors "energypolicy/internal/errors"
	"energypolicy/internal/exporter"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/services"
)

// DatasetHandler serves dataset listings, envelopes, tables and downloads
type DatasetHandler struct {
	datasets     DatasetServiceInterface
	exports      ExportServiceInterface
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a dataset handler. metrics may be nil.
func NewDatasetHandler(ds DatasetServiceInterface, exports ExportServiceInterface, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		datasets:     ds,
		exports:      exports,
		metrics:      metrics,
		logger:       logger.With(slog.String("handler", "datasets")),
		errorHandler: errorHandler,
	}
}

// Routes returns the routes mounted at /api/datasets
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDatasets)
	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.GetDataset)
		r.Get("/table", h.GetTable)
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/export.xlsx", h.ExportXLSX)
	})

	return r
}

// DatasetCtx rejects ids that are malformed or outside the catalogue
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := exporter.SanitizeIdentifier(id); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "invalid dataset identifier"))
			return
		}
		if _, ok := datasets.Lookup(id); !ok {
			h.errorHandler.HandleError(w, r, apierrors.DatasetNotFound(id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListCategories handles GET /api/categories
func (h *DatasetHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.datasets.Categories(r.Context()))
}

// ListDatasets handles GET /api/datasets?category=
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := h.datasets.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, ""))
		return
	}
	render.JSON(w, r, list)
}

// GetDataset handles GET /api/datasets/{id}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	env, err := h.datasets.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, id))
		return
	}
	render.JSON(w, r, env)
}

// GetTable handles GET /api/datasets/{id}/table?from=&to=&sort=&share=&normalize=&baseCpi=
func (h *DatasetHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, err := tableQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	view, err := h.datasets.Table(r.Context(), id, q)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, id))
		return
	}
	render.JSON(w, r, view)
}

// ExportCSV handles GET /api/datasets/{id}/export.csv
func (h *DatasetHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	doc, rows, err := h.exports.CSV(ctx, id)
	if err != nil {
		h.metrics.RecordExport(ctx, id, string(exporter.FormatCSV), 0, 0, err)
		h.errorHandler.HandleError(w, r, serviceError(err, id))
		return
	}

	err = exporter.WriteCSVResponse(w, id, doc)
	h.metrics.RecordExport(ctx, id, string(exporter.FormatCSV), rows, len(doc), err)
	if err != nil {
		h.logger.WarnContext(ctx, "CSV download interrupted",
			slog.String("dataset", id),
			slog.String("error", err.Error()))
	}
}

// ExportXLSX handles GET /api/datasets/{id}/export.xlsx
func (h *DatasetHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	f, rows, err := h.exports.Workbook(ctx, id)
	if err != nil {
		h.metrics.RecordExport(ctx, id, string(exporter.FormatXLSX), 0, 0, err)
		h.errorHandler.HandleError(w, r, serviceError(err, id))
		return
	}
	defer f.Close()

	n, err := exporter.WriteXLSXResponse(w, id, f)
	h.metrics.RecordExport(ctx, id, string(exporter.FormatXLSX), rows, int(n), err)
	if err != nil {
		h.logger.WarnContext(ctx, "XLSX download interrupted",
			slog.String("dataset", id),
			slog.String("error", err.Error()))
	}
}

func tableQuery(r *http.Request) (services.TableQuery, error) {
	v := r.URL.Query()
	q := services.TableQuery{
		SortBy:  v.Get("sort"),
		ShareOf: v.Get("share"),
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"from", &q.From}, {"to", &q.To}} {
		if raw := v.Get(p.name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return q, apierrors.ErrValidation(p.name, "must be a year")
			}
			*p.dst = n
		}
	}
	if raw := v.Get("normalize"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apierrors.ErrValidation("normalize", "must be a boolean")
		}
		q.Normalize = b
	}
	if raw := v.Get("baseCpi"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return q, apierrors.ErrValidation("baseCpi", "must be a positive number")
		}
		q.BaseCPI = f
	}
	return q, nil
}
