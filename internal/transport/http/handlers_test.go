package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"energypolicy/internal/charts"
	"energypolicy/internal/config"
	"energypolicy/internal/datasets"
	"energypolicy/internal/eia"
	apierrors "energypolicy/internal/errors"
	"energypolicy/internal/services"
	"energypolicy/internal/tabular"
)

type problem struct {
	Type      string `json:"type"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code"`
	Details   any    `json:"details"`
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problem {
	t.Helper()
	var p problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p), rec.Body.String())
	return p
}

func newDatasetRouter(ds *MockDatasetService, ex *MockExportService) http.Handler {
	h := NewDatasetHandler(ds, ex, nil, testLogger(), testErrorHandler())
	r := chi.NewRouter()
	r.Get("/api/categories", h.ListCategories)
	r.Mount("/api/datasets", h.Routes())
	return r
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus int
	}{
		{"healthy", services.StatusHealthy, http.StatusOK},
		{"degraded", services.StatusDegraded, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockHealthService)
			svc.On("HealthCheck", mock.Anything).Return(services.HealthStatus{Status: tt.status, Version: "1.0.0"})

			h := NewHealthHandler(svc, testLogger())
			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			svc.AssertExpectations(t)
		})
	}
}

func TestHealthHandler_LiveAndVersion(t *testing.T) {
	svc := new(MockHealthService)
	svc.On("LivenessCheck", mock.Anything).Return(services.HealthStatus{Status: services.StatusAlive})
	svc.On("Version").Return(services.VersionInfo{Version: "1.0.0", GoVersion: "go1.24"})
	h := NewHealthHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive"`)

	rec = httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.JSONEq(t, `{"version":"1.0.0","go_version":"go1.24","os":"","arch":""}`, rec.Body.String())
}

func TestDatasetHandler_Categories(t *testing.T) {
	ds := new(MockDatasetService)
	ds.On("Categories", mock.Anything).Return([]services.CategoryInfo{
		{Category: datasets.Category{Slug: "land-use", Title: "Land Use Impacts"}, Datasets: []string{"power-density"}, Available: 1},
	})

	rec := serve(newDatasetRouter(ds, nil), "/api/categories")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"land-use"`)
	assert.Contains(t, rec.Body.String(), `"available":1`)
}

func TestDatasetHandler_List(t *testing.T) {
	ds := new(MockDatasetService)
	ds.On("List", mock.Anything, "land-use").Return([]datasets.Summary{{ID: "power-density", Category: "land-use", Records: 3}}, nil)
	ds.On("List", mock.Anything, "nope").Return(nil, fmt.Errorf("%w: nope", services.ErrCategoryNotFound))
	router := newDatasetRouter(ds, nil)

	rec := serve(router, "/api/datasets?category=land-use")
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []datasets.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "power-density", list[0].ID)

	rec = serve(router, "/api/datasets?category=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeProblem(t, rec).ErrorCode)
}

func TestDatasetHandler_Get(t *testing.T) {
	ds := new(MockDatasetService)
	env := &datasets.Envelope{
		ID:    "lcoe",
		Title: "Levelized Cost of Electricity",
		Units: map[string]string{"cost": "$/MWh"},
		Data:  []tabular.Value{tabular.Obj(tabular.F("year", tabular.Number(2023)), tabular.F("cost", tabular.Number(60.5)))},
	}
	ds.On("Get", mock.Anything, "lcoe").Return(env, nil)
	ds.On("Get", mock.Anything, "demand-growth").Return(nil, fmt.Errorf("%w: demand-growth", services.ErrDatasetNotFound))
	ds.On("Get", mock.Anything, "co2-emissions").Return(nil, fmt.Errorf("decode: %w", datasets.ErrInvalidEnvelope))
	router := newDatasetRouter(ds, nil)

	rec := serve(router, "/api/datasets/lcoe")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[{"year":2023,"cost":60.5}]`)

	rec = serve(router, "/api/datasets/demand-growth")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "DATASET_NOT_FOUND", p.ErrorCode)
	assert.Equal(t, `dataset "demand-growth" not found`, p.Detail)

	rec = serve(router, "/api/datasets/co2-emissions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p = decodeProblem(t, rec)
	assert.Equal(t, "DATA_CORRUPTED", p.ErrorCode)
	assert.Equal(t, "co2-emissions", p.Details)
	assert.Nil(t, apierrors.ErrDataCorrupted.Details)
}

func TestDatasetHandler_DatasetCtx(t *testing.T) {
	ds := new(MockDatasetService)
	router := newDatasetRouter(ds, nil)

	rec := serve(router, "/api/datasets/not-in-catalogue")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, "/api/datasets/a..b")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ds.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestDatasetHandler_Table(t *testing.T) {
	ds := new(MockDatasetService)
	ds.On("Table", mock.Anything, "lcoe", services.TableQuery{}).Return(&services.TableView{
		ID:        "lcoe",
		AriaLabel: "Chart: LCOE.",
		Summary:   "LCOE. Key findings: cost in 2023: $61/MWh.",
		Table:     charts.DataTable{Caption: "LCOE", Headers: []string{"year"}, Rows: [][]string{{"2023"}}},
	}, nil)
	ds.On("Table", mock.Anything, "lcoe", services.TableQuery{
		From: 2015, To: 2023, SortBy: "cost", ShareOf: "cost", Normalize: true, BaseCPI: 300.5,
	}).Return(&services.TableView{ID: "lcoe"}, nil)
	ds.On("Table", mock.Anything, "lcoe", services.TableQuery{From: 2030, To: 2020}).
		Return(nil, fmt.Errorf("%w: from 2030 is after to 2020", services.ErrInvalidTableQuery))
	router := newDatasetRouter(ds, nil)

	rec := serve(router, "/api/datasets/lcoe/table")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ariaLabel":"Chart: LCOE."`)
	assert.Contains(t, rec.Body.String(), `"summary":"LCOE. Key findings: cost in 2023: $61/MWh."`)
	assert.Contains(t, rec.Body.String(), `"rows":[["2023"]]`)

	rec = serve(router, "/api/datasets/lcoe/table?from=2015&to=2023&sort=cost&share=cost&normalize=true&baseCpi=300.5")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, "/api/datasets/lcoe/table?from=2030&to=2020")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeProblem(t, rec).ErrorCode)

	for _, query := range []string{"from=soon", "to=2020.5", "normalize=maybe", "baseCpi=0", "baseCpi=abc"} {
		rec = serve(router, "/api/datasets/lcoe/table?"+query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
	ds.AssertExpectations(t)
}

func TestDatasetHandler_ExportCSV(t *testing.T) {
	ex := new(MockExportService)
	ex.On("CSV", mock.Anything, "lcoe").Return("year,cost\n2023,60.5", 1, nil)
	ex.On("CSV", mock.Anything, "demand-growth").Return("", 0, services.ErrDatasetNotFound)
	router := newDatasetRouter(new(MockDatasetService), ex)

	rec := serve(router, "/api/datasets/lcoe/export.csv")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv;charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lcoe.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "year,cost\n2023,60.5", rec.Body.String())

	rec = serve(router, "/api/datasets/demand-growth/export.csv")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatasetHandler_ExportXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "year"))

	ex := new(MockExportService)
	ex.On("Workbook", mock.Anything, "lcoe").Return(f, 1, nil)
	ex.On("Workbook", mock.Anything, "demand-growth").Return(nil, 0, errors.New("disk on fire"))
	router := newDatasetRouter(new(MockDatasetService), ex)

	rec := serve(router, "/api/datasets/lcoe/export.xlsx")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="lcoe.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", rec.Body.String()[:2])

	rec = serve(router, "/api/datasets/demand-growth/export.xlsx")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatsHandler_ParseStat(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("Parse", "$1.5B").Return(services.StatView{Numeric: true, Prefix: "$", Number: 1.5, FractionalDigits: 1, Suffix: "B", Display: "$1.5B"}, nil)
	svc.On("Parse", "").Return(services.StatView{}, services.ErrEmptyLabel)
	h := NewStatsHandler(svc, config.WebSocketConfig{}, nil, nil, testLogger(), testErrorHandler())

	rec := serve(http.HandlerFunc(h.ParseStat), "/api/stats/parse?s=%241.5B")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"numeric":true,"prefix":"$","number":1.5,"fractionalDigits":1,"suffix":"B","display":"$1.5B"}`, rec.Body.String())

	rec = serve(http.HandlerFunc(h.ParseStat), "/api/stats/parse")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_PARAMETER", decodeProblem(t, rec).ErrorCode)

	rec = serve(http.HandlerFunc(h.ParseStat), "/api/stats/parse?s=")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCountUpRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    services.CountUpRequest
		wantErr bool
	}{
		{name: "label only", query: "s=42%25", want: services.CountUpRequest{Label: "42%"}},
		{name: "reduced motion", query: "s=42&reducedMotion=true", want: services.CountUpRequest{Label: "42", ReducedMotion: true}},
		{name: "missing label", query: "duration=10", wantErr: true},
		{name: "bad duration", query: "s=42&duration=fast", wantErr: true},
		{name: "negative duration", query: "s=42&duration=-5", wantErr: true},
		{name: "bad flag", query: "s=42&reducedMotion=maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := countUpRequest(httptest.NewRequest(http.MethodGet, "/ws/count-up?"+tt.query, nil))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := countUpRequest(httptest.NewRequest(http.MethodGet, "/ws/count-up?s=1&duration=250", nil))
	require.NoError(t, err)
	require.NotNil(t, got.Duration)
	assert.Equal(t, int64(250), got.Duration.Milliseconds())
}

func TestStatsHandler_CountUpRejectsBeforeUpgrade(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("Parse", "N/A").Return(services.StatView{Display: "N/A"}, nil)
	h := NewStatsHandler(svc, config.WebSocketConfig{}, nil, nil, testLogger(), testErrorHandler())

	rec := serve(http.HandlerFunc(h.CountUp), "/ws/count-up?s=N%2FA")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "NOT_NUMERIC", decodeProblem(t, rec).ErrorCode)

	rec = serve(http.HandlerFunc(h.CountUp), "/ws/count-up")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "CountUp", mock.Anything, mock.Anything)
}

func TestStatsHandler_CountUpNotWebSocket(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("Parse", "42").Return(services.StatView{Numeric: true, Number: 42, Display: "42"}, nil)
	h := NewStatsHandler(svc, config.WebSocketConfig{}, nil, nil, testLogger(), testErrorHandler())

	rec := serve(http.HandlerFunc(h.CountUp), "/ws/count-up?s=42")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "WEBSOCKET_UPGRADE_FAILED", p.ErrorCode)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, http.StatusInternalServerError, apierrors.ErrWebSocketUpgrade.StatusCode)
}

func TestEIAHandler(t *testing.T) {
	cfg := config.Default().EIA
	body := json.RawMessage(`{"response":{"data":[{"period":"2024","value":1}]}}`)

	tests := []struct {
		name       string
		query      string
		setup      func(c *MockEIAClient)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing route",
			query:      "frequency=annual",
			setup:      func(c *MockEIAClient) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Missing required parameter: route"}`,
		},
		{
			name:       "no key",
			query:      "route=electricity/retail-sales/data",
			setup:      func(c *MockEIAClient) { c.On("Configured").Return(false) },
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"EIA API key not configured"}`,
		},
		{
			name:  "upstream failure",
			query: "route=electricity/retail-sales/data",
			setup: func(c *MockEIAClient) {
				c.On("Configured").Return(true)
				c.On("Fetch", mock.Anything, mock.Anything).Return(nil, &eia.UpstreamError{Status: 503, StatusText: "Service Unavailable"})
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"EIA API error: 503 Service Unavailable"}`,
		},
		{
			name:  "invalid parameter",
			query: "route=electricity/retail-sales/data&length=-1",
			setup: func(c *MockEIAClient) {
				c.On("Configured").Return(true)
				c.On("Fetch", mock.Anything, mock.Anything).Return(nil, eia.Params{Route: "x", Length: -1}.Validate())
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid parameter: length"}`,
		},
		{
			name:  "network failure",
			query: "route=electricity/retail-sales/data",
			setup: func(c *MockEIAClient) {
				c.On("Configured").Return(true)
				c.On("Fetch", mock.Anything, mock.Anything).
					Return(nil, apierrors.NewNetworkError("EIA request failed", errors.New("connection refused")))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"EIA request failed: connection refused"}`,
		},
		{
			name:  "unparseable length is dropped",
			query: "route=electricity/retail-sales/data&length=ten",
			setup: func(c *MockEIAClient) {
				c.On("Configured").Return(true)
				c.On("Fetch", mock.Anything, mock.MatchedBy(func(p eia.Params) bool { return p.Length == 0 })).Return(body, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   string(body),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockEIAClient)
			tt.setup(client)
			h := NewEIAHandler(client, cfg, testLogger())

			rec := serve(h, "/api/eia?"+tt.query)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
			client.AssertExpectations(t)
		})
	}

	t.Run("success", func(t *testing.T) {
		client := new(MockEIAClient)
		client.On("Configured").Return(true)
		client.On("Fetch", mock.Anything, mock.MatchedBy(func(p eia.Params) bool {
			return p.Route == "electricity/retail-sales/data" &&
				len(p.Facets) == 2 && p.Facets[0].Key == "stateid" && p.Facets[1].Key == "sectorid"
		})).Return(body, nil)
		h := NewEIAHandler(client, cfg, testLogger())

		rec := serve(h, "/api/eia?route=electricity/retail-sales/data&facets[stateid][]=CA&facets[sectorid][]=RES")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, string(body), rec.Body.String())
		assert.Equal(t, "public, s-maxage=86400, stale-while-revalidate=43200", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		client.AssertExpectations(t)
	})
}

func TestMetricsHandler(t *testing.T) {
	rec := serve(NewMetricsHandler(nil, testErrorHandler()), "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	scrape := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# HELP up\n")
	})
	rec = serve(NewMetricsHandler(scrape, testErrorHandler()), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# HELP up\n", rec.Body.String())
}

func TestServiceError(t *testing.T) {
	err := serviceError(context.DeadlineExceeded, "lcoe")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
