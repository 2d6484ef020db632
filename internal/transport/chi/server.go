// Package chi exposes the query engine as a read-only HTTP API.
package chi

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
	"github.com/kailas-cloud/bibq/internal/metrics"
	"github.com/kailas-cloud/bibq/internal/render"
	healthuc "github.com/kailas-cloud/bibq/internal/usecase/health"
	queryuc "github.com/kailas-cloud/bibq/internal/usecase/query"
)

// QueryResponse is the JSON body of /v1/query.
type QueryResponse struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Keys    []string   `json:"keys"`
}

// CountResponse is the JSON body of /v1/count.
type CountResponse struct {
	Count int `json:"count"`
}

// ValuesResponse lists names or distinct values.
type ValuesResponse struct {
	Values []string `json:"values"`
}

// PairResponse is one header/value line of /v1/view.
type PairResponse struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Documents int               `json:"documents"`
	Checks    map[string]string `json:"checks"`
}

// Server serves queries over one loaded snapshot.
type Server struct {
	query  *queryuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(query *queryuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{query: query, health: health, logger: logger}
}

// Router mounts the API with the standard middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/query", s.Query)
		r.Get("/count", s.Count)
		r.Get("/fields", s.Fields)
		r.Get("/tags", s.Tags)
		r.Get("/list/{field}", s.List)
		r.Get("/view", s.View)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	return r
}

// Query handles GET /v1/query.
// Parameters: fields (repeatable, comma separated), filter (repeatable), sort, desc, limit, force, format.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domquery.Request{
		Fields:  splitList(q["fields"]),
		Filters: q["filter"],
		Sort:    q.Get("sort"),
		Limit:   q.Get("limit"),
	}
	var err error
	if req.Desc, err = boolParam(q.Get("desc")); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "desc: "+err.Error())
		return
	}
	if req.Force, err = boolParam(q.Get("force")); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "force: "+err.Error())
		return
	}

	res, err := s.query.Query(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	format := q.Get("format")
	if format == "" || format == string(render.FormatJSON) {
		writeJSON(w, http.StatusOK, QueryResponse{Headers: res.Headers, Rows: nonNil(res.Rows), Keys: nonNilStrings(res.Keys)})
		return
	}
	var buf bytes.Buffer
	if err = render.Write(&buf, format, res, render.Options{}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Count handles GET /v1/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	n, err := s.query.Count(r.Context(), r.URL.Query()["filter"])
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Fields handles GET /v1/fields.
func (s *Server) Fields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ValuesResponse{Values: nonNilStrings(s.query.Fields())})
}

// Tags handles GET /v1/tags.
func (s *Server) Tags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ValuesResponse{Values: nonNilStrings(s.query.Tags())})
}

// List handles GET /v1/list/{field}.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	desc, err := boolParam(q.Get("desc"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "desc: "+err.Error())
		return
	}
	limit := 0
	if l := q.Get("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, CodeBadLimit, "limit must be a positive integer")
			return
		}
	}

	values, err := s.query.Distinct(r.Context(), chi.URLParam(r, "field"), q["filter"], desc, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuesResponse{Values: nonNilStrings(values)})
}

// View handles GET /v1/view?field=...&value=...&fields=....
func (s *Server) View(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("field")
	if name == "" || q.Get("value") == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "field and value are required")
		return
	}
	pairs, err := s.query.View(r.Context(), name, q.Get("value"), splitList(q["fields"]))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	out := make([]PairResponse, len(pairs))
	for i, p := range pairs {
		out[i] = PairResponse{Header: p.Header, Value: p.Value}
	}
	writeJSON(w, http.StatusOK, out)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Documents: report.Documents,
		Checks:    checks,
	})
}

// splitList flattens repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v) //nolint:wrapcheck // message is returned to the client as is
}

func contentType(format string) string {
	switch render.Format(format) {
	case render.FormatCSV:
		return "text/csv; charset=utf-8"
	case render.FormatYAML:
		return "application/yaml"
	case render.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func nonNil(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
