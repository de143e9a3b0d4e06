// internal/api/http/handler.go
package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"job-board/internal/domain"
	"job-board/internal/metrics"
	"job-board/internal/render"
	"job-board/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// LiveLimits caps inbound frames per live socket.
type LiveLimits struct {
	Rate  rate.Limit
	Burst int
}

// DefaultLiveLimits allows a fast typist without letting a client flood
// the session.
var DefaultLiveLimits = LiveLimits{Rate: 20, Burst: 40}

// Handler serves the job board API.
type Handler struct {
	catalog      *usecase.CatalogService
	listings     *usecase.ListingService
	applications *usecase.ApplicationService
	contact      *usecase.ContactService
	live         LiveLimits
	logger       *slog.Logger
	validate     *validator.Validate
	tracer       trace.Tracer
}

func NewHandler(
	catalog *usecase.CatalogService,
	listings *usecase.ListingService,
	applications *usecase.ApplicationService,
	contact *usecase.ContactService,
	live LiveLimits,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		catalog:      catalog,
		listings:     listings,
		applications: applications,
		contact:      contact,
		live:         live,
		logger:       logger.With("component", "http-handler"),
		validate:     newValidator(),
		tracer:       otel.Tracer("job-board-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Hijack hands the connection to the websocket upgrader.
func (w *instrumentedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (w *instrumentedResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RegisterRoutes registers every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	h.handle(mux, "GET /health", h.handleHealth)
	h.handle(mux, "GET /home", h.handleHome)
	h.handle(mux, "GET /search", h.handleSearch)
	h.handle(mux, "GET /jobs", h.handleListJobs)
	h.handle(mux, "GET /jobs/{id}", h.handleGetJob)
	h.handle(mux, "GET /companies", h.handleListCompanies)
	h.handle(mux, "GET /companies/{name}", h.handleGetCompany)
	h.handle(mux, "POST /sessions", h.handleOpenSession)
	h.handle(mux, "GET /sessions/{id}", h.handleGetSession)
	h.handle(mux, "DELETE /sessions/{id}", h.handleCloseSession)
	h.handle(mux, "PUT /sessions/{id}/filters", h.handleApplyFilters)
	h.handle(mux, "PUT /sessions/{id}/sort", h.handleChangeSort)
	h.handle(mux, "PUT /sessions/{id}/page", h.handleChangePage)
	h.handle(mux, "GET /sessions/{id}/live", h.handleLive)
	h.handle(mux, "POST /sessions/{id}/applications", h.handleApply)
	h.handle(mux, "GET /sessions/{id}/applications", h.handleListApplications)
	h.handle(mux, "POST /contact", h.handleContact)
}

// handle wraps fn with a span and the request counter, labelled by the
// route pattern.
func (h *Handler) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "HTTP "+pattern, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		r = r.WithContext(ctx)

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		fn.ServeHTTP(iw, r)

		metrics.HttpRequestsTotal.WithLabelValues(pattern, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto status codes. A missing feed
// answers with the load error state so clients can offer a retry.
func (h *Handler) writeServiceError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	switch {
	case errors.Is(err, domain.ErrFeedUnavailable):
		span.SetStatus(codes.Error, "feed unavailable")
		writeJSON(w, http.StatusServiceUnavailable, render.LoadError())
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrCompanyNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		span.SetStatus(codes.Error, "internal error")
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeValidationError reports validation failures the way the API does
// everywhere: a summary plus one line per field.
func writeValidationError(w http.ResponseWriter, span trace.Span, err error) {
	span.SetStatus(codes.Error, "Validation failed")
	span.RecordError(err)
	var details []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			details = append(details, "Field '"+e.Field()+"' failed on the '"+e.Tag()+"' tag.")
		}
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// CORSMiddleware wraps an http.Handler with permissive CORS headers.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

		// Handle pre-flight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
