package leads

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/lead-intake/internal/http/middleware"
	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// DefaultMaxBodyBytes caps webhook bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// IngestResponse is returned for accepted leads.
type IngestResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
	Message string `json:"message"`
}

// ErrorResponse is returned for every rejection.
type ErrorResponse struct {
	Success    bool       `json:"success"`
	Error      Reason     `json:"error"`
	Message    string     `json:"message"`
	Violations Violations `json:"violations,omitempty"`
}

// HealthResponse reports store reachability and recent volume.
type HealthResponse struct {
	Status      string `json:"status"`
	RecentLeads int    `json:"recent_leads"`
}

// Handler handles HTTP requests for the lead webhook
type Handler struct {
	pipeline     *Pipeline
	store        Store
	metrics      *metrics.IngestionMetrics
	logger       *logging.Logger
	maxBodyBytes int64
	now          func() time.Time
}

// NewHandler creates a new leads handler
func NewHandler(pipeline *Pipeline, store Store, m *metrics.IngestionMetrics, maxBodyBytes int64, logger *logging.Logger) *Handler {
	if pipeline == nil {
		panic("leads: pipeline cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		pipeline:     pipeline,
		store:        store,
		metrics:      m,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		now:          time.Now,
	}
}

// Ingest handles POST /webhooks/leads requests
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, bodyErr := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	req := IncomingRequest{
		Body:      body,
		BodyErr:   bodyErr,
		Origin:    r.Header.Get("Origin"),
		APIKey:    r.Header.Get("X-API-Key"),
		Signature: r.Header.Get("X-Signature"),
		Timestamp: r.Header.Get("X-Timestamp"),
		ClientIP:  middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	res, rej := h.pipeline.Ingest(r.Context(), req)

	// Browsers may read the response only once both access decisions passed.
	if allowsCORS(rej) {
		middleware.SetCORSHeaders(w, req.Origin)
	}

	if rej != nil {
		h.metrics.ObserveOutcome("rejected", string(rej.Reason))
		h.metrics.ObserveDuration("rejected", time.Since(start).Seconds())
		writeJSON(w, rej.Status, ErrorResponse{
			Success:    false,
			Error:      rej.Reason,
			Message:    rej.Message,
			Violations: rej.Violations,
		})
		return
	}

	h.metrics.ObserveOutcome("accepted", "")
	h.metrics.ObserveDuration("accepted", time.Since(start).Seconds())
	writeJSON(w, http.StatusCreated, IngestResponse{
		Success: true,
		LeadID:  res.LeadID,
		Message: "lead received",
	})
}

// HealthCheck handles GET /health by counting leads received in the last day.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	leads, err := h.store.Query(r.Context(), Filter{Since: h.now().Add(-24 * time.Hour)})
	if err != nil {
		h.logger.Error("health check query failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", RecentLeads: len(leads)})
}

func allowsCORS(rej *Rejection) bool {
	if rej == nil {
		return true
	}
	return rej.Reason != ReasonOriginNotAllowed && rej.Reason != ReasonInvalidAPIKey
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
