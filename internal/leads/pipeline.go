package leads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/internal/ratelimit"
	"github.com/wolfman30/lead-intake/internal/security"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

var leadsTracer = otel.Tracer("leadintake.internal.leads")

// DefaultStoreTimeout bounds a single store insert.
const DefaultStoreTimeout = 5 * time.Second

// Reason is the machine-readable rejection code returned to callers.
type Reason string

const (
	ReasonOriginNotAllowed Reason = "origin_not_allowed"
	ReasonInvalidAPIKey    Reason = "invalid_api_key"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonUnreadableBody   Reason = "unreadable_body"
	ReasonEmptyBody        Reason = "empty_body"
	ReasonMissingHeaders   Reason = "missing_headers"
	ReasonExpired          Reason = "request_expired"
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonMalformedJSON    Reason = "malformed_json"
	ReasonValidation       Reason = "validation_failed"
	ReasonStorage          Reason = "storage_error"
)

// Rejection is a terminal gate failure.
type Rejection struct {
	Status     int
	Reason     Reason
	Message    string
	Violations Violations
	Err        error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("leads: rejected (%s): %s", r.Reason, r.Message)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(status int, reason Reason, err error) *Rejection {
	return &Rejection{Status: status, Reason: reason, Message: err.Error(), Err: err}
}

// Result describes an accepted lead.
type Result struct {
	LeadID string
	Lead   *StoredLead
}

// PipelineConfig wires the collaborators of a Pipeline.
type PipelineConfig struct {
	Gate         *security.AccessGate
	Limiter      ratelimit.Limiter
	Freshness    *security.FreshnessChecker
	Secret       []byte
	Store        Store
	StoreTimeout time.Duration
	Metrics      *metrics.IngestionMetrics
	Logger       *logging.Logger
}

// Pipeline runs the ordered security and validation gates for one request and
// persists the lead when every gate passes.
type Pipeline struct {
	gate         *security.AccessGate
	limiter      ratelimit.Limiter
	freshness    *security.FreshnessChecker
	secret       []byte
	store        Store
	storeTimeout time.Duration
	metrics      *metrics.IngestionMetrics
	logger       *logging.Logger
	now          func() time.Time
}

// NewPipeline validates cfg and returns a ready pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Gate == nil {
		return nil, errors.New("leads: access gate required")
	}
	if cfg.Store == nil {
		return nil, errors.New("leads: store required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("leads: webhook secret required")
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemory(ratelimit.DefaultPolicy())
	}
	if cfg.Freshness == nil {
		cfg.Freshness = security.NewFreshnessChecker(security.DefaultTolerance)
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Pipeline{
		gate:         cfg.Gate,
		limiter:      cfg.Limiter,
		freshness:    cfg.Freshness,
		secret:       cfg.Secret,
		store:        cfg.Store,
		storeTimeout: cfg.StoreTimeout,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		now:          time.Now,
	}, nil
}

// Ingest evaluates req gate by gate and stops at the first failure. Exactly one
// store insert happens, and only when every gate passed.
func (p *Pipeline) Ingest(ctx context.Context, req IncomingRequest) (*Result, *Rejection) {
	ctx, span := leadsTracer.Start(ctx, "leads.webhook.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("leads.client_ip", req.ClientIP),
		attribute.String("leads.origin", req.Origin),
	)

	res, rej := p.run(ctx, req)
	if rej != nil {
		p.recordRejection(span, req, rej)
		return nil, rej
	}
	span.SetAttributes(attribute.String("leads.lead_id", res.LeadID))
	p.logger.Info("lead accepted", "lead_id", res.LeadID, "client_ip", req.ClientIP, "source", res.Lead.Source)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req IncomingRequest) (*Result, *Rejection) {
	if !p.gate.AllowOrigin(req.Origin) {
		return nil, reject(http.StatusForbidden, ReasonOriginNotAllowed, security.ErrOriginNotAllowed)
	}
	if !p.gate.AllowAPIKey(req.APIKey) {
		return nil, reject(http.StatusUnauthorized, ReasonInvalidAPIKey, security.ErrInvalidAPIKey)
	}
	if !p.limiter.Allow(ctx, req.ClientIP).Allowed {
		return nil, reject(http.StatusTooManyRequests, ReasonRateLimited, ErrRateLimited)
	}

	if req.BodyErr != nil {
		return nil, &Rejection{
			Status:  http.StatusBadRequest,
			Reason:  ReasonUnreadableBody,
			Message: ErrUnreadableBody.Error(),
			Err:     fmt.Errorf("%w: %v", ErrUnreadableBody, req.BodyErr),
		}
	}
	if len(req.Body) == 0 {
		return nil, reject(http.StatusBadRequest, ReasonEmptyBody, ErrEmptyBody)
	}

	if strings.TrimSpace(req.Signature) == "" || strings.TrimSpace(req.Timestamp) == "" {
		return nil, reject(http.StatusUnauthorized, ReasonMissingHeaders, security.ErrMissingHeaders)
	}
	ts, err := security.ParseTimestamp(req.Timestamp)
	if err != nil || !p.freshness.IsFresh(ts) {
		return nil, reject(http.StatusUnauthorized, ReasonExpired, security.ErrExpired)
	}
	if !security.Verify(req.Body, req.Signature, p.secret) {
		return nil, reject(http.StatusUnauthorized, ReasonInvalidSignature, security.ErrInvalidSignature)
	}

	raw, err := DecodeObject(req.Body)
	if err != nil {
		return nil, &Rejection{
			Status:  http.StatusBadRequest,
			Reason:  ReasonMalformedJSON,
			Message: ErrMalformedJSON.Error(),
			Err:     err,
		}
	}
	input, violations := Validate(raw)
	if len(violations) > 0 {
		return nil, &Rejection{
			Status:     http.StatusBadRequest,
			Reason:     ReasonValidation,
			Message:    ErrValidation.Error(),
			Violations: violations,
			Err:        violations,
		}
	}

	lead := NewStoredLead(input, req, p.now())
	id, err := p.insert(ctx, lead)
	if err != nil {
		return nil, &Rejection{
			Status:  http.StatusInternalServerError,
			Reason:  ReasonStorage,
			Message: fmt.Sprintf("%s: %v", ErrStorage, err),
			Err:     fmt.Errorf("%w: %w", ErrStorage, err),
		}
	}
	lead.ID = id
	return &Result{LeadID: id, Lead: lead}, nil
}

type insertResult struct {
	id  string
	err error
}

// insert bounds the store call by storeTimeout even when the store ignores its
// context. A write that finishes after the deadline is never reported committed.
func (p *Pipeline) insert(ctx context.Context, lead *StoredLead) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan insertResult, 1)
	go func() {
		id, err := p.store.Insert(ctx, lead)
		done <- insertResult{id: id, err: err}
	}()

	var res insertResult
	select {
	case res = <-done:
		if res.err == nil && res.id == "" {
			res.err = errors.New("store returned an empty id")
		}
	case <-ctx.Done():
		res = insertResult{err: fmt.Errorf("store insert abandoned: %w", ctx.Err())}
		go p.drainLateInsert(done)
	}
	p.metrics.ObserveStoreLatency(res.err == nil, time.Since(start).Seconds())
	return res.id, res.err
}

func (p *Pipeline) drainLateInsert(done <-chan insertResult) {
	res := <-done
	if res.err != nil {
		return
	}
	p.logger.Warn("store insert completed after deadline; lead was reported as failed", "lead_id", res.id)
}

func (p *Pipeline) recordRejection(span trace.Span, req IncomingRequest, rej *Rejection) {
	span.SetAttributes(attribute.String("leads.reject_reason", string(rej.Reason)))
	span.SetStatus(codes.Error, string(rej.Reason))
	if rej.Status >= http.StatusInternalServerError {
		span.RecordError(rej)
		p.logger.Error("lead rejected", "reason", rej.Reason, "error", rej.Err, "client_ip", req.ClientIP)
		return
	}
	p.logger.Warn("lead rejected",
		"reason", rej.Reason,
		"status", rej.Status,
		"client_ip", req.ClientIP,
		"origin", req.Origin,
		"violations", len(rej.Violations),
	)
}
