package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/agentx-labs/extplan/internal/component"
	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/metrics"
	"github.com/agentx-labs/extplan/internal/plan"
	"github.com/agentx-labs/extplan/internal/repository"
	"github.com/agentx-labs/extplan/internal/resolver"
	"github.com/agentx-labs/extplan/internal/tracing"
)

// Job computes installation plans over a fixed set of collaborators. Runs
// share no mutable state, so one Job may serve concurrent runs.
type Job struct {
	src     resolver.Sources
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Recorder
}

// Option configures a Job.
type Option func(*Job)

// WithLogger sets the logger for the job and its resolvers.
func WithLogger(l *slog.Logger) Option {
	return func(j *Job) {
		j.logger = l
	}
}

// WithTracer sets the tracer used for run and per-request spans.
func WithTracer(t trace.Tracer) Option {
	return func(j *Job) {
		j.tracer = t
	}
}

// WithMetrics sets the recorder for run metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(j *Job) {
		j.metrics = m
	}
}

// New returns a job planning against src.
func New(src resolver.Sources, opts ...Option) *Job {
	j := &Job{src: src}
	for _, opt := range opts {
		opt(j)
	}
	if j.logger == nil {
		j.logger = xlog.Discard()
	}
	if j.tracer == nil {
		j.tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return j
}

// NewFromRegistry looks up the collaborators in reg under the default hint.
func NewFromRegistry(reg *component.Registry, opts ...Option) (*Job, error) {
	var (
		src resolver.Sources
		err error
	)
	if src.Core, err = component.Lookup[repository.CoreRepository](reg, component.RoleCoreRepository, ""); err != nil {
		return nil, fmt.Errorf("looking up core repository: %w", err)
	}
	if src.Installed, err = component.Lookup[repository.LocalRepository](reg, component.RoleLocalRepository, ""); err != nil {
		return nil, fmt.Errorf("looking up installed repository: %w", err)
	}
	if src.Remote, err = component.Lookup[repository.RemoteRepository](reg, component.RoleRemoteRepository, ""); err != nil {
		return nil, fmt.Errorf("looking up remote repository: %w", err)
	}
	if src.Handlers, err = component.Lookup[repository.HandlerRegistry](reg, component.RoleHandlerRegistry, ""); err != nil {
		return nil, fmt.Errorf("looking up handler registry: %w", err)
	}
	return New(src, opts...), nil
}

// Run plans the installation of every request. Any failure aborts the run
// and no partial plan is returned.
func (j *Job) Run(ctx context.Context, requests ...Request) (p *plan.Plan, err error) {
	start := time.Now()
	runID := uuid.NewString()
	runLogger := j.logger.With("run_id", runID)
	logger := xlog.For(runLogger, xlog.CatJob)

	ctx, span := j.tracer.Start(ctx, tracing.SpanPlan, trace.WithAttributes(
		attribute.String(tracing.AttrRunID, runID),
		attribute.Int(tracing.AttrRequestCount, len(requests)),
	))
	defer func() {
		j.finish(span, logger, requests, p, err, time.Since(start))
		span.End()
	}()

	if len(requests) == 0 {
		return nil, &resolver.InstallError{Reason: resolver.ReasonInvalidRequest, Err: errors.New("no extension requested")}
	}

	res := resolver.New(j.src, resolver.WithLogger(runLogger))
	for _, req := range requests {
		if err := res.CheckRoot(req.ID, req.Namespace); err != nil {
			return nil, err
		}
	}

	roots := make([]*plan.Node, 0, len(requests))
	for _, req := range requests {
		node, err := j.resolveRoot(ctx, res, req)
		if err != nil {
			return nil, err
		}
		roots = append(roots, node)
	}

	return plan.Assemble(roots), nil
}

func (j *Job) resolveRoot(ctx context.Context, res *resolver.Resolver, req Request) (*plan.Node, error) {
	ctx, span := j.tracer.Start(ctx, tracing.SpanResolve, trace.WithAttributes(
		attribute.String(tracing.AttrExtensionID, req.ID),
		attribute.String(tracing.AttrConstraint, req.Constraint.String()),
		attribute.String(tracing.AttrNamespace, req.Namespace),
	))
	defer span.End()

	node, err := res.ResolveRoot(ctx, req.ID, req.Constraint, req.Namespace)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return node, nil
}

func (j *Job) finish(span trace.Span, logger *slog.Logger, requests []Request, p *plan.Plan, err error, elapsed time.Duration) {
	if err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		reason := "error"
		var ie *resolver.InstallError
		if errors.As(err, &ie) {
			reason = ie.Reason.String()
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		j.metrics.ObserveRun(outcome, elapsed)
		j.metrics.ObserveFailure(reason)
		logger.Warn("planning failed", "requests", requestList(requests), "reason", reason, "error", err, "duration", elapsed)
		return
	}

	actions := p.Actions()
	for t, n := range plan.Counts(p) {
		j.metrics.AddActions(strings.ToLower(t.String()), n)
	}
	span.SetAttributes(attribute.Int(tracing.AttrActionCount, len(actions)))
	span.SetStatus(codes.Ok, "")
	j.metrics.ObserveRun(metrics.OutcomeSuccess, elapsed)
	logger.Info("plan computed", "requests", requestList(requests), "actions", len(actions), "duration", elapsed)
}

func requestList(requests []Request) string {
	parts := make([]string, 0, len(requests))
	for _, r := range requests {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ", ")
}
