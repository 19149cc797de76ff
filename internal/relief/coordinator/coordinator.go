// Package coordinator turns one entity request into exactly one response
// envelope. It owns create retries and the mapping from failures to statuses.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"relief/internal/platform/database"
	"relief/internal/platform/metrics"
	"relief/internal/relief/entity"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
	"relief/pkg/requestcontext"
)

// Repository is the per-kind store the coordinator dispatches to.
type Repository interface {
	List(ctx context.Context) ([]entity.Record, error)
	Get(ctx context.Context, id int64) (entity.Record, error)
	Create(ctx context.Context, fields map[string]any) (int64, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// Op is the operation requested on an entity.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Request is one operation on one entity kind. ID is ignored by list and create.
type Request struct {
	Kind   entity.Kind
	Op     Op
	ID     int64
	Fields map[string]any
}

const defaultCreateAttempts = 3

// Coordinator dispatches requests to repositories.
type Coordinator struct {
	repos          map[entity.Kind]Repository
	createAttempts int
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithCreateAttempts bounds how often a create is tried after retryable conflicts.
func WithCreateAttempts(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.createAttempts = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// New builds a coordinator over repos.
func New(repos map[entity.Kind]Repository, opts ...Option) (*Coordinator, error) {
	if len(repos) == 0 {
		return nil, errors.New("coordinator: at least one repository is required")
	}
	for kind, repo := range repos {
		if repo == nil {
			return nil, fmt.Errorf("coordinator: nil repository for %s", kind)
		}
		if _, err := entity.Describe(kind); err != nil {
			return nil, err
		}
	}
	c := &Coordinator{
		repos:          repos,
		createAttempts: defaultCreateAttempts,
		logger:         slog.Default(),
		tracer:         otel.Tracer("relief/coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Handle runs req and always returns a response; failures are encoded in it.
func (c *Coordinator) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "relief."+string(req.Op),
		trace.WithAttributes(
			attribute.String("relief.entity", string(req.Kind)),
			attribute.Int64("relief.id", req.ID),
		))
	defer span.End()

	resp, err := c.dispatch(ctx, req)
	outcome := "ok"
	if err != nil {
		resp = c.failure(ctx, req, err)
		outcome = string(codeOf(err))
		span.SetStatus(codes.Error, outcome)
		if resp.Status >= http.StatusInternalServerError {
			span.RecordError(err)
		}
	}
	c.metrics.ObserveOperation(string(req.Kind), string(req.Op), outcome, time.Since(start))
	return resp
}

func (c *Coordinator) dispatch(ctx context.Context, req Request) (Response, error) {
	desc, err := entity.Describe(req.Kind)
	if err != nil {
		return Response{}, dErrors.New(dErrors.CodeNotFound, "Resource not found")
	}
	repo, ok := c.repos[req.Kind]
	if !ok {
		return Response{}, dErrors.New(dErrors.CodeNotFound, "Resource not found")
	}

	switch req.Op {
	case OpList:
		recs, err := repo.List(ctx)
		if err != nil {
			return Response{}, err
		}
		return ok200(Envelope{Success: true, Data: recs}), nil

	case OpGet:
		rec, err := repo.Get(ctx, req.ID)
		if err != nil {
			return Response{}, err
		}
		return ok200(Envelope{Success: true, Data: rec}), nil

	case OpCreate:
		id, err := c.create(ctx, repo, req)
		if err != nil {
			return Response{}, err
		}
		c.logger.InfoContext(ctx, "entity created",
			"entity", req.Kind,
			"id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
		return Response{
			Status:   http.StatusCreated,
			Envelope: Envelope{Success: true, Message: desc.AddedMessage(), Key: desc.Key, ID: id},
		}, nil

	case OpUpdate:
		if err := repo.Update(ctx, req.ID, req.Fields); err != nil {
			return Response{}, err
		}
		return ok200(Envelope{Success: true, Message: desc.UpdatedMessage()}), nil

	case OpDelete:
		if err := repo.Delete(ctx, req.ID); err != nil {
			return Response{}, err
		}
		c.logger.InfoContext(ctx, "entity deleted",
			"entity", req.Kind,
			"id", req.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return ok200(Envelope{Success: true, Message: desc.DeletedMessage()}), nil
	}
	return Response{}, dErrors.New(dErrors.CodeMethodNotAllowed, "Method not allowed")
}

// create retries only failures the store marks retryable; every attempt is its
// own transaction, so nothing from a failed attempt is visible.
func (c *Coordinator) create(ctx context.Context, repo Repository, req Request) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= c.createAttempts; attempt++ {
		id, err := repo.Create(ctx, req.Fields)
		if err == nil {
			return id, nil
		}
		if !database.IsRetryable(err) {
			return 0, err
		}
		lastErr = err
		if attempt < c.createAttempts {
			c.metrics.IncrementCreateRetries(string(req.Kind))
			c.logger.WarnContext(ctx, "retrying create after store conflict",
				"entity", req.Kind,
				"attempt", attempt,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return 0, lastErr
}

// failure builds the error envelope. Store-native text is logged here and
// never returned.
func (c *Coordinator) failure(ctx context.Context, req Request, err error) Response {
	coded := classify(err)
	status := dErrors.ToHTTPStatus(coded.Code)
	attrs := []any{
		"entity", req.Kind,
		"operation", req.Op,
		"id", req.ID,
		"code", coded.Code,
		"request_id", requestcontext.RequestID(ctx),
	}
	switch {
	case coded.Code == dErrors.CodeStoreConflict:
		c.logger.WarnContext(ctx, "entity operation conflicted", append(attrs, "error", err)...)
	case status >= http.StatusInternalServerError:
		c.logger.ErrorContext(ctx, "entity operation failed", append(attrs, "error", err)...)
	default:
		c.logger.DebugContext(ctx, "entity operation rejected", attrs...)
	}
	return Response{
		Status:   status,
		Envelope: Envelope{Success: false, Message: dErrors.PublicMessage(coded)},
	}
}

// classify gives every failure a code. Domain errors keep theirs; store
// failures are coded by sentinel with the store's category message.
func classify(err error) *dErrors.Error {
	if de, ok := dErrors.From(err); ok {
		return de
	}
	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.Wrap(err, dErrors.CodeStoreConflict, dbErr.Message)
		case errors.Is(err, sentinel.ErrUnavailable):
			return dErrors.Wrap(err, dErrors.CodeUnavailable, dbErr.Message)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, database.MsgUnavailable)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "Internal server error")
}

func codeOf(err error) dErrors.Code {
	return classify(err).Code
}

func ok200(e Envelope) Response {
	return Response{Status: http.StatusOK, Envelope: e}
}
