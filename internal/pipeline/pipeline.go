package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/brand"
	"github.com/papermint/papermint/internal/catalog"
	"github.com/papermint/papermint/internal/clock"
	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/generate"
	"github.com/papermint/papermint/internal/notify"
	obscontext "github.com/papermint/papermint/internal/observability/context"
	"github.com/papermint/papermint/internal/observability/logger"
	"github.com/papermint/papermint/internal/observability/metrics"
	"github.com/papermint/papermint/internal/prompt"
	"github.com/papermint/papermint/internal/render"
	"github.com/papermint/papermint/internal/store"
)

// Event is a payment-confirmed notification after upstream signature
// verification. Inputs are untrusted until sanitized.
type Event struct {
	SessionID     string
	ServiceSlug   string
	Inputs        map[string]string
	CustomerEmail string
	Provider      string
}

// ErrInvalidEvent rejects events before any status is written.
var ErrInvalidEvent = errors.New("invalid payment event")

// Orchestrator runs the full generation pipeline for one session. Exactly
// one run owns a session's status writes.
type Orchestrator struct {
	catalog   *catalog.Holder
	prompts   *prompt.Builder
	generator *generate.Orchestrator
	brands    *brand.Generator
	renderer  *render.Renderer
	statuses  store.StatusStore
	documents store.DocumentStore
	node      *snowflake.Node
	clock     clock.Clock
	budget    config.BudgetConfig
	ttl       time.Duration
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
}

type Params struct {
	fx.In

	Catalog   *catalog.Holder
	Prompts   *prompt.Builder
	Generator *generate.Orchestrator
	Brands    *brand.Generator
	Renderer  *render.Renderer
	Statuses  store.StatusStore
	Documents store.DocumentStore
	Node      *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Notifier  notify.Notifier `optional:"true"`
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

func New(p Params) *Orchestrator {
	return &Orchestrator{
		catalog:   p.Catalog,
		prompts:   p.Prompts,
		generator: p.Generator,
		brands:    p.Brands,
		renderer:  p.Renderer,
		statuses:  p.Statuses,
		documents: p.Documents,
		node:      p.Node,
		clock:     p.Clock,
		budget:    p.Config.Budget,
		ttl:       p.Config.Store.DocumentTTL,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		log:       p.Log,
	}
}

// Handle validates the event, writes processing synchronously, and runs
// the pipeline in a detached goroutine so the caller can acknowledge the
// payment provider immediately.
func (o *Orchestrator) Handle(ctx context.Context, event Event) error {
	def, err := o.validate(event)
	if err != nil {
		return err
	}

	o.metrics.RecordPaymentEvent(ctx, event.Provider, event.ServiceSlug)

	// Redelivery pre-check: any live status means a run already owns the
	// session, whether still processing or finished. Exactly one run may
	// ever write a given session's status.
	if existing, err := o.statuses.Get(ctx, event.SessionID); err == nil {
		logger.WithContext(ctx, o.log).Info("skipping redelivered event for owned session",
			zap.String("session_id", event.SessionID),
			zap.String("state", string(existing.State)),
		)
		return nil
	}

	if err := o.statuses.Put(ctx, store.Status{
		SessionID:   event.SessionID,
		State:       store.StateProcessing,
		ServiceName: def.DisplayName,
	}); err != nil {
		if errors.Is(err, store.ErrTerminal) {
			return nil
		}
		return fmt.Errorf("write processing status: %w", err)
	}

	traceID := uuid.NewString()
	runCtx := obscontext.WithSessionID(context.Background(), event.SessionID)
	runCtx = obscontext.WithRequestID(runCtx, traceID)

	go o.run(runCtx, event, def, traceID)
	return nil
}

func (o *Orchestrator) validate(event Event) (catalog.ServiceDefinition, error) {
	if strings.TrimSpace(event.SessionID) == "" {
		return catalog.ServiceDefinition{}, fmt.Errorf("%w: missing session id", ErrInvalidEvent)
	}

	def, err := o.catalog.Current().Get(event.ServiceSlug)
	if err != nil {
		return catalog.ServiceDefinition{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := o.catalog.Current().ValidateInputs(def, event.Inputs); err != nil {
		return catalog.ServiceDefinition{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return def, nil
}

// run executes the stages under the overall deadline. Every failure is
// converted into a terminal error status; nothing escapes the goroutine.
func (o *Orchestrator) run(ctx context.Context, event Event, def catalog.ServiceDefinition, traceID string) {
	ctx, cancel := context.WithTimeout(ctx, o.budget.OverallDeadline)
	defer cancel()

	log := logger.WithContext(ctx, o.log).With(
		zap.String("session_id", event.SessionID),
		zap.String("service", def.Slug),
	)

	started := o.clock.Now()
	documentID, err := o.execute(ctx, event, def, traceID)
	if err != nil {
		o.fail(ctx, log, event, def, traceID, err)
		return
	}

	if err := o.statuses.Put(ctx, store.Status{
		SessionID:   event.SessionID,
		State:       store.StateReady,
		ServiceName: def.DisplayName,
		DocumentID:  documentID,
	}); err != nil && !errors.Is(err, store.ErrTerminal) {
		log.Error("failed to write ready status", zap.Error(err))
		return
	}

	o.metrics.RecordDocumentRendered(ctx, def.Slug)
	log.Info("document ready",
		zap.String("document_id", documentID),
		zap.Duration("elapsed", o.clock.Now().Sub(started)),
	)

	if o.notifier != nil && event.CustomerEmail != "" {
		if err := o.notifier.DocumentReady(ctx, event.CustomerEmail, def.DisplayName, event.SessionID); err != nil {
			log.Warn("ready notification failed", zap.Error(err))
		}
	}
}

func (o *Orchestrator) execute(ctx context.Context, event Event, def catalog.ServiceDefinition, traceID string) (string, error) {
	built, err := o.prompts.Build(def.Slug, event.Inputs)
	if err != nil {
		return "", &stageError{stage: "prompt", err: err}
	}

	outcome, err := o.generator.Run(ctx, generate.Input{
		ServiceSlug: def.Slug,
		Prompt:      built.Prompt,
		Temperature: built.Temperature,
		Validator:   generate.ValidatorFor(def),
		StrictJSON:  def.OutputMode == catalog.OutputJSON,
	})
	if err != nil {
		return "", &stageError{stage: "generate", err: err}
	}

	// Branding sees the raw organization name: its own blocklist check
	// decides between the real name and the generic fallback, and the
	// raw name is what carries the organization-type signal.
	b := o.brands.Generate(def.Slug, organizationName(event.Inputs))

	pdf, err := o.renderer.Render(def.Slug, outcome.Content, b, built.Inputs)
	if err != nil {
		return "", &stageError{stage: "render", err: err}
	}

	now := o.clock.Now()
	documentID := o.node.Generate().String()
	if err := o.documents.Put(ctx, store.Document{
		Metadata: store.DocumentMetadata{
			DocumentID:  documentID,
			SessionID:   event.SessionID,
			ServiceSlug: def.Slug,
			TraceID:     traceID,
			MimeType:    "application/pdf",
			SizeBytes:   int64(len(pdf)),
			CreatedAt:   now,
			ExpiresAt:   now.Add(o.ttl),
		},
		Bytes: pdf,
	}); err != nil {
		return "", &stageError{stage: "store", err: err}
	}

	return documentID, nil
}

// fail records the terminal error status with a user-safe message. Raw
// detail stays in the logs only.
func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, event Event, def catalog.ServiceDefinition, traceID string, err error) {
	stage := "pipeline"
	var serr *stageError
	if errors.As(err, &serr) {
		stage = serr.stage
	}

	o.metrics.RecordPipelineFailure(ctx, def.Slug, stage)
	log.Error("pipeline failed",
		zap.String("stage", stage),
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	// Terminal status writes must not be cut off by the pipeline
	// deadline that caused the failure.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if perr := o.statuses.Put(writeCtx, store.Status{
		SessionID:   event.SessionID,
		State:       store.StateError,
		ServiceName: def.DisplayName,
		Message:     userMessage(ctx, stage, traceID),
	}); perr != nil && !errors.Is(perr, store.ErrTerminal) {
		log.Error("failed to write error status", zap.Error(perr))
	}
}

func userMessage(ctx context.Context, stage string, traceID string) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("Document generation timed out. Reference %s for support.", traceID)
	}
	switch stage {
	case "prompt":
		return fmt.Sprintf("We could not process the submitted details. Reference %s for support.", traceID)
	case "generate":
		return fmt.Sprintf("Document generation failed after several attempts. Reference %s for support.", traceID)
	default:
		return fmt.Sprintf("Document could not be produced. Reference %s for support.", traceID)
	}
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error { return e.err }

// organizationName pulls whichever organization-role field the service
// carries, for branding.
func organizationName(inputs map[string]string) string {
	for _, key := range []string{"companyName", "employerName", "institutionName", "organizationName"} {
		if v, ok := inputs[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

var Module = fx.Module("pipeline",
	fx.Provide(
		newSnowflakeNode,
		New,
	),
)
