package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/brand"
	"github.com/papermint/papermint/internal/catalog"
	"github.com/papermint/papermint/internal/clock"
	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/generate"
	"github.com/papermint/papermint/internal/llm"
	"github.com/papermint/papermint/internal/prompt"
	"github.com/papermint/papermint/internal/render"
	"github.com/papermint/papermint/internal/sanitize"
	"github.com/papermint/papermint/internal/store"
)

type stubClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (c *stubClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

const validPayslipJSON = `{
	"employeeName": "Jane Doe",
	"employerName": "Acme Widgets Inc",
	"payPeriod": "March 2026",
	"grossPay": "5200.00",
	"netPay": "3900.00",
	"deductions": "Tax 1100.00, Pension 150.00, Insurance 50.00"
}`

func payslipEvent(sessionID string) Event {
	return Event{
		SessionID:   sessionID,
		ServiceSlug: "payslip",
		Inputs: map[string]string{
			"fullName":      "Jane Doe",
			"companyName":   "Acme Widgets Inc",
			"jobTitle":      "Senior Analyst",
			"monthlySalary": "5200",
			"payDate":       "2026-03-31",
		},
		Provider: "stripe",
	}
}

func newTestOrchestrator(t *testing.T, client llm.Client) (*Orchestrator, store.StatusStore, store.DocumentStore) {
	t.Helper()
	log := zap.NewNop()

	holder, err := catalog.NewHolder(log)
	require.NoError(t, err)

	cfg := config.Config{
		Budget: config.BudgetConfig{
			CallTimeout:     time.Second,
			OverallDeadline: 10 * time.Second,
			MaxRetries:      1,
			RetryBackoff:    time.Millisecond,
		},
		Store: config.StoreConfig{DocumentTTL: time.Hour, StatusTTL: 2 * time.Hour},
	}

	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	sanitizer := sanitize.New(sanitize.Blocklists{})
	statuses := store.NewMemoryStatusStore(fake, cfg.Store.StatusTTL)
	documents := store.NewMemoryDocumentStore(fake)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	o := New(Params{
		Catalog:   holder,
		Prompts:   prompt.NewBuilder(holder, sanitizer),
		Generator: generate.NewOrchestrator(client, cfg, nil, log),
		Brands:    brand.NewGenerator(sanitizer),
		Renderer:  render.NewRenderer(holder, fake, log),
		Statuses:  statuses,
		Documents: documents,
		Node:      node,
		Clock:     fake,
		Config:    cfg,
		Metrics:   nil,
		Log:       log,
	})
	return o, statuses, documents
}

func waitTerminal(t *testing.T, statuses store.StatusStore, sessionID string) store.Status {
	t.Helper()
	var status store.Status
	require.Eventually(t, func() bool {
		got, err := statuses.Get(context.Background(), sessionID)
		if err != nil {
			return false
		}
		status = got
		return got.State.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestHandleProducesReadyDocument(t *testing.T) {
	client := &stubClient{response: validPayslipJSON}
	o, statuses, documents := newTestOrchestrator(t, client)
	ctx := context.Background()

	require.NoError(t, o.Handle(ctx, payslipEvent("sess-1")))

	// Processing is visible synchronously, before the background run.
	got, err := statuses.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Contains(t, []store.State{store.StateProcessing, store.StateReady}, got.State)

	status := waitTerminal(t, statuses, "sess-1")
	assert.Equal(t, store.StateReady, status.State)
	assert.Equal(t, "Payslip", status.ServiceName)
	require.NotEmpty(t, status.DocumentID)

	doc, err := documents.Get(ctx, status.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.Metadata.MimeType)
	assert.Equal(t, "sess-1", doc.Metadata.SessionID)
	assert.NotEmpty(t, doc.Metadata.TraceID)
	assert.NotEmpty(t, doc.Bytes)
	assert.Equal(t, doc.Metadata.CreatedAt.Add(time.Hour), doc.Metadata.ExpiresAt)
}

func TestHandleRejectsUnknownService(t *testing.T) {
	client := &stubClient{response: validPayslipJSON}
	o, statuses, _ := newTestOrchestrator(t, client)

	event := payslipEvent("sess-1")
	event.ServiceSlug = "notary-stamp"

	err := o.Handle(context.Background(), event)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, gerr := statuses.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, gerr, store.ErrNotFound)
	assert.Zero(t, client.callCount())
}

func TestHandleRejectsMissingRequiredField(t *testing.T) {
	client := &stubClient{response: validPayslipJSON}
	o, _, _ := newTestOrchestrator(t, client)

	event := payslipEvent("sess-1")
	delete(event.Inputs, "fullName")

	err := o.Handle(context.Background(), event)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestHandleWritesErrorStatusOnExhaustion(t *testing.T) {
	client := &stubClient{err: llm.ErrEmptyResponse}
	o, statuses, documents := newTestOrchestrator(t, client)

	require.NoError(t, o.Handle(context.Background(), payslipEvent("sess-1")))

	status := waitTerminal(t, statuses, "sess-1")
	assert.Equal(t, store.StateError, status.State)
	assert.Contains(t, status.Message, "Reference")
	assert.NotContains(t, status.Message, "empty")

	stats, err := documents.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
}

func TestHandleSkipsRedeliveredFinishedSession(t *testing.T) {
	client := &stubClient{response: validPayslipJSON}
	o, statuses, _ := newTestOrchestrator(t, client)
	ctx := context.Background()

	require.NoError(t, o.Handle(ctx, payslipEvent("sess-1")))
	waitTerminal(t, statuses, "sess-1")
	callsAfterFirst := client.callCount()

	require.NoError(t, o.Handle(ctx, payslipEvent("sess-1")))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, callsAfterFirst, client.callCount())
}

// blockingClient holds every call open until released, so a session can be
// pinned in processing while a duplicate delivery arrives.
type blockingClient struct {
	stubClient
	release chan struct{}
}

func (c *blockingClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	select {
	case <-c.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return c.response, nil
}

func TestHandleSkipsRedeliveredInFlightSession(t *testing.T) {
	client := &blockingClient{
		stubClient: stubClient{response: validPayslipJSON},
		release:    make(chan struct{}),
	}
	o, statuses, _ := newTestOrchestrator(t, client)
	ctx := context.Background()

	require.NoError(t, o.Handle(ctx, payslipEvent("sess-dup")))
	require.Eventually(t, func() bool {
		return client.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Second delivery while the first run is still processing.
	require.NoError(t, o.Handle(ctx, payslipEvent("sess-dup")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, client.callCount())

	close(client.release)
	status := waitTerminal(t, statuses, "sess-dup")
	assert.Equal(t, store.StateReady, status.State)
	assert.Equal(t, 1, client.callCount())
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) DocumentReady(_ context.Context, to, serviceName, sessionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, to+"|"+serviceName+"|"+sessionID)
	return nil
}

func TestHandleNotifiesCustomerOnReady(t *testing.T) {
	client := &stubClient{response: validPayslipJSON}
	o, statuses, _ := newTestOrchestrator(t, client)

	notifier := &recordingNotifier{}
	o.notifier = notifier

	event := payslipEvent("sess-1")
	event.CustomerEmail = "jane@example.com"

	require.NoError(t, o.Handle(context.Background(), event))
	status := waitTerminal(t, statuses, "sess-1")
	require.Equal(t, store.StateReady, status.State)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.calls) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "jane@example.com|Payslip|sess-1", notifier.calls[0])
}

func TestHandleBlockedOrganizationStillSucceeds(t *testing.T) {
	client := &stubClient{response: validPayslipJSON}
	o, statuses, documents := newTestOrchestrator(t, client)
	ctx := context.Background()

	event := payslipEvent("sess-1")
	event.Inputs["companyName"] = "Federal Bureau of Investigation"

	require.NoError(t, o.Handle(ctx, event))

	status := waitTerminal(t, statuses, "sess-1")
	require.Equal(t, store.StateReady, status.State)

	doc, err := documents.Get(ctx, status.DocumentID)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Bytes)
}
