// Package indexer implements the per-chain indexer loop: a cron-driven
// single-flight driver that, for each configured chain, reads the last
// cursor, asks the chain adapter for new events, drives each event through
// the request processor and the adapter's submit, and persists the outcome.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/oraclenet/orchestrator/internal/chain"
	"github.com/oraclenet/orchestrator/internal/core"
	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/logging"
	"github.com/oraclenet/orchestrator/internal/processor"
	"github.com/oraclenet/orchestrator/internal/store"
	"github.com/oraclenet/orchestrator/internal/system"
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ChainLoop is one chain's scheduled indexer loop.
type ChainLoop struct {
	Chain         string
	OracleAddress string
	BatchSize     int
	CronExpr      string

	adapter   chain.Adapter
	processor *processor.Processor
	store     store.Store
	log       *logging.Logger
	tracer    core.Tracer
}

// NewChainLoop builds one chain's loop. batchSize defaults to 1000 if <= 0.
func NewChainLoop(chainName, oracleAddress, cronExpr string, batchSize int, adapter chain.Adapter, proc *processor.Processor, st store.Store, log *logging.Logger) *ChainLoop {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if log == nil {
		log = logging.NewDefault("indexer-" + chainName)
	}
	return &ChainLoop{
		Chain:         chainName,
		OracleAddress: oracleAddress,
		BatchSize:     batchSize,
		CronExpr:      cronExpr,
		adapter:       adapter,
		processor:     proc,
		store:         st,
		log:           log,
		tracer:        core.NoopTracer,
	}
}

// Tick fetches new events since the last cursor and drives each, in
// ascending eventSeq order, through process -> submit -> record. A failed
// submission is recorded as FAILED and the loop continues with the next
// event; the cursor only ever advances because the store tracks the max
// eventSeq seen regardless of outcome.
func (c *ChainLoop) Tick(ctx context.Context) error {
	spanCtx, finish := c.tracer.StartSpan(ctx, "indexer.tick", map[string]string{"chain": c.Chain})
	var tickErr error
	defer func() { finish(tickErr) }()
	ctx = spanCtx

	cursor, _, err := c.store.LatestCursor(ctx, c.Chain, c.OracleAddress)
	if err != nil {
		tickErr = fmt.Errorf("read cursor: %w", err)
		return tickErr
	}

	events, err := c.adapter.FetchEvents(ctx, cursor, c.BatchSize)
	if err != nil {
		tickErr = fmt.Errorf("fetch events: %w", err)
		return tickErr
	}
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.handleEvent(ctx, event)
	}
	return nil
}

func (c *ChainLoop) handleEvent(ctx context.Context, event domain.RequestEvent) {
	result := c.processor.Process(ctx, event)
	if result == nil {
		// Not addressed to this orchestrator: no HTTP call was made, no
		// transaction issued, and no row is persisted for it.
		return
	}

	responseJSON, _ := json.Marshal(result)

	receipt, err := c.adapter.Submit(ctx, event.RequestID, result.Status, result.Message)
	row := domain.EventRow{
		ID:               uuid.NewString(),
		Chain:            c.Chain,
		OracleAddress:    c.OracleAddress,
		EventHandleID:    event.EventID.HandleID,
		EventSeq:         event.EventID.Seq,
		EventIndex:       event.EventIndex,
		EventType:        "RequestAdded",
		EventData:        event.RawPayload,
		Response:         string(responseJSON),
	}
	if event.Notify != nil {
		if decoded, err := json.Marshal(event.Notify); err == nil {
			row.DecodedEventData = string(decoded)
		}
	}

	if err != nil {
		row.Status = domain.StatusFailed
		c.log.WithError(err).WithField("request_id", event.RequestID).Error("fulfil_request submission failed")
	} else {
		row.Status = domain.StatusSuccess
		c.log.WithField("request_id", event.RequestID).
			WithField("outcome", receipt.Outcome).
			WithField("tx_hash", receipt.TxHash).
			Info("fulfil_request recorded")
	}

	if err := c.store.RecordAttempt(ctx, row); err != nil {
		c.log.WithError(err).WithField("request_id", event.RequestID).Error("failed to persist event row")
	}
}

// Manager owns one cron.Cron per configured chain, each guarded by
// cron.SkipIfStillRunning so an overrunning tick never overlaps itself;
// across chains, loops run independently and in parallel because each has
// its own cron scheduler and goroutine.
type Manager struct {
	mu    sync.Mutex
	crons []*cron.Cron
	log   *logging.Logger
}

// NewManager builds an empty manager.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewDefault("indexer-manager")
	}
	return &Manager{log: log}
}

var _ system.Service = (*Manager)(nil)

// Name implements system.Service.
func (m *Manager) Name() string { return "indexer-manager" }

// Descriptor implements system.DescriptorProvider.
func (m *Manager) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         "indexer-manager",
		Domain:       "indexer",
		Layer:        core.LayerEngine,
		Capabilities: []string{"fetch-events", "submit-fulfilment"},
	}
}

// Add schedules loop on its own cron.Cron, wrapped with
// cron.SkipIfStillRunning so a slow tick drops the next overlapping one
// instead of running concurrently with itself.
func (m *Manager) Add(loop *ChainLoop) error {
	if _, err := cronParser.Parse(loop.CronExpr); err != nil {
		return fmt.Errorf("chain %s: invalid cron expression %q: %w", loop.Chain, loop.CronExpr, err)
	}

	logAdapter := cron.PrintfLogger(tickLogger{log: m.log, chain: loop.Chain})
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(logAdapter), cron.SkipIfStillRunning(logAdapter)),
	)

	if _, err := c.AddFunc(loop.CronExpr, func() {
		if err := loop.Tick(context.Background()); err != nil {
			m.log.WithError(err).WithField("chain", loop.Chain).Warn("indexer tick failed")
		}
	}); err != nil {
		return fmt.Errorf("chain %s: schedule tick: %w", loop.Chain, err)
	}

	m.mu.Lock()
	m.crons = append(m.crons, c)
	m.mu.Unlock()
	return nil
}

// Start implements system.Service: every configured chain's cron scheduler
// begins running in its own goroutine.
func (m *Manager) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.crons {
		c.Start()
	}
	return nil
}

// Stop implements system.Service: every scheduler is asked to finish its
// current tick and stop scheduling new ones.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	crons := append([]*cron.Cron(nil), m.crons...)
	m.mu.Unlock()

	for _, c := range crons {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type tickLogger struct {
	log   *logging.Logger
	chain string
}

func (l tickLogger) Printf(format string, args ...interface{}) {
	l.log.WithField("chain", l.chain).Infof(format, args...)
}
