// Package chain defines the chain adapter interface that the indexer loop
// drives: fetching new request events by cursor, checking whether a request
// has already been fulfilled, and submitting the signed fulfil_request
// transaction. Concrete adapters for the three supported chain families
// live in the rooch, aptos, and sui subpackages.
package chain

import (
	"context"

	"github.com/oraclenet/orchestrator/internal/domain"
)

// SubmitOutcome distinguishes a genuine submission from one the adapter
// skipped because the request was already fulfilled on chain.
type SubmitOutcome string

const (
	Submitted SubmitOutcome = "submitted"
	Skipped   SubmitOutcome = "skipped"
)

// Receipt is the result of a fulfil_request submission.
type Receipt struct {
	Outcome SubmitOutcome
	TxHash  string
}

// Adapter is implemented once per supported chain family.
type Adapter interface {
	// ChainID identifies the adapter's network, e.g. "ROOCH-testnet".
	ChainID() string

	// FetchEvents returns at most batchSize events with eventSeq >
	// sinceCursor, filtered to RequestAdded events addressed to the
	// configured oracle, in ascending eventSeq order.
	FetchEvents(ctx context.Context, sinceCursor uint64, batchSize int) ([]domain.RequestEvent, error)

	// IsAlreadyFulfilled calls the chain's response-status view function.
	IsAlreadyFulfilled(ctx context.Context, requestID string) (bool, error)

	// Submit constructs, signs, submits, and waits for confirmation of the
	// fulfil_request transaction. When IsAlreadyFulfilled is true for
	// requestID, Submit must return a Skipped receipt without
	// transmitting anything.
	Submit(ctx context.Context, requestID string, status int, message string) (Receipt, error)
}
