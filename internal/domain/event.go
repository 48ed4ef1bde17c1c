// Package domain holds the data shapes shared across the orchestrator's
// chain adapters, request processor, and event store: the on-chain request
// event, the outbound HTTP call it produces, and the row persisted once the
// event has been handled.
package domain

// RequestParams is the `params` block of an on-chain RequestAdded event: the
// outbound call the orchestrator is being asked to make.
type RequestParams struct {
	URL     string
	Method  string
	Headers string
	Body    string
}

// EventID identifies an event's position within its chain's native handle or
// stream (event-handle model: handle + sequence; transaction-stream model:
// the transaction version alone; object model: a digest+seq pair).
type EventID struct {
	HandleID string
	Seq      uint64
}

// Notify is the decoded form of an event's optional `notify` callback
// descriptor: `<address>::<function>`. The core stores it but never invokes it.
type Notify struct {
	Address  string
	Function string
}

// RequestEvent is a RequestAdded event read off chain, normalised to the
// shape the request processor and chain adapters share regardless of the
// chain family that produced it.
type RequestEvent struct {
	RequestID string
	Oracle    string
	Params    RequestParams
	Pick      string
	Notify    *Notify
	EventID   EventID
	EventIndex int
	RawPayload string
}

// Status is the terminal state of a persisted event row.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// EventRow is the persisted record of a handled event. Its presence marks the
// event as handled; rows are created once, after the fulfilment attempt, and
// never mutated afterward. The uniqueness key is
// (Chain, OracleAddress, EventHandleID, EventSeq).
type EventRow struct {
	ID                string
	Chain             string
	OracleAddress     string
	EventHandleID     string
	EventSeq          uint64
	EventIndex        int
	EventType         string
	EventData         string
	DecodedEventData  string
	Status            Status
	Retries           int
	Response          string
	IndexedAt         int64
	UpdatedAt         int64
}
