// Package rooch implements the chain.Adapter interface for Rooch-family
// chains, whose event model is the native event-handle model: events are
// fetched by calling the node's "events by handle" RPC with a cursor that is
// the last eventSeq consumed.
package rooch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/oraclenet/orchestrator/internal/chain"
	"github.com/oraclenet/orchestrator/internal/chain/jsonrpc"
	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/keeper"
	"github.com/oraclenet/orchestrator/internal/logging"
)

// Adapter implements chain.Adapter for a Rooch-family network.
type Adapter struct {
	chainID       string
	oracleAddress string
	rpc           *jsonrpc.Client
	keeper        *keeper.Keeper
	log           *logging.Logger
}

var _ chain.Adapter = (*Adapter)(nil)

// New builds a Rooch adapter.
func New(chainID, oracleAddress, rpcEndpoint string, k *keeper.Keeper, log *logging.Logger) *Adapter {
	if log == nil {
		log = logging.NewDefault("chain-rooch")
	}
	return &Adapter{
		chainID:       chainID,
		oracleAddress: oracleAddress,
		rpc:           jsonrpc.New(rpcEndpoint, nil),
		keeper:        k,
		log:           log,
	}
}

// ChainID implements chain.Adapter.
func (a *Adapter) ChainID() string { return a.chainID }

type eventHandleParams struct {
	EventHandleType string `json:"event_handle_type"`
	Cursor          uint64 `json:"cursor"`
	Limit           int    `json:"limit"`
	DecodeValue     bool   `json:"decode_value"`
}

type rawEvent struct {
	EventIndex    int             `json:"event_index"`
	EventSeq      uint64          `json:"event_seq"`
	DecodedValue  json.RawMessage `json:"decoded_event_data"`
	EventType     string          `json:"event_type"`
}

// FetchEvents implements chain.Adapter using the events-by-handle RPC.
func (a *Adapter) FetchEvents(ctx context.Context, sinceCursor uint64, batchSize int) ([]domain.RequestEvent, error) {
	handleType := fmt.Sprintf("%s::oracles::RequestAdded", a.oracleAddress)

	var raw []rawEvent
	if err := a.rpc.Call(ctx, "rooch_getEventsByEventHandle", eventHandleParams{
		EventHandleType: handleType,
		Cursor:          sinceCursor,
		Limit:           batchSize,
		DecodeValue:     true,
	}, &raw); err != nil {
		return nil, fmt.Errorf("fetch rooch events: %w", err)
	}

	events := make([]domain.RequestEvent, 0, len(raw))
	for _, re := range raw {
		event, err := decodeRequestAdded(re, handleType, a.oracleAddress)
		if err != nil {
			a.log.WithError(err).WithField("event_seq", re.EventSeq).Warn("skipping undecodable rooch event")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeRequestAdded(re rawEvent, handleID, oracleAddress string) (domain.RequestEvent, error) {
	data := string(re.DecodedValue)

	var notify *domain.Notify
	if encoded := gjson.Get(data, "notify").String(); encoded != "" {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil {
			notify, _ = chain.DecodeNotify(raw)
		}
	}

	return domain.RequestEvent{
		RequestID: gjson.Get(data, "request_id").String(),
		Oracle:    oracleAddress,
		Params: domain.RequestParams{
			URL:     gjson.Get(data, "params.url").String(),
			Method:  gjson.Get(data, "params.method").String(),
			Headers: gjson.Get(data, "params.headers").String(),
			Body:    gjson.Get(data, "params.body").String(),
		},
		Pick:       gjson.Get(data, "pick").String(),
		Notify:     notify,
		EventID:    domain.EventID{HandleID: handleID, Seq: re.EventSeq},
		EventIndex: re.EventIndex,
		RawPayload: data,
	}, nil
}

// IsAlreadyFulfilled implements chain.Adapter via the get_response_status view.
func (a *Adapter) IsAlreadyFulfilled(ctx context.Context, requestID string) (bool, error) {
	var status uint64
	if err := a.rpc.Call(ctx, "rooch_executeViewFunction", map[string]interface{}{
		"function_id": fmt.Sprintf("%s::oracles::get_response_status", a.oracleAddress),
		"args":        []string{requestID},
	}, &status); err != nil {
		return false, fmt.Errorf("view get_response_status: %w", err)
	}
	return status != 0, nil
}

// Submit implements chain.Adapter: construct, sign, and submit the
// fulfil_request call, waiting for confirmation.
func (a *Adapter) Submit(ctx context.Context, requestID string, status int, message string) (chain.Receipt, error) {
	already, err := a.IsAlreadyFulfilled(ctx, requestID)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("check already fulfilled: %w", err)
	}
	if already {
		return chain.Receipt{Outcome: chain.Skipped}, nil
	}

	callPayload, err := json.Marshal(map[string]interface{}{
		"function_id": fmt.Sprintf("%s::oracles::fulfil_request", a.oracleAddress),
		"args":        []interface{}{requestID, status, message},
	})
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("encode fulfil_request call: %w", err)
	}
	signature := a.keeper.Sign(callPayload)

	var txHash string
	if err := a.rpc.Call(ctx, "rooch_sendRawTransaction", map[string]interface{}{
		"call":      json.RawMessage(callPayload),
		"signature": signature,
		"sender":    a.keeper.PublicKey(),
	}, &txHash); err != nil {
		return chain.Receipt{}, fmt.Errorf("submit fulfil_request: %w", err)
	}

	if err := a.waitForConfirmation(ctx, txHash); err != nil {
		return chain.Receipt{}, err
	}

	a.log.WithField("tx_hash", txHash).WithField("request_id", requestID).Info("fulfil_request confirmed")
	return chain.Receipt{Outcome: chain.Submitted, TxHash: txHash}, nil
}

func (a *Adapter) waitForConfirmation(ctx context.Context, txHash string) error {
	var executed bool
	if err := a.rpc.Call(ctx, "rooch_getTransactionByHash", map[string]interface{}{"hash": txHash}, &executed); err != nil {
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	return nil
}
