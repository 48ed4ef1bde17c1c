// Package sui implements the chain.Adapter interface for Sui-family chains,
// whose event model is the object/event-type model: events are fetched via
// queryEvents filtered by Move event type, paging with an opaque
// (txDigest, eventSeq) cursor.
package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/oraclenet/orchestrator/internal/chain"
	"github.com/oraclenet/orchestrator/internal/chain/jsonrpc"
	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/keeper"
	"github.com/oraclenet/orchestrator/internal/logging"
)

// Adapter implements chain.Adapter for a Sui-family network.
type Adapter struct {
	chainID       string
	oracleAddress string
	rpc           *jsonrpc.Client
	keeper        *keeper.Keeper
	log           *logging.Logger

	// lastDigest tracks the txDigest half of the opaque cursor; the eventSeq
	// half is the uint64 cursor the indexer loop already tracks.
	lastDigest string
}

var _ chain.Adapter = (*Adapter)(nil)

// New builds a Sui adapter.
func New(chainID, oracleAddress, rpcEndpoint string, k *keeper.Keeper, log *logging.Logger) *Adapter {
	if log == nil {
		log = logging.NewDefault("chain-sui")
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

type eventFilter struct {
	MoveEventType string `json:"MoveEventType"`
}

type eventCursor struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// FetchEvents implements chain.Adapter via queryEvents. sinceCursor maps to
// the eventSeq half of Sui's paging cursor; the txDigest half is recalled
// from the adapter's own in-memory state, set by the previous successful
// fetch, since sinceCursor alone cannot reconstruct the opaque pair after a
// process restart. On a cold start (lastDigest empty) the adapter starts
// from the beginning of the event stream; in every case it drops events
// whose eventSeq is not above sinceCursor, and Submit's get_response_status
// pre-check skips any request already fulfilled on chain.
func (a *Adapter) FetchEvents(ctx context.Context, sinceCursor uint64, batchSize int) ([]domain.RequestEvent, error) {
	eventType := fmt.Sprintf("%s::oracles::RequestAdded", a.oracleAddress)

	params := []interface{}{
		eventFilter{MoveEventType: eventType},
	}
	if a.lastDigest != "" {
		params = append(params, eventCursor{TxDigest: a.lastDigest, EventSeq: strconv.FormatUint(sinceCursor, 10)}, batchSize, false)
	} else {
		params = append(params, nil, batchSize, false)
	}

	var result struct {
		Data []struct {
			ID struct {
				TxDigest string `json:"txDigest"`
				EventSeq string `json:"eventSeq"`
			} `json:"id"`
			ParsedJSON json.RawMessage `json:"parsedJson"`
		} `json:"data"`
		NextCursor *eventCursor `json:"nextCursor"`
	}

	if err := a.rpc.Call(ctx, "suix_queryEvents", params, &result); err != nil {
		return nil, fmt.Errorf("query sui events: %w", err)
	}

	events := make([]domain.RequestEvent, 0, len(result.Data))
	for _, item := range result.Data {
		seq, err := strconv.ParseUint(item.ID.EventSeq, 10, 64)
		if err != nil {
			a.log.WithError(err).Warn("skipping sui event with unparsable eventSeq")
			continue
		}
		if seq <= sinceCursor {
			continue
		}

		data := string(item.ParsedJSON)
		var notify *domain.Notify
		if nb := gjson.Get(data, "notify").String(); nb != "" {
			notify, _ = chain.DecodeNotify([]byte(nb))
		}

		events = append(events, domain.RequestEvent{
			RequestID: gjson.Get(data, "request_id").String(),
			Oracle:    a.oracleAddress,
			Params: domain.RequestParams{
				URL:     gjson.Get(data, "params.url").String(),
				Method:  gjson.Get(data, "params.method").String(),
				Headers: gjson.Get(data, "params.headers").String(),
				Body:    gjson.Get(data, "params.body").String(),
			},
			Pick:       gjson.Get(data, "pick").String(),
			Notify:     notify,
			EventID:    domain.EventID{HandleID: item.ID.TxDigest, Seq: seq},
			RawPayload: data,
		})

		a.lastDigest = item.ID.TxDigest
	}

	return events, nil
}

// IsAlreadyFulfilled implements chain.Adapter via the get_response_status
// view function, invoked through the sui_devInspectMoveCall RPC.
func (a *Adapter) IsAlreadyFulfilled(ctx context.Context, requestID string) (bool, error) {
	var result struct {
		Results []struct {
			ReturnValues [][]interface{} `json:"returnValues"`
		} `json:"results"`
	}
	if err := a.rpc.Call(ctx, "sui_devInspectMoveCall", map[string]interface{}{
		"packageObjectId": strings.SplitN(a.oracleAddress, "::", 2)[0],
		"module":          "oracles",
		"function":        "get_response_status",
		"arguments":       []string{requestID},
	}, &result); err != nil {
		return false, fmt.Errorf("view get_response_status: %w", err)
	}
	if len(result.Results) == 0 || len(result.Results[0].ReturnValues) == 0 {
		return false, nil
	}
	value := fmt.Sprint(result.Results[0].ReturnValues[0][0])
	return value != "" && value != "0", nil
}

// Submit implements chain.Adapter: construct, sign, and submit the
// fulfil_request Move call, waiting for confirmation.
func (a *Adapter) Submit(ctx context.Context, requestID string, status int, message string) (chain.Receipt, error) {
	already, err := a.IsAlreadyFulfilled(ctx, requestID)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("check already fulfilled: %w", err)
	}
	if already {
		return chain.Receipt{Outcome: chain.Skipped}, nil
	}

	callPayload, err := json.Marshal(map[string]interface{}{
		"packageObjectId": strings.SplitN(a.oracleAddress, "::", 2)[0],
		"module":          "oracles",
		"function":        "fulfil_request",
		"arguments":       []interface{}{requestID, status, message},
	})
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("encode fulfil_request call: %w", err)
	}
	signature := a.keeper.Sign(callPayload)

	var txDigest string
	if err := a.rpc.Call(ctx, "sui_executeTransactionBlock", map[string]interface{}{
		"txBytes":   callPayload,
		"signature": signature,
	}, &txDigest); err != nil {
		return chain.Receipt{}, fmt.Errorf("submit fulfil_request: %w", err)
	}

	if err := a.waitForConfirmation(ctx, txDigest); err != nil {
		return chain.Receipt{}, err
	}

	a.log.WithField("tx_digest", txDigest).WithField("request_id", requestID).Info("fulfil_request confirmed")
	return chain.Receipt{Outcome: chain.Submitted, TxHash: txDigest}, nil
}

func (a *Adapter) waitForConfirmation(ctx context.Context, txDigest string) error {
	var status string
	if err := a.rpc.Call(ctx, "sui_getTransactionBlock", map[string]interface{}{"digest": txDigest}, &status); err != nil {
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	return nil
}
