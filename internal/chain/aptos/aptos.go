// Package aptos implements the chain.Adapter interface for Aptos-family
// chains, whose event model is the transaction-stream model: the cursor is
// the last transaction version consumed, and new events are discovered by
// querying an indexer GraphQL endpoint for account transactions past that
// version.
package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/oraclenet/orchestrator/internal/chain"
	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/keeper"
	"github.com/oraclenet/orchestrator/internal/logging"
)

const defaultHTTPTimeout = 40 * time.Second

const accountTransactionsQuery = `
query RequestAddedTransactions($account: String!, $after: bigint!, $limit: Int!) {
  account_transactions(
    where: {account_address: {_eq: $account}, transaction_version: {_gt: $after}}
    order_by: {transaction_version: asc}
    limit: $limit
  ) {
    transaction_version
    user_transaction {
      success
      events {
        type
        data
      }
    }
  }
}`

// Adapter implements chain.Adapter for an Aptos-family network.
type Adapter struct {
	chainID       string
	oracleAddress string
	graphqlURL    string
	fullnodeURL   string
	client        *http.Client
	keeper        *keeper.Keeper
	log           *logging.Logger
}

var _ chain.Adapter = (*Adapter)(nil)

// New builds an Aptos adapter. rpcEndpoint is used for both the indexer
// GraphQL endpoint (at "/v1/graphql" beneath it) and the fullnode view/submit
// API (at the endpoint itself), matching how Aptos deployments expose both
// surfaces off one base URL.
func New(chainID, oracleAddress, rpcEndpoint string, k *keeper.Keeper, log *logging.Logger) *Adapter {
	if log == nil {
		log = logging.NewDefault("chain-aptos")
	}
	return &Adapter{
		chainID:       chainID,
		oracleAddress: oracleAddress,
		graphqlURL:    rpcEndpoint + "/v1/graphql",
		fullnodeURL:   rpcEndpoint,
		client:        &http.Client{Timeout: defaultHTTPTimeout},
		keeper:        k,
		log:           log,
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// FetchEvents implements chain.Adapter via the account_transactions GraphQL
// query. The per-event sequence presented upward is the transaction version:
// monotonic and globally unique per chain. batchSize limits the number of
// transactions queried, not the number of events returned: a transaction
// carrying several RequestAdded events can yield more than batchSize events.
func (a *Adapter) FetchEvents(ctx context.Context, sinceCursor uint64, batchSize int) ([]domain.RequestEvent, error) {
	body, err := a.graphqlQuery(ctx, accountTransactionsQuery, map[string]interface{}{
		"account": a.oracleAddress,
		"after":   sinceCursor,
		"limit":   batchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query account transactions: %w", err)
	}

	eventType := fmt.Sprintf("%s::oracles::RequestAdded", a.oracleAddress)

	var events []domain.RequestEvent
	gjson.GetBytes(body, "data.account_transactions").ForEach(func(_, tx gjson.Result) bool {
		version := tx.Get("transaction_version").Uint()
		if !tx.Get("user_transaction.success").Bool() {
			return true
		}
		tx.Get("user_transaction.events").ForEach(func(_, ev gjson.Result) bool {
			if ev.Get("type").String() != eventType {
				return true
			}
			data := ev.Get("data").Raw

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
				EventID:    domain.EventID{HandleID: a.oracleAddress, Seq: version},
				RawPayload: data,
			})
			return true
		})
		return true
	})

	return events, nil
}

func (a *Adapter) graphqlQuery(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql transport: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}

// IsAlreadyFulfilled implements chain.Adapter by invoking the fullnode's
// view-function API against get_response_status.
func (a *Adapter) IsAlreadyFulfilled(ctx context.Context, requestID string) (bool, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"function":       fmt.Sprintf("%s::oracles::get_response_status", a.oracleAddress),
		"type_arguments": []string{},
		"arguments":      []string{requestID},
	})
	if err != nil {
		return false, fmt.Errorf("encode view request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.fullnodeURL+"/v1/view", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build view request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("view transport: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read view response: %w", err)
	}

	status := gjson.GetBytes(body, "0").String()
	return status != "" && status != "0", nil
}

// Submit implements chain.Adapter: submit a signed fulfil_request entry
// function transaction and wait for it to land.
func (a *Adapter) Submit(ctx context.Context, requestID string, status int, message string) (chain.Receipt, error) {
	already, err := a.IsAlreadyFulfilled(ctx, requestID)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("check already fulfilled: %w", err)
	}
	if already {
		return chain.Receipt{Outcome: chain.Skipped}, nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"function":  fmt.Sprintf("%s::oracles::fulfil_request", a.oracleAddress),
		"arguments": []interface{}{requestID, status, message},
	})
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("encode fulfil_request entry function: %w", err)
	}
	signature := a.keeper.Sign(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.fullnodeURL+"/v1/transactions", bytes.NewReader(payload))
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Orchestrator-Signature", fmt.Sprintf("%x", signature))

	resp, err := a.client.Do(req)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("submit fulfil_request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("read submit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return chain.Receipt{}, fmt.Errorf("submit fulfil_request: status %d: %s", resp.StatusCode, body)
	}

	txHash := gjson.GetBytes(body, "hash").String()
	if err := a.waitForConfirmation(ctx, txHash); err != nil {
		return chain.Receipt{}, err
	}

	a.log.WithField("tx_hash", txHash).WithField("request_id", requestID).Info("fulfil_request confirmed")
	return chain.Receipt{Outcome: chain.Submitted, TxHash: txHash}, nil
}

func (a *Adapter) waitForConfirmation(ctx context.Context, txHash string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.fullnodeURL+"/v1/transactions/by_hash/"+txHash, nil)
	if err != nil {
		return fmt.Errorf("build confirmation request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transaction %s not confirmed: status %d", txHash, resp.StatusCode)
	}
	return nil
}

// ChainID implements chain.Adapter.
func (a *Adapter) ChainID() string { return a.chainID }
