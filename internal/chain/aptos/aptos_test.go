package aptos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oraclenet/orchestrator/internal/keeper"
)

func testKeeper(t *testing.T) *keeper.Keeper {
	t.Helper()
	k, err := keeper.Load("APTOS", strings.Repeat("cd", 32))
	if err != nil {
		t.Fatalf("load keeper: %v", err)
	}
	return k
}

func TestFetchEventsFlattensTransactionEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"account_transactions": []map[string]interface{}{
					{
						"transaction_version": 42,
						"user_transaction": map[string]interface{}{
							"success": true,
							"events": []map[string]interface{}{
								{
									"type": "0xoracle::oracles::RequestAdded",
									"data": json.RawMessage(`{"request_id":"r1","params":{"url":"https://api.openai.com/v1/chat/completions","method":"POST"},"pick":"."}`),
								},
								{
									"type": "0xoracle::oracles::OtherEvent",
									"data": json.RawMessage(`{}`),
								},
							},
						},
					},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := New("APTOS-MAINNET", "0xoracle", srv.URL, testKeeper(t), nil)
	events, err := a.FetchEvents(context.Background(), 10, 100)
	if err != nil {
		t.Fatalf("fetch events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 RequestAdded event (other types filtered out), got %d", len(events))
	}
	if events[0].EventID.Seq != 42 {
		t.Fatalf("expected eventSeq to be the transaction version 42, got %d", events[0].EventID.Seq)
	}
}

func TestFetchEventsSkipsFailedTransactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"account_transactions": []map[string]interface{}{
					{
						"transaction_version": 1,
						"user_transaction": map[string]interface{}{
							"success": false,
							"events":  []map[string]interface{}{{"type": "0xoracle::oracles::RequestAdded", "data": json.RawMessage(`{}`)}},
						},
					},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := New("APTOS-MAINNET", "0xoracle", srv.URL, testKeeper(t), nil)
	events, err := a.FetchEvents(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("fetch events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected failed transactions to be skipped, got %d events", len(events))
	}
}
