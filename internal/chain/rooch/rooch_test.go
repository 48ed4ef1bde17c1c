package rooch

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
	k, err := keeper.Load("ROOCH", strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("load keeper: %v", err)
	}
	return k
}

func TestFetchEventsDecodesRequestAdded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)

		switch req["method"] {
		case "rooch_getEventsByEventHandle":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req["id"],
				"result": []map[string]interface{}{
					{
						"event_index":        0,
						"event_seq":          1,
						"event_type":         "0xoracle::oracles::RequestAdded",
						"decoded_event_data": json.RawMessage(`{"request_id":"r1","params":{"url":"https://api.x.com/2/tweets","method":"GET"},"pick":"."}`),
					},
				},
			})
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	defer srv.Close()

	a := New("ROOCH-testnet", "0xoracle", srv.URL, testKeeper(t), nil)
	events, err := a.FetchEvents(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("fetch events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].RequestID != "r1" {
		t.Fatalf("expected request id r1, got %q", events[0].RequestID)
	}
	if events[0].Oracle != "0xoracle" {
		t.Fatalf("expected oracle 0xoracle, got %q", events[0].Oracle)
	}
}

func TestIsAlreadyFulfilled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req["id"],
			"result":  200,
		})
	}))
	defer srv.Close()

	a := New("ROOCH-testnet", "0xoracle", srv.URL, testKeeper(t), nil)
	fulfilled, err := a.IsAlreadyFulfilled(context.Background(), "r1")
	if err != nil {
		t.Fatalf("is already fulfilled: %v", err)
	}
	if !fulfilled {
		t.Fatalf("expected a non-zero status to report fulfilled")
	}
}
