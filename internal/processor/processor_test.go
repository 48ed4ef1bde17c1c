package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/registry"
)

const orchestratorAddress = "0x" + "ab" + "00000000000000000000000000000000000000000000000000000000"

func newTestRegistry(t *testing.T, host string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	h := registry.NewHandler("test", []string{host}, []string{"/"}, registry.AcceptAll, time.Millisecond)
	reg.Register(h)
	return reg
}

func TestProcessHappyPathFollowersCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"public_metrics":{"followers_count":12345}}}`))
	}))
	defer srv.Close()

	reg := newTestRegistry(t, hostOf(srv.URL))
	p := New(orchestratorAddress, reg, nil, srv.Client(), nil)

	event := domain.RequestEvent{
		RequestID: "r1",
		Oracle:    orchestratorAddress,
		Params:    domain.RequestParams{URL: srv.URL, Method: "GET"},
		Pick:      ".data.public_metrics.followers_count",
	}

	result := p.Process(context.Background(), event)
	if result == nil {
		t.Fatalf("expected a result")
	}
	if result.Status != 200 || result.Message != "12345" {
		t.Fatalf("expected {200, \"12345\"}, got {%d, %q}", result.Status, result.Message)
	}
}

func TestProcessUnsupportedHost(t *testing.T) {
	reg := registry.New() // no handlers registered
	p := New(orchestratorAddress, reg, nil, nil, nil)

	event := domain.RequestEvent{
		RequestID: "r2",
		Oracle:    orchestratorAddress,
		Params:    domain.RequestParams{URL: "https://evil.example.com/x", Method: "GET"},
	}

	result := p.Process(context.Background(), event)
	if result == nil || result.Status != 406 || result.Message != "URL Not supported" {
		t.Fatalf("expected {406, URL Not supported}, got %+v", result)
	}
}

func TestProcessForeignOracleIsSkipped(t *testing.T) {
	reg := registry.New()
	p := New(orchestratorAddress, reg, nil, nil, nil)

	event := domain.RequestEvent{
		RequestID: "r3",
		Oracle:    "0xsome-other-address",
		Params:    domain.RequestParams{URL: "https://api.x.com/2/tweets", Method: "GET"},
	}

	if result := p.Process(context.Background(), event); result != nil {
		t.Fatalf("expected nil result for a foreign oracle, got %+v", result)
	}
}

func TestProcessUpstreamErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	reg := newTestRegistry(t, hostOf(srv.URL))
	p := New(orchestratorAddress, reg, nil, srv.Client(), nil)

	event := domain.RequestEvent{
		RequestID: "r4",
		Oracle:    orchestratorAddress,
		Params:    domain.RequestParams{URL: srv.URL, Method: "GET"},
	}

	result := p.Process(context.Background(), event)
	if result == nil || result.Status != 401 || result.Message != `{"error":"unauthorized"}` {
		t.Fatalf("expected {401, unauthorized body}, got %+v", result)
	}
}

func TestProcessPickFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	reg := newTestRegistry(t, hostOf(srv.URL))
	p := New(orchestratorAddress, reg, nil, srv.Client(), nil)

	event := domain.RequestEvent{
		RequestID: "r5",
		Oracle:    orchestratorAddress,
		Params:    domain.RequestParams{URL: srv.URL, Method: "GET"},
		Pick:      ".data.public_metrics.followers_count",
	}

	result := p.Process(context.Background(), event)
	if result == nil || result.Status != 409 {
		t.Fatalf("expected 409 on pick failure, got %+v", result)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
