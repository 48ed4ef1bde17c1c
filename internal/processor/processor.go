// Package processor implements the request processor: given a request
// event, it selects a handler, executes the outbound call, applies the
// `pick` projection (or the proof path), and returns a status+message to
// report back on chain.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/logging"
	"github.com/oraclenet/orchestrator/internal/pick"
	"github.com/oraclenet/orchestrator/internal/proof"
	"github.com/oraclenet/orchestrator/internal/registry"
)

const (
	defaultCallTimeout   = 40 * time.Second
	defaultBodyLimit     = int64(1 << 20)
	notaryPubKeyHeader   = "X-Notary-Public-Key"
)

// httpDoer is satisfied by *http.Client and by registry.RateLimitedClient,
// letting callers place a process-wide limiter in front of the outbound
// call without the processor depending on its concrete type.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Processor implements the request processor algorithm. It is safe for
// concurrent use; concurrency across handlers is expected, concurrency
// within the same handler is serialised by the handler's own rate limiter.
type Processor struct {
	address  string
	registry *registry.Registry
	verifier proof.Verifier
	client   httpDoer
	log      *logging.Logger
}

// New builds a processor for the orchestrator identified by address. client
// may be nil, in which case a default *http.Client with defaultCallTimeout
// is used. verifier may be nil; proof-mode requests then always fail closed
// with a 409.
func New(address string, reg *registry.Registry, verifier proof.Verifier, client httpDoer, log *logging.Logger) *Processor {
	if client == nil {
		client = &http.Client{Timeout: defaultCallTimeout}
	}
	if log == nil {
		log = logging.NewDefault("processor")
	}
	return &Processor{address: address, registry: reg, verifier: verifier, client: client, log: log}
}

// Process selects a handler for event, executes it, and returns the
// status+message to report back on chain. A nil result means the event does
// not belong to this orchestrator and must be skipped entirely: no outbound
// HTTP call, no persisted row.
func (p *Processor) Process(ctx context.Context, event domain.RequestEvent) (result *domain.Result) {
	if event.Oracle != p.address {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("request_id", event.RequestID).WithField("panic", r).Error("processor recovered from panic")
			result = &domain.Result{Status: 500, Message: "Unexpected error"}
		}
	}()

	rawURL := event.Params.URL
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &domain.Result{Status: 406, Message: "Invalid URL"}
	}

	handler := p.registry.Select(parsed)
	if handler == nil {
		return &domain.Result{Status: 406, Message: "URL Not supported"}
	}

	if !handler.Validate(parsed.Path, event.Params.Body) {
		return &domain.Result{Status: 406, Message: "Invalid Payload"}
	}

	handler.Reserve()

	httpReq, err := p.buildRequest(ctx, parsed, event, handler)
	if err != nil {
		return &domain.Result{Status: 500, Message: "Unexpected error"}
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &domain.Result{Status: 504, Message: "No response received"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultBodyLimit))
	if err != nil {
		return &domain.Result{Status: 504, Message: "No response received"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.Result{Status: resp.StatusCode, Message: string(body)}
	}

	if handler.ProofMode {
		return p.processProof(ctx, body)
	}

	projected, err := pick.Apply(string(body), event.Pick)
	if err != nil {
		return &domain.Result{Status: 409, Message: "'Pick' value provided could not be resolved on the returned response"}
	}
	return &domain.Result{Status: resp.StatusCode, Message: projected}
}

func (p *Processor) buildRequest(ctx context.Context, u *url.URL, event domain.RequestEvent, handler *registry.Handler) (*http.Request, error) {
	var bodyReader io.Reader
	if event.Params.Body != "" {
		bodyReader = strings.NewReader(event.Params.Body)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(event.Params.Method), u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if event.Params.Headers != "" {
		var headers map[string]string
		if json.Unmarshal([]byte(event.Params.Headers), &headers) == nil {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
		}
	}

	switch handler.AuthType {
	case domain.AuthOAuth1:
		authHeader, err := handler.OAuth1Creds.SignRequest(req.Method, u.String(), nil)
		if err == nil {
			req.Header.Set("Authorization", authHeader)
		}
	default:
		if token := handler.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

func (p *Processor) processProof(ctx context.Context, body []byte) *domain.Result {
	if p.verifier == nil {
		return &domain.Result{Status: 409, Message: "Proof verification failed"}
	}

	attestation, err := p.verifier.Verify(ctx, body, nil)
	if err != nil {
		p.log.WithError(err).Warn("proof verification failed")
		return &domain.Result{Status: 409, Message: "Proof verification failed"}
	}

	return &domain.Result{
		Status:         200,
		Message:        string(body),
		ProofGenerated: attestation.FirstFullProof(),
		Signature:      attestation.Signature,
	}
}
