package proof

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oraclenet/orchestrator/internal/logging"
)

const (
	defaultVerifierTimeout   = 40 * time.Second
	defaultVerifierBodyLimit = int64(1 << 20)
)

// HTTPVerifier submits proof blobs to a remote Verity-style prover service
// over HTTP and, optionally, cross-checks the prover's attestation against
// an Internet Computer canister before accepting it.
type HTTPVerifier struct {
	proverURL  string
	canisterID string
	seed       string

	client    *http.Client
	log       *logging.Logger
	bodyLimit int64
}

// NewHTTPVerifier builds a verifier against proverURL. canisterID/seed are
// optional; when both are set, Verify additionally anchors the prover's
// signature against that canister before returning success.
func NewHTTPVerifier(proverURL, canisterID, seed string, log *logging.Logger) *HTTPVerifier {
	if log == nil {
		log = logging.NewDefault("proof-verifier")
	}
	return &HTTPVerifier{
		proverURL:  proverURL,
		canisterID: canisterID,
		seed:       seed,
		client:     &http.Client{Timeout: defaultVerifierTimeout},
		log:        log,
		bodyLimit:  defaultVerifierBodyLimit,
	}
}

type verifyRequest struct {
	Proof        string `json:"proof"`
	NotaryPubKey string `json:"notary_pub_key"`
}

// Verify implements Verifier.
func (v *HTTPVerifier) Verify(ctx context.Context, proofBytes []byte, notaryPubKey []byte) (Attestation, error) {
	payload, err := json.Marshal(verifyRequest{
		Proof:        hex.EncodeToString(proofBytes),
		NotaryPubKey: hex.EncodeToString(notaryPubKey),
	})
	if err != nil {
		return Attestation{}, fmt.Errorf("encode proof request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.proverURL, bytes.NewReader(payload))
	if err != nil {
		return Attestation{}, fmt.Errorf("build proof request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Attestation{}, fmt.Errorf("submit proof: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, v.bodyLimit))
	if err != nil {
		return Attestation{}, fmt.Errorf("read proof response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Attestation{}, fmt.Errorf("prover returned status %d: %s", resp.StatusCode, body)
	}

	attestation, err := decodeAttestation(body)
	if err != nil {
		return Attestation{}, fmt.Errorf("decode attestation: %w", err)
	}

	if v.canisterCheckEnabled() {
		if err := v.checkCanister(ctx, attestation); err != nil {
			return Attestation{}, fmt.Errorf("canister attestation check: %w", err)
		}
	}

	v.log.WithField("root", attestation.Root).Debug("proof verified")
	return attestation, nil
}

func (v *HTTPVerifier) canisterCheckEnabled() bool {
	return v.canisterID != "" && v.seed != ""
}

// checkCanister anchors the prover's attestation signature against the
// configured Internet Computer canister as a second, independent
// attestation path. The canister is treated as opaque: any non-2xx or
// malformed response is a verification failure.
func (v *HTTPVerifier) checkCanister(ctx context.Context, attestation Attestation) error {
	payload, err := json.Marshal(map[string]string{
		"canister_id": v.canisterID,
		"signature":   attestation.Signature,
		"root":        attestation.Root,
	})
	if err != nil {
		return fmt.Errorf("encode canister check: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.proverURL+"/ic/verify", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build canister check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-IC-Seed", v.seed)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit canister check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, v.bodyLimit))
		return fmt.Errorf("canister rejected attestation: status %d: %s", resp.StatusCode, body)
	}
	return nil
}
