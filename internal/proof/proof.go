// Package proof implements the optional proof-verification collaborator: a
// remote service that, given a TLS-notary proof blob and a notary public
// key, returns a signed attestation plus the claims it extracted.
package proof

import (
	"context"
	"encoding/json"
)

// ResultKind tags a single extracted claim as either a session-scoped or a
// full-document proof.
type ResultKind string

const (
	KindSession ResultKind = "SessionProof"
	KindFull    ResultKind = "FullProof"
)

// Result is one tagged claim returned by the verifier.
type Result struct {
	Kind  ResultKind
	Value string
}

// Attestation is the verifier's response: the outer signature plus the
// per-claim results it extracted from the proof.
type Attestation struct {
	Signature string
	Root      string
	Results   []Result
}

// FirstFullProof returns the value of the first FullProof result, or "" if
// none is present.
func (a Attestation) FirstFullProof() string {
	for _, r := range a.Results {
		if r.Kind == KindFull {
			return r.Value
		}
	}
	return ""
}

// Verifier validates a proof blob against a notary public key and returns the
// resulting attestation. Implementations are remote and may fail; a failure
// must not stall non-proof requests, which is why route selection into
// proof mode happens at handler configuration rather than being inferred
// from the response shape.
type Verifier interface {
	Verify(ctx context.Context, proofBytes []byte, notaryPubKey []byte) (Attestation, error)
}

type wireResult struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type wireAttestation struct {
	Signature string       `json:"signature"`
	Root      string       `json:"root"`
	Results   []wireResult `json:"results"`
}

func decodeAttestation(body []byte) (Attestation, error) {
	var wire wireAttestation
	if err := json.Unmarshal(body, &wire); err != nil {
		return Attestation{}, err
	}
	out := Attestation{Signature: wire.Signature, Root: wire.Root}
	for _, r := range wire.Results {
		out.Results = append(out.Results, Result{Kind: ResultKind(r.Kind), Value: r.Value})
	}
	return out, nil
}
