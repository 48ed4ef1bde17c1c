package domain

// Keeper is a persisted keypair record, one per (chain, module). The private
// key is loaded at start and used to derive the orchestrator's on-chain
// address for that chain.
type Keeper struct {
	Chain      string
	Module     string
	PrivateKey string
}

// AuthType enumerates the credential flow a SupportedURL-driven handler uses.
type AuthType string

const (
	AuthBearer AuthType = "BEARER"
	AuthOAuth1 AuthType = "OAUTH1"
	AuthOAuth2 AuthType = "OAUTH2"
)

// SupportedURL drives dynamic handler construction at boot: an externally
// configured host, its allowed paths, and how to authenticate to it.
type SupportedURL struct {
	Domain         string
	SupportedPaths []string
	AuthType       AuthType
	AuthKey        string
	RequestRate    int
}
