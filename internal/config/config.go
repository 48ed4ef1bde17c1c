// Package config loads and validates the orchestrator's environment-driven
// configuration: which chains to watch, their credentials and cadence, the
// integration handler credentials, and the optional proof-verification
// service.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/oraclenet/orchestrator/internal/logging"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	cronParser     = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

const defaultIndexerCron = "*/5 * * * * *"

// ChainFamily is one of the known chain families the orchestrator can watch.
type ChainFamily string

const (
	ChainRooch ChainFamily = "ROOCH"
	ChainAptos ChainFamily = "APTOS"
	ChainSui   ChainFamily = "SUI"
)

var knownFamilies = map[ChainFamily]bool{
	ChainRooch: true,
	ChainAptos: true,
	ChainSui:   true,
}

// ChainConfig is the per-chain configuration block derived from
// `<FAMILY>_*` environment variables.
type ChainConfig struct {
	Family        ChainFamily
	ChainID       string
	PrivateKeyHex string
	OracleAddress string
	IndexerCron   string
	RPCEndpoint   string
}

// ProofConfig configures the optional proof-verification collaborator.
type ProofConfig struct {
	CanisterID string `env:"IC_CANISTER_ID" yaml:"canister_id"`
	Seed       string `env:"IC_SEED" yaml:"seed"`
	ProverURL  string `env:"VERITY_PROVER_URL" yaml:"prover_url"`
}

// Enabled reports whether a remote prover has been configured.
func (p ProofConfig) Enabled() bool {
	return strings.TrimSpace(p.ProverURL) != ""
}

// CanisterCheckEnabled reports whether the prover's own attestation should
// additionally be anchored against an Internet Computer canister: a prover,
// a canister ID and a seed must all be configured.
func (p ProofConfig) CanisterCheckEnabled() bool {
	return p.Enabled() && strings.TrimSpace(p.CanisterID) != "" && strings.TrimSpace(p.Seed) != ""
}

// HandlerCredentials holds the baseline handler credentials the integration registry bootstraps.
type HandlerCredentials struct {
	TwitterClientID     string `env:"X_CLIENT_ID" yaml:"twitter_client_id"`
	TwitterClientSecret string `env:"X_CLIENT_SECRET" yaml:"twitter_client_secret"`
	TwitterBearerToken  string `env:"X_BEARER_TOKEN" yaml:"twitter_bearer_token"`
	OpenAIToken         string `env:"OPENAI_TOKEN" yaml:"openai_token"`
}

// envConfig is the raw envdecode target; chain blocks are decoded separately
// because their variable names are prefixed per family.
type envConfig struct {
	Chains      string `env:"CHAINS"`
	BatchSize   int    `env:"BATCH_SIZE"`
	Logging     logging.Config
	Handlers    HandlerCredentials
	Proof       ProofConfig
	DatabaseURL string `env:"DATABASE_URL"`
}

// Config is the fully validated, loaded configuration.
type Config struct {
	Chains      []ChainConfig
	BatchSize   int
	Logging     logging.Config
	Handlers    HandlerCredentials
	Proof       ProofConfig
	DatabaseURL string
}

// yamlConfig is the optional file-based configuration layer, loaded before
// envdecode so that environment variables always take precedence over the
// file (two-phase load: file sets defaults, env overrides them).
type yamlConfig struct {
	Chains      string             `yaml:"chains"`
	BatchSize   int                `yaml:"batch_size"`
	Logging     logging.Config     `yaml:"logging"`
	Handlers    HandlerCredentials `yaml:"handlers"`
	Proof       ProofConfig        `yaml:"proof"`
	DatabaseURL string             `yaml:"database_url"`
}

// loadYAMLFile reads the YAML configuration file named by CONFIG_FILE, if
// set. A missing file is not an error: the process falls back to defaults
// and environment variables entirely.
func loadYAMLFile() (*yamlConfig, error) {
	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg yamlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads configuration from a .env file (if present), an optional YAML
// file named by CONFIG_FILE, and the process environment (which always
// wins), then validates the result. Startup must fail loudly on invalid
// configuration, so Load returns an error rather than panicking; callers are
// expected to treat a non-nil error as fatal.
func Load() (*Config, error) {
	_ = godotenv.Load()

	raw := envConfig{
		BatchSize: 1000,
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}

	fileCfg, err := loadYAMLFile()
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		if fileCfg.Chains != "" {
			raw.Chains = fileCfg.Chains
		}
		if fileCfg.BatchSize > 0 {
			raw.BatchSize = fileCfg.BatchSize
		}
		if fileCfg.Logging.Level != "" {
			raw.Logging = fileCfg.Logging
		}
		raw.Handlers = fileCfg.Handlers
		raw.Proof = fileCfg.Proof
		raw.DatabaseURL = fileCfg.DatabaseURL
	}

	if err := envdecode.Decode(&raw); err != nil {
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	cfg := &Config{
		BatchSize:   raw.BatchSize,
		Logging:     raw.Logging,
		Handlers:    raw.Handlers,
		Proof:       raw.Proof,
		DatabaseURL: raw.DatabaseURL,
	}

	families, err := parseChains(raw.Chains)
	if err != nil {
		return nil, err
	}

	for _, family := range families {
		chainCfg := loadChainConfig(family)
		cfg.Chains = append(cfg.Chains, chainCfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseChains(raw string) ([]ChainFamily, error) {
	var out []ChainFamily
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		family := ChainFamily(part)
		if !knownFamilies[family] {
			return nil, fmt.Errorf("CHAINS: unsupported chain family %q", part)
		}
		out = append(out, family)
	}
	return out, nil
}

func loadChainConfig(family ChainFamily) ChainConfig {
	prefix := string(family)
	get := func(suffix string) string {
		return strings.TrimSpace(os.Getenv(prefix + suffix))
	}

	cronExpr := get("_INDEXER_CRON")
	if cronExpr == "" {
		cronExpr = defaultIndexerCron
	}

	return ChainConfig{
		Family:        family,
		ChainID:       get("_CHAIN_ID"),
		PrivateKeyHex: get("_PRIVATE_KEY"),
		OracleAddress: get("_ORACLE_ADDRESS"),
		IndexerCron:   cronExpr,
		RPCEndpoint:   get("_RPC_ENDPOINT"),
	}
}

// Validate checks that addresses match the 32-byte hex pattern, private keys
// are non-empty hex, and every chain listed in CHAINS carries a usable
// address, key, and cron expression.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("CHAINS must list at least one chain family")
	}

	seen := make(map[ChainFamily]bool, len(c.Chains))
	for _, chain := range c.Chains {
		if seen[chain.Family] {
			return fmt.Errorf("CHAINS: duplicate chain family %q", chain.Family)
		}
		seen[chain.Family] = true

		if err := chain.validate(); err != nil {
			return fmt.Errorf("chain %s: %w", chain.Family, err)
		}
	}
	return nil
}

func (c ChainConfig) validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("%s_CHAIN_ID is required", c.Family)
	}
	if !addressPattern.MatchString(c.OracleAddress) {
		return fmt.Errorf("%s_ORACLE_ADDRESS must match ^0x[0-9a-fA-F]{64}$", c.Family)
	}
	if err := validatePrivateKeyHex(c.PrivateKeyHex); err != nil {
		return fmt.Errorf("%s_PRIVATE_KEY: %w", c.Family, err)
	}
	if _, err := cronParser.Parse(c.IndexerCron); err != nil {
		return fmt.Errorf("%s_INDEXER_CRON: %w", c.Family, err)
	}
	return nil
}

func validatePrivateKeyHex(hexKey string) error {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if trimmed == "" {
		return fmt.Errorf("must be non-empty hex")
	}
	if len(trimmed)%2 != 0 {
		return fmt.Errorf("must have an even number of hex digits")
	}
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("contains non-hex character %q", r)
		}
	}
	return nil
}
