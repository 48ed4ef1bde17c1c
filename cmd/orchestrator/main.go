package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/oraclenet/orchestrator/internal/chain"
	"github.com/oraclenet/orchestrator/internal/chain/aptos"
	"github.com/oraclenet/orchestrator/internal/chain/rooch"
	"github.com/oraclenet/orchestrator/internal/chain/sui"
	"github.com/oraclenet/orchestrator/internal/config"
	"github.com/oraclenet/orchestrator/internal/indexer"
	"github.com/oraclenet/orchestrator/internal/keeper"
	"github.com/oraclenet/orchestrator/internal/logging"
	"github.com/oraclenet/orchestrator/internal/processor"
	"github.com/oraclenet/orchestrator/internal/proof"
	"github.com/oraclenet/orchestrator/internal/registry"
	"github.com/oraclenet/orchestrator/internal/store"
	"github.com/oraclenet/orchestrator/internal/store/memory"
	"github.com/oraclenet/orchestrator/internal/store/postgres"
	"github.com/oraclenet/orchestrator/internal/system"
)

func main() {
	runMigrations := flag.Bool("migrate", true, "run embedded database migrations on startup (ignored for in-memory storage)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log := logging.New(cfg.Logging, "orchestrator")

	st, closeStore, err := openStore(cfg, *runMigrations)
	if err != nil {
		log.WithError(err).Fatal("open event store")
	}
	defer closeStore()

	dynamicURLs, err := st.SupportedURLs(context.Background())
	if err != nil {
		log.WithError(err).Fatal("load supported url table")
	}

	httpClient := &http.Client{Timeout: 40 * time.Second}
	reg := registry.Bootstrap(context.Background(), cfg.Handlers, dynamicURLs, httpClient, log)

	// Every outbound handler API call made by a processor goes through a
	// process-wide token bucket, a defense-in-depth cap on total concurrent handler fan-out
	// that sits in front of (and is independent of) each handler's own
	// per-handler minInterval gate.
	limitedClient := registry.NewRateLimitedClient(httpClient, registry.DefaultRateLimitConfig())

	var verifier proof.Verifier
	if cfg.Proof.Enabled() {
		verifier = proof.NewHTTPVerifier(cfg.Proof.ProverURL, cfg.Proof.CanisterID, cfg.Proof.Seed, log)
	}

	manager := indexer.NewManager(log)

	for _, chainCfg := range cfg.Chains {
		adapter, err := buildAdapter(chainCfg, log)
		if err != nil {
			log.WithError(err).Fatalf("build %s adapter", chainCfg.ChainID)
		}

		// The processor gates on the oracle contract address carried by each
		// event, not the keeper's derived address: a keeper signs submissions,
		// but the oracle identity an event is addressed to is the configured
		// contract address itself.
		proc := processor.New(chainCfg.OracleAddress, reg, verifier, limitedClient, log)
		loop := indexer.NewChainLoop(chainCfg.ChainID, chainCfg.OracleAddress, chainCfg.IndexerCron, cfg.BatchSize, adapter, proc, st, log)
		if err := manager.Add(loop); err != nil {
			log.WithError(err).Fatalf("schedule %s indexer loop", chainCfg.ChainID)
		}
		log.WithField("chain", chainCfg.ChainID).WithField("cron", chainCfg.IndexerCron).Info("indexer loop scheduled")
	}

	services := []system.Service{manager}

	ctx := context.Background()
	for _, svc := range services {
		if err := svc.Start(ctx); err != nil {
			log.WithError(err).Fatalf("start %s", svc.Name())
		}
	}
	log.Info("orchestrator started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, svc := range services {
		if err := svc.Stop(shutdownCtx); err != nil {
			log.WithError(err).Errorf("stop %s", svc.Name())
		}
	}
	log.Info("orchestrator stopped")
}

func openStore(cfg *config.Config, runMigrations bool) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return memory.New(), func() {}, nil
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pgStore := postgres.New(db)
	if runMigrations {
		if err := pgStore.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return pgStore, func() { db.Close() }, nil
}

// buildAdapter loads the chain's keeper and constructs its chain.Adapter,
// dispatching on the configured chain family.
func buildAdapter(cfg config.ChainConfig, log *logging.Logger) (chain.Adapter, error) {
	k, err := keeper.Load(string(cfg.Family), cfg.PrivateKeyHex)
	if err != nil {
		return nil, err
	}

	switch cfg.Family {
	case config.ChainRooch:
		return rooch.New(cfg.ChainID, cfg.OracleAddress, cfg.RPCEndpoint, k, log), nil
	case config.ChainAptos:
		return aptos.New(cfg.ChainID, cfg.OracleAddress, cfg.RPCEndpoint, k, log), nil
	case config.ChainSui:
		return sui.New(cfg.ChainID, cfg.OracleAddress, cfg.RPCEndpoint, k, log), nil
	default:
		return nil, errUnsupportedFamily(cfg.Family)
	}
}

type errUnsupportedFamily config.ChainFamily

func (e errUnsupportedFamily) Error() string {
	return "unsupported chain family: " + string(e)
}
