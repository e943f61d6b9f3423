package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chaingate.org/internal/config"
	"chaingate.org/internal/gateway"
	"chaingate.org/internal/httpapi"
	"chaingate.org/internal/ledger"
	"chaingate.org/internal/ledger/remote"
	"chaingate.org/internal/obs"
	"chaingate.org/internal/operation"
	"chaingate.org/internal/ratelimit"
	"chaingate.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	configPath := os.Getenv("CHAINGATE_CONFIG")
	if configPath == "" {
		configPath = "chaingate.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	node := remote.New(cfg.NodeURL)

	// Hooks that need account existence checks go through the node.
	registry, err := operation.NewRegistry(operation.Config{
		AccountLookup: accountLookup(node),
	})
	if err != nil {
		log.Fatalf("build operation registry: %v", err)
	}

	signing := ledger.SigningMaterial{
		Posting: os.Getenv("CHAINGATE_BROADCAST_WIF"),
		Active:  os.Getenv("CHAINGATE_BROADCAST_ACTIVE_WIF"),
	}
	gw := gateway.NewService(registry, node,
		gateway.WithDefaultScope(cfg.AuthorizedOperations),
		gateway.WithSigningMaterial(signing),
	)

	// Postgres is optional: without it registration falls back to an
	// in-memory window and token revocation is disabled.
	var (
		store      *pg.Store
		windows    ratelimit.Store = ratelimit.NewMemoryStore()
		readyProbe httpapi.ReadyProbe
		apiOpts    []httpapi.Option
	)
	if dsn := os.Getenv("CHAINGATE_PG_DSN"); dsn != "" {
		store, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("ensure schema: %v", err)
		}
		cancel()
		windows = store.RateWindows()
		readyProbe = httpapi.ReadyProbe{DB: store.DB()}
		apiOpts = append(apiOpts,
			httpapi.WithTokenStore(store),
			httpapi.WithAppStore(store),
			httpapi.WithMetadataStore(store, cfg.UserMetadata.MaxSize),
		)
	}

	limiter := ratelimit.New(windows, cfg.Registration.Limiter())
	apiOpts = append(apiOpts,
		httpapi.WithRegistration(limiter, cfg.Creator),
		httpapi.WithSigningMaterial(signing),
	)

	api := httpapi.New(gw, node, readyProbe, version, apiOpts...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting chaingate-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}

// accountLookup adapts the node client to the registry's hook interface.
func accountLookup(client ledger.Client) operation.AccountLookup {
	return func(ctx context.Context, names []string) ([]string, error) {
		accounts, err := client.GetAccounts(ctx, names)
		if err != nil {
			return nil, err
		}
		existing := make([]string, 0, len(accounts))
		for _, account := range accounts {
			existing = append(existing, account.Name)
		}
		return existing, nil
	}
}
