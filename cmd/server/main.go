package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"mercadinho-be/internal/catalog"
	"mercadinho-be/internal/config"
	"mercadinho-be/internal/db"
	"mercadinho-be/internal/delivery"
	"mercadinho-be/internal/logger"
	"mercadinho-be/internal/middleware"
	"mercadinho-be/internal/oracle"
	"mercadinho-be/internal/order"
	"mercadinho-be/internal/policy"
	"mercadinho-be/internal/resolver"
	"mercadinho-be/internal/session"
	"mercadinho-be/internal/transport"
	"mercadinho-be/internal/weight"

	"go.uber.org/zap"
)

// Seams for tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router, err := newServer(cfg, database)
	if err != nil {
		return err
	}

	logger.L().Info("decision engine listening", zap.String("port", cfg.AppPort))
	return startServerFunc(":"+cfg.AppPort, router)
}

// newServer loads the reference data, builds the service graph, and returns
// the HTTP surface.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, error) {
	ctx := context.Background()

	repo := catalog.NewRepository(database)
	products, err := repo.ListProducts(ctx, catalog.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	index := catalog.NewIndex(products, catalog.DefaultSectorBoosts())
	logger.L().Info("catalog indexed", zap.Int("products", index.Len()))

	quotes := oracle.NewClient(cfg.OracleBaseURL, cfg.OracleAPIKey, oracle.Options{
		Timeout: cfg.OracleTimeout,
	})

	prefs, err := resolver.LoadPreferences(cfg.PreferencesPath)
	if err != nil {
		logger.L().Warn("preferences file not loaded, using defaults", zap.Error(err))
		prefs = resolver.DefaultPreferences()
	}
	res := resolver.NewService(index, quotes, prefs, resolver.Options{
		MaxCandidates: cfg.MaxCandidates,
		ItemTimeout:   cfg.ResolveTimeout,
	})

	weights, err := weight.LoadTable(cfg.WeightTablePath)
	if err != nil {
		return nil, fmt.Errorf("loading weight table: %w", err)
	}
	zones, err := delivery.LoadZones(cfg.ZoneTablePath)
	if err != nil {
		return nil, fmt.Errorf("loading zone table: %w", err)
	}
	engine, err := policy.LoadEngine(cfg.PaymentRulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading payment rules: %w", err)
	}

	store := session.NewStore(cfg.SessionWindow)
	intake := order.NewIntake(cfg.IntakeBaseURL, 10*time.Second)
	sessions := session.NewService(store, index, quotes, weights, zones, engine, intake)

	handler := transport.NewHandler(res, sessions)

	var mws []func(http.Handler) http.Handler
	if cfg.ServiceSecret != "" {
		mws = append(mws, middleware.ServiceAuth([]byte(cfg.ServiceSecret)))
	} else {
		logger.L().Warn("SERVICE_SECRET not set, API is unauthenticated")
	}
	mws = append(mws, middleware.NewRateLimiter().Middleware)

	return handler.Routes(mws...), nil
}
