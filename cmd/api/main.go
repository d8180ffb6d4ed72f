package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/salescrm/orders-backend/internal/catalog"
	"github.com/salescrm/orders-backend/internal/config"
	"github.com/salescrm/orders-backend/internal/directory"
	"github.com/salescrm/orders-backend/internal/httpx"
	kafkax "github.com/salescrm/orders-backend/internal/kafka"
	"github.com/salescrm/orders-backend/internal/orders"
	"github.com/salescrm/orders-backend/internal/postgres"
	"github.com/salescrm/orders-backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, logger)
	pCreated.Start(ctx)
	pUpdated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderUpdated, 1024, logger)
	pUpdated.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, logger)
	pCancelled.Start(ctx)

	// Service & handlers
	svc := &orders.Service{
		Directory:        &directory.Repo{DB: db},
		Ledger:           &catalog.PostgresLedger{DB: db},
		Store:            &orders.PostgresStore{DB: db},
		Log:              logger,
		StrictStatusFlow: cfg.StrictStatusFlow,
	}
	auth := &httpx.Authenticator{Secret: []byte(cfg.JWTSecret)}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Service:           svc,
		Redis:             rdb,
		Auth:              auth,
		ProducerCreated:   pCreated,
		ProducerUpdated:   pUpdated,
		ProducerCancelled: pCancelled,
		ServiceName:       cfg.ServiceName,
	}
	oh.Register(router)
	ch := &httpx.CatalogHandler{
		Catalog:   &catalog.Repo{DB: db},
		Directory: &directory.Repo{DB: db},
		Auth:      auth,
	}
	ch.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range []*kafkax.Producer{pCreated, pUpdated, pCancelled} {
		p.Close() // close inbox -> flush & close writer
	}
	cancel() // stop producer loops
	for _, p := range []*kafkax.Producer{pCreated, pUpdated, pCancelled} {
		p.WaitClosed() // drain
	}
}
