// Command server runs the document numbering and registry HTTP service.
// main wires configuration, storage, services, and the router; every business
// rule lives in the internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"registrar/internal/audit"
	"registrar/internal/audit/outbox"
	jwttoken "registrar/internal/jwt_token"
	nummetrics "registrar/internal/numbering/metrics"
	numberingservice "registrar/internal/numbering/service"
	numstore "registrar/internal/numbering/store"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/kafka"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	regmetrics "registrar/internal/registry/metrics"
	registryservice "registrar/internal/registry/service"
	registrystore "registrar/internal/registry/store"
	"registrar/internal/sites"
	httptransport "registrar/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	txRunner := postgres.NewTxRunner(db, cfg.LockTimeout)

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var cacheClient *goredis.Client
	if redisClient != nil {
		cacheClient = redisClient.Client
		defer redisClient.Close()
	} else {
		log.Info("redis not configured; document type cache disabled")
	}

	typeStore := numstore.NewCachedTypeStore(
		numstore.NewPostgresTypeStore(db), cacheClient, config.TypeCacheTTL, log)
	counterStore := numstore.NewPostgresCounterStore(db)
	issuedStore := numstore.NewPostgresIssuedStore(db)
	registryStore := registrystore.NewPostgresStore(db)
	siteStore := sites.NewPostgresStore(db)
	auditStore := audit.NewPostgresStore(db)
	recorder := audit.NewRecorder(auditStore, log)

	numberingSvc := numberingservice.NewService(
		typeStore, counterStore, issuedStore, registryStore, recorder,
		numberingservice.WithStoreTx(txRunner),
		numberingservice.WithMetrics(nummetrics.New()),
		numberingservice.WithSiteDirectory(siteStore),
	)
	registrySvc := registryservice.NewService(
		registryStore, typeStore, issuedStore, recorder,
		registryservice.WithStoreTx(txRunner),
		registryservice.WithMetrics(regmetrics.New()),
		registryservice.WithBusinessHours(audit.BusinessHours{
			Start: cfg.BusinessHoursStart,
			End:   cfg.BusinessHoursEnd,
		}),
	)
	adminSvc := numberingservice.NewAdminService(typeStore, counterStore)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "registrar", "registrar-api")
	validator := jwttoken.NewMiddlewareAdapter(jwtService)

	handler := httptransport.NewHandler(numberingSvc, registrySvc, adminSvc, siteStore, log)
	router := httptransport.NewRouter(handler, validator, log, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if redisClient != nil {
			return redisClient.Health(ctx)
		}
		return nil
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting registrar", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()

		worker := outbox.NewWorker(db, publisher, log)
		g.Go(func() error {
			log.Info("starting audit outbox worker", "topic", cfg.AuditTopic)
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Info("kafka not configured; audit events stay in the outbox table")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("registrar stopped")
}
