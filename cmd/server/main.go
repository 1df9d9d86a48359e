package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"trustplane/internal/admin"
	compliancehandler "trustplane/internal/compliance/handler"
	compliancemetrics "trustplane/internal/compliance/metrics"
	complianceservice "trustplane/internal/compliance/service"
	compliancestore "trustplane/internal/compliance/store"
	credentialhandler "trustplane/internal/credential/handler"
	credentialmetrics "trustplane/internal/credential/metrics"
	credentialservice "trustplane/internal/credential/service"
	credentialstore "trustplane/internal/credential/store"
	"trustplane/internal/credential/store/throttle"
	"trustplane/internal/platform/config"
	"trustplane/internal/platform/httpserver"
	"trustplane/internal/platform/logger"
	"trustplane/internal/platform/metrics"
	"trustplane/internal/platform/postgres"
	redisclient "trustplane/internal/platform/redis"
	"trustplane/internal/risk"
	riskhandler "trustplane/internal/risk/handler"
	riskmetrics "trustplane/internal/risk/metrics"
	riskservice "trustplane/internal/risk/service"
	riskstore "trustplane/internal/risk/store"
	httptransport "trustplane/internal/transport/http"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/audit/outbox"
	"trustplane/pkg/platform/audit/publisher"
	auditmemory "trustplane/pkg/platform/audit/store/memory"
	auditpostgres "trustplane/pkg/platform/audit/store/postgres"
	adminmw "trustplane/pkg/platform/middleware/admin"
)

// credentialStore is what both the credential and compliance services need
// from the credential table.
type credentialStore interface {
	credentialservice.Store
	complianceservice.CredentialStore
}

// subjectStore is the subject registry: compliance reads and erases it and
// credential issuance checks owners against it.
type subjectStore interface {
	complianceservice.Store
	credentialservice.OwnerDirectory
}

// stores groups the persistence choice: Postgres when DATABASE_URL is set,
// in-memory otherwise.
type stores struct {
	db          *sql.DB
	credentials credentialStore
	signals     riskservice.SignalsStore
	subjects    subjectStore
	tx          complianceservice.TxRunner
	audit       audit.Store
}

// main wires high-level dependencies, exposes the HTTP router, and runs the
// server and the audit relay until a signal arrives. Business logic lives in
// internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("trustplane exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	health := map[string]httptransport.HealthCheck{}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
		health["postgres"] = st.db.PingContext
	}

	pubOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	}
	if cfg.AuditBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.AuditBuffer))
	}
	auditor := publisher.NewPublisher(st.audit, pubOpts...)
	defer auditor.Close()

	credOpts := []credentialservice.Option{
		credentialservice.WithLogger(log),
		credentialservice.WithAuditRecorder(auditor),
		credentialservice.WithMetrics(credentialmetrics.New(reg)),
		credentialservice.WithOwnerDirectory(st.subjects),
	}
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		health["redis"] = rdb.Health
		credOpts = append(credOpts, credentialservice.WithTouchThrottle(
			throttle.NewRedis(rdb, cfg.Credentials.TouchInterval, throttle.WithLogger(log))))
	}
	credentials, err := credentialservice.New(st.credentials, credentialservice.Config{
		Prefix:   cfg.Credentials.Prefix,
		Length:   cfg.Credentials.Length,
		HashSalt: cfg.Credentials.HashSalt,
	}, credOpts...)
	if err != nil {
		return fmt.Errorf("credential service: %w", err)
	}

	engine := risk.NewEngine(risk.Config{
		Thresholds: cfg.Risk.Thresholds(),
		Weights:    cfg.Risk.Weights,
	})
	risks, err := riskservice.New(st.signals, engine,
		riskservice.WithLogger(log),
		riskservice.WithAuditRecorder(auditor),
		riskservice.WithMetrics(riskmetrics.New(reg)),
	)
	if err != nil {
		return fmt.Errorf("risk service: %w", err)
	}

	compliance, err := complianceservice.New(st.subjects, st.tx, st.credentials,
		complianceservice.Config{ConsentTTL: cfg.ConsentTTL},
		complianceservice.WithLogger(log),
		complianceservice.WithAuditRecorder(auditor),
		complianceservice.WithMetrics(compliancemetrics.New(reg)),
	)
	if err != nil {
		return fmt.Errorf("compliance service: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:      log,
		Gatherer:    reg,
		HTTP:        metrics.NewHTTP(reg),
		AdminTokens: adminmw.NewTokenValidator(cfg.AdminJWTSigningKey, "trustplane"),
		APIKeys:     credentials,
		Admin: []httptransport.Registrar{
			credentialhandler.New(credentials, log),
			compliancehandler.New(compliance, log),
			admin.New(auditor, log),
		},
		Clients: []httptransport.Registrar{
			riskhandler.New(risks, log),
		},
		Health: health,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting trustplane", "addr", cfg.Server.Addr, "postgres", st.db != nil, "redis", rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down trustplane")
		return srv.Shutdown(shutdownCtx)
	})

	if st.db != nil && len(cfg.Kafka.Brokers) > 0 {
		relay, producer, err := newRelay(gctx, cfg, st.db, reg, log)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer producer.Close()
		g.Go(func() error {
			log.Info("audit outbox relay started", "topic", cfg.Kafka.AuditTopic)
			return relay.Run(gctx)
		})
	}

	return g.Wait()
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		subjects := compliancestore.NewInMemoryStore()
		if cfg.Database.MemorySeed != "" {
			n, err := seedSubjects(cfg.Database.MemorySeed, subjects)
			if err != nil {
				return nil, err
			}
			log.Info("in-memory subjects seeded", "path", cfg.Database.MemorySeed, "subjects", n)
		}
		// Risk signals read the same subject rows so erasure is seen by checkout.
		return &stores{
			credentials: credentialstore.NewInMemoryStore(),
			signals:     subjects,
			subjects:    subjects,
			tx:          compliancestore.NewInMemoryTx(),
			audit:       auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("database schema applied")
	}
	return &stores{
		db:          db,
		credentials: credentialstore.NewPostgres(db),
		signals:     riskstore.NewPostgres(db),
		subjects:    compliancestore.NewPostgres(db),
		tx:          compliancestore.NewPostgresTx(db),
		audit:       auditpostgres.New(db),
	}, nil
}

func newRelay(ctx context.Context, cfg config.Config, db *sql.DB, reg prometheus.Registerer, log *slog.Logger) (*outbox.Relay, *outbox.KafkaProducer, error) {
	producer, err := outbox.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.EnsureAuditTopic {
		if err := producer.EnsureTopic(ctx, cfg.Kafka.TopicPartitions, cfg.Kafka.TopicReplication); err != nil {
			producer.Close()
			return nil, nil, err
		}
	}
	relay := outbox.NewRelay(db, producer,
		outbox.WithLogger(log),
		outbox.WithMetrics(outbox.NewMetrics(reg)),
		outbox.WithBatchSize(cfg.Kafka.RelayBatchSize),
		outbox.WithInterval(cfg.Kafka.RelayInterval),
	)
	return relay, producer, nil
}
