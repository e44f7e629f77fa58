// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxcal/internal/calendar"
	calmetrics "taxcal/internal/calendar/metrics"
	"taxcal/internal/calendar/service"
	"taxcal/internal/calendar/store"
	attachmentstore "taxcal/internal/calendar/store/attachment"
	instancestore "taxcal/internal/calendar/store/instance"
	profilestore "taxcal/internal/calendar/store/profile"
	templatestore "taxcal/internal/calendar/store/template"
	"taxcal/internal/documents"
	"taxcal/internal/jwttoken"
	"taxcal/internal/plangate"
	"taxcal/internal/platform/config"
	"taxcal/internal/platform/httpserver"
	"taxcal/internal/platform/logger"
	"taxcal/internal/platform/postgres"
	platformredis "taxcal/internal/platform/redis"
	"taxcal/internal/revenue"
	"taxcal/internal/scheduler"
	httptransport "taxcal/internal/transport/http"
	"taxcal/pkg/platform/audit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Primary store: Postgres when configured, in-process otherwise.
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		profiles    service.ProfileStore
		templates   service.TemplateStore
		instances   service.InstanceStore
		attachments service.AttachmentStore
		revenueSrc  revenue.Source
		docs        documents.Checker
		marks       scheduler.HighWaterStore
	)
	if pool != nil {
		if err := store.Migrate(ctx, pool); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		profiles = profilestore.NewPostgres(pool)
		templates = templatestore.NewPostgres(pool)
		instances = instancestore.NewPostgres(pool)
		attachments = attachmentstore.NewPostgres(pool)
		revenueSrc = revenue.NewPostgres(pool)
		docs = documents.NewPostgres(pool)
		marks = scheduler.NewPostgresHighWater(pool)
		defer pool.Close()
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		profiles = profilestore.NewInMemory()
		templates = templatestore.NewInMemory()
		instances = instancestore.NewInMemory()
		attachments = attachmentstore.NewInMemory()
		revenueSrc = revenue.NewInMemory()
		docs = documents.NewInMemory()
		marks = scheduler.NewInMemoryHighWater()
	}

	// Plan entitlements: Redis when configured, allow-all otherwise.
	var gate plangate.Gate = plangate.AllowAll{}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		gate = plangate.NewRedis(redisClient.Client)
		defer redisClient.Close()
	}

	// Audit trail: Kafka when configured, nop otherwise.
	var publisher audit.Publisher = audit.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	}

	metrics := calmetrics.New()
	svc := calendar.NewService(profiles, templates, instances, attachments, revenueSrc, docs,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithAuditPublisher(publisher),
	)
	handler := calendar.NewHandler(svc, log)
	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	router := httptransport.NewRouter(httptransport.Deps{
		Calendar:  handler,
		Validator: jwtService,
		Gate:      gate,
		Logger:    log,
		Health: func(r *http.Request) error {
			if pool != nil {
				return pool.Ping(r.Context())
			}
			return nil
		},
	})

	// Horizon-extension job.
	sched := scheduler.New(svc, profiles, marks, gate, log,
		scheduler.WithHorizon(time.Duration(cfg.HorizonDays)*24*time.Hour),
	)
	if cfg.CronSpec != "" {
		if err := sched.Start(cfg.CronSpec); err != nil {
			log.Error("scheduler start failed", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting tax calendar service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
