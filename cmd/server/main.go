package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"custos/internal/audit"
	"custos/internal/auth"
	"custos/internal/mail"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/logger"
	"custos/internal/platform/metrics"
	"custos/internal/platform/postgres"
	platformredis "custos/internal/platform/redis"
	"custos/internal/store"
	httptransport "custos/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Workflow logic
// lives in internal/auth.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("postgres unavailable", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.NewPostgres(db)
	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}

	var mailer mail.Mailer = mail.NopMailer{}
	if cfg.MailServiceURL != "" {
		mailer = mail.NewClient(cfg.MailServiceURL)
	} else {
		log.Warn("no mail service configured, outbound mail is discarded")
	}

	g, ctx := errgroup.WithContext(ctx)

	// when Redis is configured, mail is enqueued and drained by a worker
	// so handlers never wait on the mail service
	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "err", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		queued := mail.NewQueuedMailer(mailer, rdb.Client, log, mail.DefaultMaxQueueSize)
		g.Go(func() error {
			queued.StartWorker(ctx)
			return nil
		})
		mailer = queued
	}

	var publisher audit.Publisher = audit.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka unavailable", "err", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}

	m := metrics.New()
	svc := auth.NewService(st, mailer, m, publisher, log, cfg.SiteExternalURL)
	router := httptransport.NewRouter(httptransport.NewHandler(svc), log, m)
	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting custos", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
