package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"Lee_Social/internal/config"
	"Lee_Social/internal/handler"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
	"Lee_Social/internal/repository/redis"
	"Lee_Social/internal/router"
	"Lee_Social/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}
	initLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.Open(cfg.MySQL)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	slog.Info("connected to mysql")

	// 连接redis
	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	slog.Info("connected to redis", "addr", cfg.Redis.Addr)

	sender, closer, err := newSender(cfg.Notify)
	if err != nil {
		return err
	}
	defer closer.Close()

	repos := service.NewRepos(db)
	tokens := pkg.NewTokenManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	sessions := &redis.TokenRepository{Client: rdb}
	emitter := service.NewOutboxEmitter(repos.Outbox)

	emailSvc := service.NewEmailService(pkg.NewSMTPMailer(cfg.SMTP), &redis.EmailRepository{Client: rdb}, repos.Users)
	userSvc := service.NewUserService(repos, sessions, tokens, emailSvc)
	followSvc := service.NewFollowService(repos, emitter)
	friendSvc := service.NewFriendService(repos, emitter)
	blockSvc := service.NewBlockService(repos, cfg.Relation.BlockDissolvesTies)
	listSvc := service.NewListService(repos)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	resp := handler.Responder{Debug: !cfg.IsProduction()}
	engine := router.InitRouter(router.Deps{
		Responder: resp,
		Verifier:  service.NewIdentityService(tokens, sessions),
		User:      handler.NewUserHandler(resp, userSvc),
		Email:     handler.NewEmailHandler(resp, emailSvc),
		Follow:    handler.NewFollowHandler(resp, followSvc, listSvc),
		Friend:    handler.NewFriendHandler(resp, friendSvc, listSvc),
		Block:     handler.NewBlockHandler(resp, blockSvc, listSvc),
		Ready: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})

	corsOpts := cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}
	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           cors.New(corsOpts).Handler(engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	relayer := service.NewOutboxRelayer(repos.Outbox, sender, cfg.Notify.BatchSize, cfg.Notify.Interval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		relayer.Run(ctx)
	}()
	if cfg.Reconciler.Enabled {
		reconciler := service.NewFollowCountReconciler(repos.Reconcile, cfg.Reconciler.BatchSize, cfg.Reconciler.Interval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reconciler.ReconcilerRun(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.App.HTTPAddr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}
	stop()
	wg.Wait()
	slog.Info("server exited")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newSender 按配置选择 outbox 的投递方式
func newSender(cfg config.NotifyConfig) (service.Sender, io.Closer, error) {
	switch cfg.Driver {
	case config.NotifyKafka:
		p := pkg.NewKafkaProducer(cfg.Kafka)
		slog.Info("outbox relays to kafka", "topic", cfg.Kafka.Topic)
		return service.KafkaSender(p), p, nil
	case config.NotifyNats:
		p, err := pkg.NewNatsPublisher(cfg.Nats)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("outbox relays to nats", "subject", cfg.Nats.Subject)
		return service.NatsSender(p), p, nil
	default:
		return service.LogSender, nopCloser{}, nil
	}
}
