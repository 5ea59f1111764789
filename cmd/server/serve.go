package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/dmcore/internal/auth"
	"github.com/vedran77/dmcore/internal/observability"
	"github.com/vedran77/dmcore/internal/retention"
	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/internal/transport/http/handlers"
	"github.com/vedran77/dmcore/internal/transport/http/middleware"
	"github.com/vedran77/dmcore/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket hub and retention scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := observability.Logger()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	// Services
	directory := service.NewRepoDirectory(b.contacts)
	convService := service.NewConversationService(b.dms, directory)
	msgService := service.NewMessageService(b.dms)

	// Real-time fan-out, with offline alerts on top
	hub := ws.NewHub(b.dms)
	notifier := service.NewAlerter(ws.NewHubNotifier(hub), service.LogSink{}, hub, directory)
	convService.SetNotifier(notifier)
	msgService.SetNotifier(notifier)

	scheduler := retention.NewScheduler(b.retention, b.dms, convService, retention.Config{
		Window:   cfg.RetentionWindow,
		Interval: cfg.RetentionInterval,
	})

	// Routes
	tokens := auth.NewTokens(cfg.JWTSecret)
	mux := http.NewServeMux()
	handlers.Register(mux, middleware.Auth(tokens),
		handlers.NewConversationHandler(convService),
		handlers.NewMessageHandler(msgService),
	)
	mux.Handle("GET /ws", ws.ServeWS(hub, tokens, cfg.AllowedOrigins))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           middleware.RequestID(middleware.CORS(cfg.AllowedOrigins)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("backend", cfg.StorageBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
