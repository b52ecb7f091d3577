package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/datachat/internal/config"
	"github.com/zhouzirui/datachat/internal/handler"
	"github.com/zhouzirui/datachat/internal/service/ai"
	"github.com/zhouzirui/datachat/internal/service/analysis"
	"github.com/zhouzirui/datachat/internal/service/session"
	"github.com/zhouzirui/datachat/internal/view"
)

func newRunCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "run <entry>",
		Short: "Serve the app described by an entry template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, args[0], addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PORT)")
	return cmd
}

func run(ctx context.Context, entry, addr string) error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration (请检查 Ark 模型相关环境变量): %w", err)
	}

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to initialize AI service: %w", err)
	}
	log.Printf("AI service initialized with model %s", cfg.AI.Model)

	renderer, err := view.LoadRenderer(entry)
	if err != nil {
		return err
	}

	store := session.NewStore(func() *analysis.Session {
		return analysis.NewSession(aiService)
	}, cfg.Session.TTL)
	go store.Run(ctx, cfg.Session.SweepInterval)

	router := handler.NewRouter(store, renderer, cfg.Session, cfg.Upload)

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Data Analysis Chatbot listening on %s", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
