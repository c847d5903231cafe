package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
	"github.com/zhouzirui/agent-chat/backend/internal/handler"
	"github.com/zhouzirui/agent-chat/backend/internal/logger"
	"github.com/zhouzirui/agent-chat/backend/internal/metrics"
	"github.com/zhouzirui/agent-chat/backend/internal/service/agent"
	"github.com/zhouzirui/agent-chat/backend/internal/service/chat"
	"github.com/zhouzirui/agent-chat/backend/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		envFile string
		addr    string
	)

	cmd := &cobra.Command{
		Use:           "agent-chat",
		Short:         "Chat session backend relaying queries to the ts-ai-agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), envFile, addr)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")

	return cmd
}

func run(parent context.Context, envFile, addrOverride string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		logger.Setup(config.LogConfig{Level: "info"})
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}
	logger.Setup(cfg.Log)

	if envErr != nil {
		log.Warn().Err(envErr).Str("file", envFile).Msg("continuing with system environment variables only")
	}

	if addrOverride != "" {
		cfg.Server.Addr, err = config.ParseAddr(addrOverride)
		if err != nil {
			log.Error().Err(err).Msg("invalid --addr")
			return err
		}
	}

	sessionStore, err := store.New(cfg.Store)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize session store")
		return err
	}
	defer sessionStore.Close()

	m := metrics.New()

	gateway, err := agent.New(ctx, cfg.Agent, cfg.AI)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize agent gateway, falling back to mock responses")
		gateway = agent.NewMockGateway()
	}
	log.Info().
		Str("mode", gateway.Mode()).
		Str("agent_path", cfg.Agent.Path).
		Bool("agent_available", agent.Available(cfg.Agent)).
		Str("store", string(cfg.Store.Backend)).
		Msg("Agent gateway initialized")

	chatService := chat.NewService(sessionStore, agent.Observe(gateway, m), chat.WithMetrics(m))
	router := handler.NewRouter(chatService, cfg.Agent, m)

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

	log.Info().Str("addr", addr).Msg("agent-chat backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}
	return nil
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
