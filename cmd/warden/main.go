package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warden/internal/analytics"
	"warden/internal/audit"
	"warden/internal/bot"
	"warden/internal/config"
	"warden/internal/mailer"
	"warden/internal/modules/invitehelp"
	"warden/internal/modules/responses"
	"warden/internal/modules/roles"
	"warden/internal/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	auditLogger := audit.NewLogger(store, logger)
	analyticsService := analytics.New(store)

	responseTable, err := responses.LoadTable(cfg.Responses.Path)
	if err != nil {
		logger.Warn("response table unavailable", zap.String("path", cfg.Responses.Path), zap.Error(err))
		responseTable = responses.Table{}
	}
	roleBindings, err := roles.LoadBindings(cfg.Roles.Path)
	if err != nil {
		logger.Warn("role bindings unavailable", zap.String("path", cfg.Roles.Path), zap.Error(err))
		roleBindings = roles.Bindings{}
	}

	var inviteHelp *invitehelp.Module
	if cfg.InviteHelp.ChannelID != "" && cfg.InviteHelp.Sender != "" {
		ses, err := mailer.NewSES(context.Background(), cfg.InviteHelp.Region, cfg.InviteHelp.Sender, logger)
		if err != nil {
			logger.Fatal("ses init failed", zap.Error(err))
		}
		inviteHelp = invitehelp.New(cfg.InviteHelp, ses, logger)
	}

	botSvc, err := bot.New(cfg, logger, bot.Deps{
		Store:      store,
		Audit:      auditLogger,
		Analytics:  analyticsService,
		Responses:  responseTable,
		Roles:      roleBindings,
		InviteHelp: inviteHelp,
	})
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}
