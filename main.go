package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aouyang1/pptmaker/api"
	"github.com/aouyang1/pptmaker/api/client"
	"github.com/aouyang1/pptmaker/store"
	"github.com/aouyang1/pptmaker/workflow"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize database
	database, err := store.NewDatabase(filepath.Join(cfg.RootPath, "pptmaker.db"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	localManager, err := api.NewLocalManager(filepath.Join(cfg.RootPath, "documents"))
	if err != nil {
		log.Fatalf("Failed to initialize local manager: %v", err)
	}

	backend := client.NewBackendClient(cfg.BackendURL, cfg.SettingsURL, cfg.HTTPTimeout)
	var outliner workflow.Outliner = backend
	if cfg.OutlineSource == outlineSourceOpenAI {
		outliner = client.NewOpenAIOutliner(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settingsManager := api.NewSettingsManager(backend, database)
	go func() {
		if err := settingsManager.Initialize(ctx); err != nil {
			slog.Warn("serving fallback settings", "error", err)
		}
	}()
	usageManager := api.NewUsageManager(database, settingsManager, api.StaticEntitlement(cfg.Premium))

	controller := workflow.New(outliner, backend, localManager, workflow.Config{
		SendDefaultTone: cfg.SendDefaultTone,
	})

	var remoteManager *api.RemoteManager
	if cfg.S3Bucket != "" {
		remoteManager, err = api.NewRemoteManager(localManager, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSProfile)
		if err != nil {
			log.Fatalf("Failed to initialize remote manager: %v", err)
		}
	}

	slog.Info("starting pptmaker",
		"root", cfg.RootPath,
		"backend", cfg.BackendURL,
		"outline_source", cfg.OutlineSource,
		"premium", cfg.Premium,
		"s3_backup", remoteManager != nil,
	)

	webServer := api.NewWebServer(controller, localManager, remoteManager, settingsManager, usageManager)
	if err := webServer.Start(ctx, cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
