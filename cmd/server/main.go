package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/skyplanner/internal/api"
	"github.com/yegors/skyplanner/internal/config"
	"github.com/yegors/skyplanner/internal/flightplan"
	"github.com/yegors/skyplanner/internal/platform"
	"github.com/yegors/skyplanner/internal/storage/sqlite"
	"github.com/yegors/skyplanner/internal/websocket"
	"github.com/yegors/skyplanner/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Skyplanner server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Load platform profiles
	platforms, err := platform.LoadTable(cfg.Platforms.ProfilesPath, cfg.Platforms.DefaultPlatform)
	if err != nil {
		log.Error("Failed to load platform profiles", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Loaded platform profiles",
		logger.String("path", cfg.Platforms.ProfilesPath),
		logger.Int("platforms", len(platforms.All())),
		logger.String("default", platforms.Default().Name))

	// Create SQLite storage
	dbPath := cfg.Storage.SQLitePath
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Error("Failed to create database directory", logger.Error(err), logger.String("path", dir))
			os.Exit(1)
		}
	}
	planStorage, err := sqlite.NewFlightPlanStorage(dbPath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer planStorage.Close()
	log.Info("Using SQLite storage", logger.String("path", dbPath))

	// Create WebSocket server
	wsServer := websocket.NewServer(log)

	// Start WebSocket server
	go wsServer.Run()

	// Create the kinematics engine and the flight plan service
	policy := flightplan.TurnPolicy{
		StraightMaxDeg: cfg.Trajectory.TurnStraightMaxDeg,
		WideMinDeg:     cfg.Trajectory.TurnWideMinDeg,
		ReversalMinDeg: cfg.Trajectory.TurnReversalMinDeg,
		MinExtraDeg:    cfg.Trajectory.TurnMinExtraDeg,
		MaxExtraSec:    cfg.Trajectory.TurnMaxExtraSecs,
	}
	engine := flightplan.NewEngine(platforms, policy, log)
	planService := flightplan.NewService(engine, planStorage, wsServer, log)

	// Create API router
	router := api.NewRouter(planService, cfg, log, wsServer)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	// Start a server for each configured port
	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(), // All servers use the same main router
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Close the WebSocket hub so clients get a clean disconnect
	wsServer.Close()

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
