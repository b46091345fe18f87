package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/offer-monitor/internal/api"
	"github.com/ignite/offer-monitor/internal/app"
	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("OFFER_MONITOR_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Build(ctx, cfg, app.Options{Observer: api.Metrics{}})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer rt.Close()

	logger.Info("analysis ready",
		"rule_set", cfg.Analysis.RuleSet,
		"source", cfg.Source.Type,
		"storage", cfg.Storage.Type)

	if cfg.Source.ScheduleMinutes > 0 {
		if rt.Service.HasSource() {
			go rt.Service.Schedule(ctx, time.Duration(cfg.Source.ScheduleMinutes)*time.Minute)
		} else {
			logger.Warn("schedule_minutes set but no source configured; scheduling disabled")
		}
	}

	var archive api.ReportArchive
	if rt.Store != nil {
		archive = rt.Store
	}
	server := api.NewServer(cfg.Server, api.NewHandlers(rt.Service, archive, cfg.Server.MaxUploadMB))

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	// Stop the schedule before draining requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
