package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/dhumbal/config"
	"github.com/wfunc/dhumbal/logger"
	"github.com/wfunc/dhumbal/monitor"
	"github.com/wfunc/dhumbal/persistence"
	"github.com/wfunc/dhumbal/server"
	"github.com/wfunc/dhumbal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.Log.Mode); err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logger.Sync()

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if db != nil {
		logger.Log.Infof("Database connection successful (%s).", cfg.Database.Driver)
		defer db.Close()
	} else {
		logger.Log.Info("No database configured, game records are not stored.")
	}

	mon := monitor.NewMonitor("dhumbal")
	metricsServer := mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, services.NewRecordService(db), mon)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Log.Info("Shutting down.")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsServer.Shutdown(ctx)
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("shutdown: %v", err)
		}
	}()

	// Start Server
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
