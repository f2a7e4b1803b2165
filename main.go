package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"call-router/internal/agents"
	"call-router/internal/artifacts"
	"call-router/internal/common/logging"
	"call-router/internal/compiler"
	"call-router/internal/config"
	"call-router/internal/deploy"
	"call-router/internal/esl"
	"call-router/internal/handlers"
	"call-router/internal/locks"
	"call-router/internal/models"
	"call-router/internal/redis"
	"call-router/internal/routing"
	"call-router/internal/server"
	"call-router/internal/storage"
	"call-router/internal/storage/memory"
	"call-router/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.NewZapLogger(logging.Config{
		Level: logging.ParseLevel(cfg.LogLevel),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)
	defer logging.MustSync()

	ctx := context.Background()

	// Policy store: Postgres when configured, in-memory otherwise.
	var store storage.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to connect to database", err)
			os.Exit(1)
		}
		store = pg
		logger.Info("Using PostgreSQL policy store")
	} else {
		store = memory.New()
		logger.Info("Using in-memory policy store")
	}
	defer store.Close()

	// Redis backs the distributed deploy locks and the deploy event feed.
	redisDB, _ := strconv.Atoi(cfg.RedisDB)
	redisPool, _ := strconv.Atoi(cfg.RedisPoolSize)
	redisClient, err := redis.NewClient(&redis.Config{
		Address:  cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       redisDB,
		PoolSize: redisPool,
	})
	if err != nil {
		logger.Error("Failed to connect to Redis", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	lockMgr, err := locks.NewManager(redisClient, cfg.LockTTL())
	if err != nil {
		logger.Error("Failed to initialize deploy locks", err)
		os.Exit(1)
	}
	defer lockMgr.Close()

	// Switch control channel.
	eslPort, _ := strconv.Atoi(cfg.SwitchESLPort)
	switchClient := esl.NewClient(esl.ClientConfig{
		Host:     cfg.SwitchESLHost,
		Port:     eslPort,
		Password: cfg.SwitchESLPassword,
		Timeout:  cfg.CommandTimeout(),
	}, logger)
	defer switchClient.Close()

	monitor := esl.NewStatusMonitor(switchClient, cfg.SwitchStatusSchedule, cfg.CommandTimeout(), logger)
	if err := monitor.Start(); err != nil {
		logger.Error("Failed to start switch status monitor", err)
		os.Exit(1)
	}
	defer monitor.Stop()

	artifactStore := artifacts.NewStore(cfg.SwitchConfigPath, cfg.BackupPath, logger)
	agentMgr := agents.NewManager(logger)
	resolver := routing.NewResolver(store, agentMgr, logger)
	deployer := deploy.New(store, compiler.New(logger), artifactStore, switchClient, lockMgr, redisClient, logger)

	loadRosters(ctx, store, agentMgr, logger)

	h := handlers.New(store, resolver, agentMgr, deployer, monitor, logger)
	srv := server.New(h.Router(), cfg.Port)
	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server", err)
		os.Exit(1)
	}
	logger.Info("Server started", logging.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server exited")
}

// loadRosters seeds the live agent manager from the persisted queue
// agents so a restart does not forget tier configuration. Runtime
// status still resets to what the store recorded last.
func loadRosters(ctx context.Context, store storage.Store, agentMgr *agents.Manager, logger logging.Logger) {
	tenants, err := store.ListTenants(ctx)
	if err != nil {
		logger.Warn("Failed to list tenants for roster load", logging.Err(err))
		return
	}
	for _, tenant := range tenants {
		policy, err := store.PolicySet(ctx, tenant.ID)
		if err != nil {
			logger.Warn("Failed to load policy for roster",
				logging.String("tenant_id", tenant.ID), logging.Err(err))
			continue
		}
		byQueue := make(map[string][]models.QueueAgent)
		for _, agent := range policy.QueueAgents {
			byQueue[agent.QueueID] = append(byQueue[agent.QueueID], agent)
		}
		for queueID, roster := range byQueue {
			agentMgr.LoadRoster(queueID, roster)
		}
	}
}
