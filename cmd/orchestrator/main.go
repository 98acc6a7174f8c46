// cmd/orchestrator/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-orchestrator/internal/appraisal"
	"loan-orchestrator/internal/approval"
	"loan-orchestrator/internal/audit"
	"loan-orchestrator/internal/common/aws"
	"loan-orchestrator/internal/common/config"
	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/common/observability"
	"loan-orchestrator/internal/directory"
	"loan-orchestrator/internal/extraction"
	"loan-orchestrator/internal/gateway"
	"loan-orchestrator/internal/notification"
	"loan-orchestrator/internal/orchestrator"
	"loan-orchestrator/internal/rpc"
	"loan-orchestrator/internal/scoring"
	"loan-orchestrator/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan orchestrator...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	var obs *observability.Observability
	if cfg.Observability.Enabled {
		obs = observability.New(cfg.App.Name, cfg.Observability.JaegerEndpoint)
		defer obs.Shutdown()
	}

	ctx := context.Background()

	// --- Init Redis with retry (optional) ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init PostgreSQL with retry (optional) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Init Elasticsearch with retry (required when audit is enabled) ---
	var esClient *database.ElasticsearchClient
	if cfg.Audit.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Notification Delivery Clients ---
	var emailer notification.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailer = sesClient
	}

	var publisher notification.EventPublisher
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = snsClient
	}

	// --- Start Collaborator RPC Servers ---
	servers := buildCollaborators(cfg, pg, redis, emailer, publisher, log)
	for name, collab := range cfg.Collaborators {
		if !collab.Enabled {
			zapLog.Info("collaborator disabled", zap.String("collaborator", name))
			continue
		}
		srv, ok := servers[name]
		if !ok {
			zapLog.Fatal("no server wired for collaborator", zap.String("collaborator", name))
		}
		addr, err := listenAddr(collab.BaseURL)
		if err != nil {
			zapLog.Fatal("invalid collaborator base url",
				zap.String("collaborator", name), zap.Error(err))
		}
		go func(name, addr string, srv *rpc.Server) {
			zapLog.Info("collaborator listening",
				zap.String("collaborator", name), zap.String("addr", addr))
			if err := http.ListenAndServe(addr, srv); err != nil {
				zapLog.Fatal("collaborator server failed",
					zap.String("collaborator", name), zap.Error(err))
			}
		}(name, addr, srv)
	}

	// --- Wire the Saga ---
	rpcClient := rpc.NewClient(cfg.RPC, cfg.Collaborators, log)

	opts := orchestrator.Options{Obs: obs}
	if redis != nil {
		opts.Store = store.New(redis, log)
	}
	if esClient != nil {
		opts.Audit = audit.NewIndexer(esClient, cfg.Audit.Index, log)
	}
	orch := orchestrator.New(rpcClient, log, opts)

	gw, err := gateway.New(orch, log)
	if err != nil {
		zapLog.Fatal("gateway init failed", zap.Error(err))
	}

	gatewayAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    gatewayAddr,
		Handler: gw.Handler(),
	}
	go func() {
		zapLog.Info("gateway listening", zap.String("addr", gatewayAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("gateway server failed", zap.Error(err))
		}
	}()

	zapLog.Info("All services started")

	// --- Wait for Shutdown Signal ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("gateway shutdown incomplete", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}

// buildCollaborators wires one RPC server per collaborator. The directory
// uses PostgreSQL when configured and the seeded in-memory store otherwise;
// the appraisal market gains a Redis read-through cache when Redis is up.
func buildCollaborators(cfg *config.Config, pg *database.PostgresClient, redis *database.RedisClient, emailer notification.EmailSender, publisher notification.EventPublisher, log logger.Logger) map[string]*rpc.Server {
	clientStore := directory.NewMemoryStore()
	if pg != nil {
		clientStore = directory.NewPostgresStore(pg)
	}

	market := appraisal.NewStaticMarket()
	if redis != nil {
		market = appraisal.NewCachedMarket(redis, market, log)
	}

	servers := make(map[string]*rpc.Server)

	directorySrv := rpc.NewServer("directory", log)
	directory.RegisterOps(directorySrv, directory.NewService(clientStore, log))
	servers["directory"] = directorySrv

	extractionSrv := rpc.NewServer("extraction", log)
	extraction.RegisterOps(extractionSrv, extraction.NewService(log))
	servers["extraction"] = extractionSrv

	scoringSrv := rpc.NewServer("scoring", log)
	scoring.RegisterOps(scoringSrv, scoring.NewService(log))
	servers["scoring"] = scoringSrv

	appraisalSrv := rpc.NewServer("appraisal", log)
	appraisal.RegisterOps(appraisalSrv, appraisal.NewService(market, log))
	servers["appraisal"] = appraisalSrv

	approvalSrv := rpc.NewServer("approval", log)
	approval.RegisterOps(approvalSrv, approval.NewService(log))
	servers["approval"] = approvalSrv

	notificationSrv := rpc.NewServer("notification", log)
	notification.RegisterOps(notificationSrv, notification.NewService(cfg.Notifications, emailer, publisher, log))
	servers["notification"] = notificationSrv

	return servers
}

func listenAddr(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	port := u.Port()
	if port == "" {
		return "", fmt.Errorf("base url %q has no explicit port", baseURL)
	}
	return ":" + port, nil
}
