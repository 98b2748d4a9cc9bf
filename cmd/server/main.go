package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/application/dispatcher"
	"github.com/flowchain/approval-engine/internal/application/service"
	"github.com/flowchain/approval-engine/internal/config"
	"github.com/flowchain/approval-engine/internal/domain/event"
	httpapi "github.com/flowchain/approval-engine/internal/interfaces/http"
	"github.com/flowchain/approval-engine/internal/lock"
	"github.com/flowchain/approval-engine/internal/notification"
	"github.com/flowchain/approval-engine/internal/repository"
	"github.com/flowchain/approval-engine/pkg/database"
	"github.com/flowchain/approval-engine/pkg/utils"
)

func main() {
	// Load .env if present; real env vars win.
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval chain engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	workflowRepo := repository.NewWorkflowRepository(db, logger)
	transitionRepo := repository.NewTransitionRepository(db, logger)
	sectionRepo := repository.NewSectionRepository(db, logger)
	requestRepo := repository.NewRequestRepository(db, logger)
	roleRepo := repository.NewRoleRepository(db, logger)
	templateRepo := repository.NewTemplateRepository(db, logger)
	txManager := repository.NewTxManager(db)
	requestIntake := repository.NewRequestIntake(db, logger)

	familyLock, err := buildFamilyLock(cfg.Lock, logger)
	if err != nil {
		logger.Fatal("Failed to initialize family lock", zap.Error(err))
	}

	kvLogger := utils.NewKVLogger(logger)

	events := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))
	defer events.Close()
	registerAuditSubscriber(events, logger)

	notifier := notification.NewLogNotifier(logger)

	// Services
	resolver := service.NewGraphResolver(workflowRepo, transitionRepo, templateRepo, kvLogger)
	versions := service.NewVersionManager(workflowRepo, transitionRepo, requestRepo, roleRepo,
		txManager, familyLock, events, kvLogger)
	transitions := service.NewTransitionEngine(workflowRepo, transitionRepo, requestRepo,
		resolver, requestIntake, notifier, txManager, events, kvLogger)
	progress := service.NewProgressService(requestRepo, workflowRepo, sectionRepo, roleRepo, kvLogger)
	roles := service.NewRoleService(roleRepo, sectionRepo, txManager, kvLogger)
	batch := service.NewBatchService(versions, transitions, roles, kvLogger)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpapi.Services{
		Versions:    versions,
		Transitions: transitions,
		Resolver:    resolver,
		Progress:    progress,
		Roles:       roles,
		Batch:       batch,
	}, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// buildFamilyLock selects the lock backend. Local covers a single replica;
// redis extends the family serialization boundary across replicas.
func buildFamilyLock(cfg config.LockConfig, logger *zap.Logger) (lock.FamilyLock, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("Using redis family lock", zap.String("addr", cfg.RedisAddr))
		return lock.NewRedisFamilyLock(client, cfg.TTL, cfg.RetryInterval), nil
	default:
		logger.Info("Using local family lock")
		return lock.NewLocalFamilyLock(), nil
	}
}

// registerAuditSubscriber logs every engine event. Downstream automations and
// UI push channels subscribe the same way.
func registerAuditSubscriber(events dispatcher.Dispatcher, logger *zap.Logger) {
	auditTypes := []event.Type{
		event.TypeWorkflowActivated,
		event.TypeWorkflowArchived,
		event.TypeWorkflowUnarchived,
		event.TypeVersionCreated,
		event.TypeVersionRestored,
		event.TypeTransitionCreated,
		event.TypeTransitionUpdated,
		event.TypeTransitionDeleted,
		event.TypeRequestSpawned,
		event.TypeManualTriggerPending,
	}
	for _, t := range auditTypes {
		events.SubscribeNamed(t, "audit-log", func(ctx context.Context, evt *event.Event) error {
			logger.Info("Engine event",
				zap.String("event_type", evt.Type.String()),
				zap.String("aggregate_id", evt.AggregateID),
				zap.String("business_unit_id", evt.BusinessUnitID),
				zap.String("correlation_id", evt.CorrelationID),
				zap.String("initiator_id", evt.GetPayloadString("initiator_id")),
				zap.Any("payload", evt.Payload))
			return nil
		})
	}
}
