// Package di provides a dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"questengine/internal/config"
	"questengine/internal/database"
	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetUserService() (services.UserServiceInterface, error)
	GetQuestCatalogService() (services.QuestCatalogServiceInterface, error)
	GetQuestAssignmentService() (services.QuestAssignmentServiceInterface, error)
	GetQuestProgressService() (services.QuestProgressServiceInterface, error)
	GetStreakService() (services.StreakServiceInterface, error)
	GetRewardLedger() (services.RewardLedgerInterface, error)
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(_ context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	sc.initializeServices()

	return nil
}

// GetService retrieves a service by name
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, "user")
}

// GetQuestCatalogService returns the quest catalog service
func (sc *ServiceContainer) GetQuestCatalogService() (services.QuestCatalogServiceInterface, error) {
	return GetServiceAs[services.QuestCatalogServiceInterface](sc, "quest_catalog")
}

// GetQuestAssignmentService returns the quest assignment service
func (sc *ServiceContainer) GetQuestAssignmentService() (services.QuestAssignmentServiceInterface, error) {
	return GetServiceAs[services.QuestAssignmentServiceInterface](sc, "quest_assignment")
}

// GetQuestProgressService returns the quest progress service
func (sc *ServiceContainer) GetQuestProgressService() (services.QuestProgressServiceInterface, error) {
	return GetServiceAs[services.QuestProgressServiceInterface](sc, "quest_progress")
}

// GetStreakService returns the streak service
func (sc *ServiceContainer) GetStreakService() (services.StreakServiceInterface, error) {
	return GetServiceAs[services.StreakServiceInterface](sc, "streak")
}

// GetRewardLedger returns the reward ledger
func (sc *ServiceContainer) GetRewardLedger() (services.RewardLedgerInterface, error) {
	return GetServiceAs[services.RewardLedgerInterface](sc, "reward_ledger")
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	// Shutdown in reverse order of initialization
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}

// initializeServices sets up the service graph. Order matters: each service
// only depends on services constructed before it.
func (sc *ServiceContainer) initializeServices() {
	userService := services.NewUserService(sc.db, sc.logger)
	sc.services["user"] = userService

	generatorClient := services.NewHTTPGeneratorClient(sc.cfg, sc.logger)
	generatorService := services.NewQuestGeneratorService(generatorClient, sc.cfg, sc.logger)
	sc.services["quest_generator"] = generatorService

	catalogService := services.NewQuestCatalogService(sc.db, sc.logger, generatorService)
	sc.services["quest_catalog"] = catalogService

	assignmentService := services.NewQuestAssignmentService(sc.db, sc.logger, catalogService, userService)
	sc.services["quest_assignment"] = assignmentService

	rewardLedger := services.NewRewardLedger(sc.db, sc.logger)
	sc.services["reward_ledger"] = rewardLedger

	progressService := services.NewQuestProgressService(sc.db, sc.logger, assignmentService, userService, rewardLedger)
	sc.services["quest_progress"] = progressService

	streakService := services.NewStreakService(sc.db, sc.logger)
	sc.services["streak"] = streakService
}
