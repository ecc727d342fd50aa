package bootstrap

import (
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/segovia241/ia-erp-universal/internal/config"
	"github.com/segovia241/ia-erp-universal/internal/controller"
	"github.com/segovia241/ia-erp-universal/internal/pkg/logger"
	"github.com/segovia241/ia-erp-universal/internal/repository/contract"
	"github.com/segovia241/ia-erp-universal/internal/repository/file"
	"github.com/segovia241/ia-erp-universal/internal/repository/implementation"
	"github.com/segovia241/ia-erp-universal/internal/repository/memory"
	"github.com/segovia241/ia-erp-universal/internal/repository/redisrepo"
	"github.com/segovia241/ia-erp-universal/internal/service"
	"github.com/segovia241/ia-erp-universal/pkg/database"
	"github.com/segovia241/ia-erp-universal/pkg/interpreter"
	"github.com/segovia241/ia-erp-universal/pkg/llm/factory"
	pktNats "github.com/segovia241/ia-erp-universal/pkg/nats"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/orchestrator"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

type Container struct {
	// Controllers
	ResolverController controller.IResolverController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Owned resources released on shutdown
	Engine       *orchestrator.Orchestrator
	SessionStore interface{ Close() }
	Logger       logger.ILogger
}

// NewContainer wires the whole dependency graph. Vocabulary validation errors
// are fatal here: the resolver never starts on partial configuration.
func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	vocabCfg, err := vocabulary.LoadFile(cfg.Resolver.VocabularyPath)
	if err != nil {
		log.Panicf("Unable to load vocabulary config: %v", err)
	}
	index, err := vocabulary.NewIndex(vocabCfg)
	if err != nil {
		log.Panicf("Unable to compile vocabulary config: %v", err)
	}

	ttl := orchestrator.DefaultSessionTTL
	if vocabCfg.Settings.SessionTTLMinutes > 0 {
		ttl = time.Duration(vocabCfg.Settings.SessionTTLMinutes) * time.Minute
	}
	sweep := orchestrator.DefaultSweepInterval
	if vocabCfg.Settings.SweepIntervalMinutes > 0 {
		sweep = time.Duration(vocabCfg.Settings.SweepIntervalMinutes) * time.Minute
	}

	// 2. Session Store
	var sessionStore orchestrator.SessionStore
	var closable interface{ Close() }
	if cfg.Resolver.SessionStore == "redis" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Panicf("Invalid REDIS_URL: %v", err)
		}
		repo := redisrepo.NewSessionRepository(redis.NewClient(opts), ttl)
		sessionStore = repo
		closable = repo
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		repo := memory.NewSessionRepository(ttl, sweep)
		sessionStore = repo
		closable = repo
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	// 3. Endpoint Catalog
	var catalog contract.ICatalogRepository
	if cfg.Resolver.CatalogSource == "db" {
		gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		catalog = implementation.NewCatalogRepository(gormDB, cfg.Resolver.ErpId)
		log.Printf("[INFO] Using Endpoint Catalog: DATABASE")
	} else {
		fileCatalog, err := file.NewCatalogRepository(cfg.Resolver.CatalogPath)
		if err != nil {
			log.Panicf("Unable to load endpoint catalog: %v", err)
		}
		catalog = fileCatalog
		log.Printf("[INFO] Using Endpoint Catalog: FILE (%s)", cfg.Resolver.CatalogPath)
	}

	// 4. Engine
	engine := orchestrator.New(index, catalog, sessionStore)

	// 5. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	var natsPublisher *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPublisher, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS publisher disabled: %v", err)
			natsPublisher = nil
		}
	}

	// 6. Fallback Interpreter
	var fallback *interpreter.Interpreter
	if cfg.Fallback.Enabled {
		provider, err := factory.NewLLMProvider(cfg.Fallback.Provider, cfg.Fallback.Model, cfg.Fallback.BaseURL, cfg.Fallback.APIKey)
		if err != nil {
			log.Printf("[WARN] Fallback interpreter disabled: %v", err)
		} else {
			fallback = interpreter.New(provider)
			log.Printf("[INFO] Fallback Interpreter: %s (%s)", cfg.Fallback.Provider, cfg.Fallback.Model)
		}
	}

	// 7. Services & Controllers
	resolverService := service.NewResolverService(
		engine,
		catalog,
		fallback,
		time.Duration(cfg.Fallback.TimeoutSeconds)*time.Second,
		pubSub,
		cfg.Resolver.AuditTopic,
		sysLogger,
	)

	return &Container{
		ResolverController: controller.NewResolverController(resolverService),
		ConsumerService:    service.NewConsumerService(pubSub, cfg.Resolver.AuditTopic, natsPublisher, sysLogger),
		Engine:             engine,
		SessionStore:       closable,
		Logger:             sysLogger,
	}
}
