package bootstrap

import (
	"context"
	"log"
	"time"

	"review-insights-be/internal/config"
	"review-insights-be/internal/controller"
	"review-insights-be/internal/pkg/logger"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/internal/service"
	"review-insights-be/internal/websocket"
	"review-insights-be/pkg/contentstore"
	"review-insights-be/pkg/embedding"
	"review-insights-be/pkg/embedding/jina"
	"review-insights-be/pkg/insight/retrieve"
	"review-insights-be/pkg/llm/factory"

	pkgNats "review-insights-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ReportController  controller.IReportController
	InsightController controller.IInsightController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for cmd/reindex
	IndexerService service.IIndexerService

	// WebSockets
	InsightStreamHandler *websocket.InsightStreamHandler
	WebSocketHub         *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	embedder := embedding.NewRetryer(embeddingProvider, 4, 500*time.Millisecond)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Content Store
	var store contentstore.ContentStore
	if cfg.ContentStore.Backend == "s3" {
		s3Store, err := contentstore.NewS3Store(contentstore.S3Config{
			Region:    cfg.ContentStore.S3Region,
			Bucket:    cfg.ContentStore.S3Bucket,
			Prefix:    cfg.ContentStore.S3Prefix,
			AccessKey: cfg.ContentStore.S3AccessKey,
			SecretKey: cfg.ContentStore.S3SecretKey,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize S3 content store: %v", err)
		}
		store = s3Store
		log.Printf("[INFO] Using Content Store: S3 (%s)", cfg.ContentStore.S3Bucket)
	} else {
		store = contentstore.NewLocalStore(cfg.ContentStore.LocalRoot)
		log.Printf("[INFO] Using Content Store: LOCAL (%s)", cfg.ContentStore.LocalRoot)
	}

	// 5. Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/insight_stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.ReindexTopic, pubSub)
	reportLocks := service.NewReportLocks()
	indexerService := service.NewIndexerService(
		uowFactory,
		store,
		embedder,
		natsPub,
		reportLocks,
		sysLogger,
		cfg.ContentStore.ReleaseAfterIndex,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.ReindexTopic,
		indexerService,
	)

	reportService := service.NewReportService(uowFactory, publisherService, natsPub, reportLocks, sysLogger)
	insightService := service.NewInsightService(
		uowFactory,
		embedder,
		llmProvider,
		retrieve.Config{
			SectionThreshold:   cfg.Retrieval.SectionThreshold,
			RelevanceThreshold: cfg.Retrieval.RelevanceThreshold,
			ConfidenceFloor:    cfg.Retrieval.ConfidenceFloor,
			TopK:               cfg.Retrieval.TopK,
		},
		sysLogger,
	)

	// 7. Streaming Handler
	streamHandler := websocket.NewInsightStreamHandler(wsHub, insightService, wsLogger)

	return &Container{
		ReportController:  controller.NewReportController(reportService, indexerService),
		InsightController: controller.NewInsightController(insightService),

		ConsumerService: consumerService,
		IndexerService:  indexerService,

		InsightStreamHandler: streamHandler,
		WebSocketHub:         wsHub,
	}
}
