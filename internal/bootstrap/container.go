package bootstrap

import (
	"context"
	"log"

	"notebook-ai-be/internal/config"
	"notebook-ai-be/internal/controller"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/implementation"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/internal/service"
	"notebook-ai-be/pkg/chat/assembler"
	"notebook-ai-be/pkg/chat/mode"
	"notebook-ai-be/pkg/chat/retrieval"
	"notebook-ai-be/pkg/embedding"
	"notebook-ai-be/pkg/llm"
	"notebook-ai-be/pkg/llm/factory"
	"notebook-ai-be/pkg/lock"
	pktNats "notebook-ai-be/pkg/nats"
	"notebook-ai-be/pkg/ocr"
	"notebook-ai-be/pkg/storage"
	"notebook-ai-be/pkg/websearch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController          controller.IChatController
	ConversationController  controller.IConversationController
	DocumentController      controller.IDocumentController
	GenerationJobController controller.IGenerationJobController

	// Background services, run by main after the container is built.
	IngestionService        service.IIngestionService
	GenerationWorkerService service.IGenerationWorkerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// LLM providers. Both are constructed so a per-request provider
	// override can reach either one; the configured one is the default.
	llmProviders := buildLLMProviders(cfg, sysLogger)
	defaultLLM, ok := llmProviders[cfg.Ai.LLMProvider]
	if !ok {
		log.Fatalf("[FATAL] Configured LLM provider %q is not available", cfg.Ai.LLMProvider)
	}

	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
	}

	// NATS lifecycle events are fire and forget, a dead bus degrades to
	// warnings instead of blocking startup.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("bootstrap", "NATS publisher unavailable", map[string]interface{}{"error": err.Error()})
		natsPub = nil
	}

	var locker lock.Locker
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("bootstrap", "malformed redis URL, using it as addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("bootstrap", "redis unreachable, conversation-state writes run unlocked", map[string]interface{}{"error": err.Error()})
		locker = lock.NoopLocker{}
	} else {
		locker = lock.NewRedisLocker(rdb)
	}

	objectStore, err := storage.NewMinioStore(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize object store: %v", err)
	}

	ocrProvider := ocr.NewHTTPProvider(cfg.Ocr.Endpoint, cfg.Ocr.APIKey)
	searcher := websearch.NewHTTPSearcher(cfg.Search.Endpoint, cfg.Search.APIKey, cfg.Search.MaxResults)
	enricher := websearch.NewImageEnricher()

	chunkRepo := implementation.NewDocumentChunkRepository(db)
	retriever := retrieval.NewRetriever(embeddingProvider, chunkRepo, sysLogger)
	ctxAssembler := assembler.NewAssembler(retriever, searcher, enricher, sysLogger)
	modeRouter := mode.NewRouter(defaultLLM, sysLogger)

	publisherService := service.NewPublisherService(pubSub)

	chatService := service.NewChatService(
		uowFactory,
		llmProviders,
		cfg.Ai.LLMProvider,
		modeRouter,
		ctxAssembler,
		ocrProvider,
		objectStore,
		sysLogger,
		llmLogger,
	)
	conversationService := service.NewConversationService(uowFactory, locker, sysLogger)
	documentService := service.NewDocumentService(uowFactory, objectStore, publisherService, cfg.App.IngestTopic, sysLogger)
	jobService := service.NewGenerationJobService(uowFactory, publisherService, cfg.App.ChatJobTopic, sysLogger)

	ingestionService := service.NewIngestionService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		embeddingProvider,
		ocrProvider,
		objectStore,
		natsPub,
		sysLogger,
	)
	generationWorker := service.NewGenerationWorkerService(
		pubSub,
		cfg.App.ChatJobTopic,
		uowFactory,
		defaultLLM,
		cfg.Ai.LLMModel,
		natsPub,
		sysLogger,
	)

	return &Container{
		ChatController:          controller.NewChatController(chatService),
		ConversationController:  controller.NewConversationController(conversationService),
		DocumentController:      controller.NewDocumentController(documentService),
		GenerationJobController: controller.NewGenerationJobController(jobService),
		IngestionService:        ingestionService,
		GenerationWorkerService: generationWorker,
		Logger:                  sysLogger,
	}
}

func buildLLMProviders(cfg *config.Config, sysLogger logger.ILogger) map[string]llm.LLMProvider {
	providers := make(map[string]llm.LLMProvider)
	for _, code := range []string{"ollama", "gemini"} {
		apiKey := cfg.Ai.GeminiAPIKey
		baseURL := cfg.Ai.OllamaBaseURL
		if code == "gemini" {
			baseURL = cfg.Ai.GeminiBaseURL
		}
		provider, err := factory.NewLLMProvider(code, cfg.Ai.LLMModel, baseURL, apiKey)
		if err != nil {
			sysLogger.Warn("bootstrap", "LLM provider unavailable", map[string]interface{}{
				"provider": code,
				"error":    err.Error(),
			})
			continue
		}
		providers[code] = provider
	}
	return providers
}
