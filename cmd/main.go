package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/EricBlanvillain/control-automation/api"
	"github.com/EricBlanvillain/control-automation/api/handler"
	"github.com/EricBlanvillain/control-automation/api/middleware"
	appconfig "github.com/EricBlanvillain/control-automation/config"
	"github.com/EricBlanvillain/control-automation/internal/cache"
	"github.com/EricBlanvillain/control-automation/internal/category"
	"github.com/EricBlanvillain/control-automation/internal/database"
	"github.com/EricBlanvillain/control-automation/internal/document"
	"github.com/EricBlanvillain/control-automation/internal/embedding"
	"github.com/EricBlanvillain/control-automation/internal/llm"
	"github.com/EricBlanvillain/control-automation/internal/ocr"
	"github.com/EricBlanvillain/control-automation/internal/repository"
	"github.com/EricBlanvillain/control-automation/internal/rules"
	"github.com/EricBlanvillain/control-automation/internal/services"
	"github.com/EricBlanvillain/control-automation/internal/vectordb"
	"github.com/EricBlanvillain/control-automation/pkg/storage"
	"github.com/EricBlanvillain/control-automation/pkg/taskqueue"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	mode := flag.String("mode", "release", "Run mode (debug/release)")
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	gin.SetMode(*mode)

	logger := setupLogger(cfg.Logging)
	logger.Info("Starting control automation service...")

	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	vectorDB, err := setupVectorDB(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize vector database: %v", err)
	}
	defer vectorDB.Close()

	embedder, err := embedding.NewClient(cfg.Embed.Provider,
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithBaseURL(cfg.Embed.Endpoint),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithDimensions(cfg.Embed.Dimensions),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
	)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	evaluatorLLM, err := setupLLM(cfg.Evaluator)
	if err != nil {
		logger.Fatalf("Failed to initialize evaluator model: %v", err)
	}
	graderLLM, err := setupLLM(cfg.Grader)
	if err != nil {
		logger.Fatalf("Failed to initialize grader model: %v", err)
	}

	var ocrClient ocr.Client
	if cfg.OCR.Enable {
		ocrClient, err = ocr.NewMistralClient(
			ocr.WithAPIKey(cfg.OCR.APIKey),
			ocr.WithModel(cfg.OCR.Model),
			ocr.WithTimeout(time.Duration(cfg.OCR.Timeout)*time.Second),
		)
		if err != nil {
			logger.Fatalf("Failed to initialize OCR client: %v", err)
		}
		logger.Info("OCR backend enabled")
	}

	var cacheService cache.Cache
	if cfg.Cache.Enable {
		cacheService, err = cache.NewCache(cache.Config{
			Type:          cfg.Cache.Type,
			RedisAddr:     cfg.Cache.Address,
			RedisPassword: cfg.Cache.Password,
			RedisDB:       cfg.Cache.DB,
			DefaultTTL:    time.Duration(cfg.Cache.TTL) * time.Second,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
	}

	ruleStore, err := rules.NewFileStore(cfg.Rules.Dir)
	if err != nil {
		logger.Fatalf("Failed to open rule store: %v", err)
	}

	splitter, err := document.NewSplitter(document.SplitterConfig{
		ChunkSize:    cfg.Document.ChunkSize,
		ChunkOverlap: cfg.Document.ChunkOverlap,
	})
	if err != nil {
		logger.Fatalf("Invalid chunking configuration: %v", err)
	}

	resolver := category.NewResolver(cfg.Categories.Known)
	docRepo := repository.NewDocumentRepository()
	runRepo := repository.NewRunRepository()

	extraction := services.NewExtractionService(fileStorage, ocrClient, splitter,
		services.WithExtractionLogger(logger),
	)

	indexOpts := []services.IndexOption{
		services.WithRetrievalK(cfg.Retrieval.TopK),
		services.WithIndexLogger(logger),
	}
	if cacheService != nil {
		indexOpts = append(indexOpts,
			services.WithQueryCache(cacheService, time.Duration(cfg.Cache.TTL)*time.Second))
	}
	index := services.NewIndexService(
		embedder,
		embedding.NewBatchProcessor(embedder, cfg.Embed.BatchSize, cfg.Retrieval.Concurrency),
		vectorDB,
		indexOpts...,
	)

	reports := services.NewReportService(fileStorage, cfg.Reports.Dir, logger)

	pipeline := services.NewPipelineService(
		resolver,
		extraction,
		index,
		ruleStore,
		services.NewEvaluator(evaluatorLLM, logger),
		services.NewGrader(graderLLM, logger),
		reports,
		services.WithRuleConcurrency(cfg.Retrieval.Concurrency),
		services.WithPipelineLogger(logger),
		services.WithRunHistory(docRepo, runRepo),
	)

	var queue taskqueue.Queue
	var worker taskqueue.Worker
	if cfg.Queue.Enable {
		redisQueue, err := taskqueue.NewRedisQueue(&taskqueue.Config{
			RedisAddr:     cfg.Queue.RedisAddr,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
			RetryLimit:    cfg.Queue.RetryLimit,
			RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		queue = redisQueue
		defer queue.Close()

		worker = taskqueue.NewRedisWorker(redisQueue, nil)
		runHandler := services.NewControlRunHandler(pipeline, queue, logger)
		indexHandler := services.NewDocumentIndexHandler(extraction, index, queue, logger)
		worker.RegisterHandler(taskqueue.TaskControlRun, runHandler)
		worker.RegisterHandler(taskqueue.TaskDocumentIndex, indexHandler)
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Task queue worker started")
	}

	docHandler := handler.NewDocumentHandler(docRepo, fileStorage, resolver)
	controlHandler := handler.NewControlHandler(pipeline, queue, docRepo, runRepo, fileStorage)
	ruleHandler := handler.NewRuleHandler(ruleStore)
	var taskHandler *handler.TaskHandler
	if queue != nil {
		taskHandler = handler.NewTaskHandler(queue)
	}

	router := api.SetupRouter(docHandler, controlHandler, ruleHandler, taskHandler)

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// sync runs can block on remote models
		WriteTimeout: 300 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configures the shared logger, optionally with file
// rotation.
func setupLogger(cfg appconfig.LoggingConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}

	return logger
}

func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %v", err)
	}

	return database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger)
}

func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	if cfg.Storage.Type == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	}

	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.Storage.Path,
	})
}

func setupVectorDB(cfg *appconfig.Config, logger *logrus.Logger) (vectordb.Repository, error) {
	if err := os.MkdirAll(cfg.VectorDB.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector database directory: %v", err)
	}

	repo, err := vectordb.NewRepository(vectordb.Config{
		Type:         cfg.VectorDB.Type,
		Path:         cfg.VectorDB.Path,
		Dimension:    cfg.VectorDB.Dim,
		DistanceType: vectordb.DistanceType(cfg.VectorDB.Distance),
	})
	if err != nil {
		logger.WithError(err).Warnf("Failed to initialize %s vector database, falling back to memory", cfg.VectorDB.Type)
		return vectordb.NewRepository(vectordb.Config{
			Type:         "memory",
			Dimension:    cfg.VectorDB.Dim,
			DistanceType: vectordb.DistanceType(cfg.VectorDB.Distance),
		})
	}

	return repo, nil
}

func setupLLM(cfg appconfig.ModelConfig) (llm.Client, error) {
	return llm.NewClient(cfg.Provider,
		llm.WithAPIKey(cfg.APIKey),
		llm.WithBaseURL(cfg.Endpoint),
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTemperature(cfg.Temperature),
	)
}
