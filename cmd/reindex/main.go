package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"review-insights-be/internal/config"
	"review-insights-be/internal/pkg/logger"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/internal/service"
	"review-insights-be/pkg/contentstore"
	"review-insights-be/pkg/database"
	"review-insights-be/pkg/embedding"
	"review-insights-be/pkg/embedding/jina"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Batch reindexer. Walks the report corpus in ascending id order and brings
// every section index up to date, printing a resume cursor on exit so an
// interrupted run can continue where it stopped.
func main() {
	afterIdFlag := flag.String("after-id", "", "resume strictly after this report id")
	pageSize := flag.Int("page-size", 50, "reports fetched per page")
	refresh := flag.Bool("refresh", false, "re-embed even when the body checksum is unchanged")
	reportIdFlag := flag.String("report-id", "", "reindex only this report and exit")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewIsolatedLogger("logs/reindex.log")

	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	embedder := embedding.NewRetryer(embeddingProvider, 4, 500*time.Millisecond)

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
			log.Fatalf("Failed to initialize S3 content store: %v", err)
		}
		store = s3Store
	} else {
		store = contentstore.NewLocalStore(cfg.ContentStore.LocalRoot)
	}

	indexer := service.NewIndexerService(
		uowFactory,
		store,
		embedder,
		nil, // no event publishing from the CLI
		service.NewReportLocks(),
		sysLogger,
		cfg.ContentStore.ReleaseAfterIndex,
	)

	ctx := context.Background()

	if *reportIdFlag != "" {
		reportId, err := uuid.Parse(*reportIdFlag)
		if err != nil {
			color.Red("invalid report id: %v", err)
			os.Exit(1)
		}
		if err := indexer.ReindexReport(ctx, reportId, *refresh); err != nil {
			color.Red("reindex %s failed: %v", reportId, err)
			os.Exit(1)
		}
		color.Green("reindexed %s", reportId)
		return
	}

	afterId := uuid.Nil
	if *afterIdFlag != "" {
		afterId, err = uuid.Parse(*afterIdFlag)
		if err != nil {
			color.Red("invalid after-id: %v", err)
			os.Exit(1)
		}
	}

	color.Cyan("Reindexing corpus (page size %d, refresh=%v)...", *pageSize, *refresh)

	result, err := indexer.Reindex(ctx, service.ReindexParams{
		AfterId:  afterId,
		PageSize: *pageSize,
		Refresh:  *refresh,
	})
	if result != nil {
		color.Green("processed: %d", result.Processed)
		color.Yellow("skipped:   %d", result.Skipped)
		if result.Failed > 0 {
			color.Red("failed:    %d", result.Failed)
		} else {
			color.Green("failed:    0")
		}
		color.Cyan("resume cursor: %s", result.LastId)
	}
	if err != nil {
		color.Red("batch aborted: %v", err)
		os.Exit(1)
	}
}
