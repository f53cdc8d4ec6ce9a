package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/config"
	"github.com/agenthands/annuaire/internal/extraction"
	"github.com/agenthands/annuaire/internal/importer"
	"github.com/agenthands/annuaire/internal/llm"
	"github.com/agenthands/annuaire/internal/logging"
	"github.com/agenthands/annuaire/internal/server"
	"github.com/agenthands/annuaire/internal/source"
	"github.com/agenthands/annuaire/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(cfg.Log, os.Stderr)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open record store")
	}
	defer closeStore()

	llmClient, err := llm.NewClient(ctx, cfg.LLM, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize LLM client")
	}
	if c, ok := llmClient.(io.Closer); ok {
		defer c.Close()
	}

	extractor := extraction.NewExtractor(llmClient, cfg.Extraction, log)
	acquirer := source.NewAcquirer(cfg.Import.FetchTimeout.Duration, log)
	svc := importer.NewService(st, acquirer, extractor, cfg.Import.SimilarityThreshold, log)
	if cfg.Import.RerankMatches {
		svc.Reranker = llm.NewSimpleLLMReranker(llmClient)
	}

	log.WithFields(logrus.Fields{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	}).Info("starting annuaire server")

	if err := server.NewServer(svc, cfg.Server, log).Run(ctx); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (store.Store, func(), error) {
	if cfg.URL == "" {
		log.Warn("no database configured, records are kept in memory")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.Open(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		log.Info("database schema ensured")
	}
	return pg, pg.Close, nil
}
