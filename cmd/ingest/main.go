package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/support-bot-backend/internal/data/db"
	"github.com/yungbote/support-bot-backend/internal/data/repos/knowledge"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/platform/openai"
	"github.com/yungbote/support-bot-backend/internal/rag"
)

// Loads every .txt/.md document under the kb directory into the knowledge
// store. Safe to re-run; chunks are keyed by (source, index).
func main() {
	dir := flag.String("dir", "kb", "directory of knowledge-base documents")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err.Error())
		os.Exit(1)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		log.Error("Automigrate failed", "error", err.Error())
		os.Exit(1)
	}

	ai, err := openai.NewClient(log)
	if err != nil {
		log.Error("OpenAI client init failed", "error", err.Error())
		os.Exit(1)
	}

	chunks := knowledge.NewChunkRepo(store.DB(), log)
	ing := rag.NewIngestor(log, ai, chunks)

	stats, err := ing.IngestDir(context.Background(), *dir)
	if err != nil {
		log.Error("Ingest failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("Ingest complete", "files", stats.Files, "chunks", stats.Chunks)
}
