package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/api"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/chunker"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/config"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/core"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/session"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/store"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/tools"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	ctx := context.Background()

	// The semantic index backing is fatal at startup: serving cannot
	// proceed without it.
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize LLM service: %v", err)
	}
	defer llmService.Close()

	semanticStore, err := vectorstore.New(dbStore, llmService, time.Duration(cfg.EmbedTimeoutSecs)*time.Second)
	if err != nil {
		log.Fatalf("Failed to initialize semantic store: %v", err)
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewCourseSearchTool(semanticStore, cfg.MaxResults))
	registry.Register(tools.NewCourseOutlineTool(semanticStore))

	orchestrator := core.NewOrchestrator(llmService, registry, time.Duration(cfg.ModelTimeoutSecs)*time.Second)
	sessions := session.NewMemoryStore(cfg.MaxHistory)
	ragService := core.NewRAGService(semanticStore, chunker.New(cfg.ChunkSize, cfg.ChunkOverlap), sessions, orchestrator)

	// One blocking ingestion pass before serving begins. Per-document
	// failures are logged and counted, not fatal.
	if _, err := os.Stat(cfg.DocsDir); err == nil {
		if _, err := ragService.IngestDirectory(ctx, cfg.DocsDir); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
	} else {
		log.Printf("Documents directory %s not found, skipping ingestion.", cfg.DocsDir)
	}

	apiHandler := api.NewAPIHandler(ragService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // a query can cost two model calls plus embeddings
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
