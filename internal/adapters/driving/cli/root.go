// Package cli provides the fleetmind command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/blob/fsblob"
	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/embedding"
	embollama "github.com/fleetmind-ai/fleetmind/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/fleetmind-ai/fleetmind/internal/adapters/driven/embedding/openai"
	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/llm/anthropic"
	llmollama "github.com/fleetmind-ai/fleetmind/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/fleetmind-ai/fleetmind/internal/adapters/driven/llm/openai"
	recsqlite "github.com/fleetmind-ai/fleetmind/internal/adapters/driven/records/sqlite"
	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/storage/sqlite"
	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/vector/flat"
	"github.com/fleetmind-ai/fleetmind/internal/chunker"
	"github.com/fleetmind-ai/fleetmind/internal/config"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/core/services"
	"github.com/fleetmind-ai/fleetmind/internal/extractors"
	"github.com/fleetmind-ai/fleetmind/internal/extractors/pdf"
	"github.com/fleetmind-ai/fleetmind/internal/extractors/plaintext"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "0.1.0-dev"

// Services are package-level so commands can reach them and tests can
// swap them out.
var (
	ingestionService driving.IngestionService
	documentService  driving.DocumentService
	answerService    driving.AnswerService
	retrieverService *services.StructuredRetriever
	maintenanceSvc   *services.MaintenanceService
	embedderService  driven.EmbeddingService
	llmService       driven.LLMService
	fusionEngine     *services.ContextFusionEngine
	metadataStore    driven.MetadataStore
)

// closers holds everything buildApp opened, closed in reverse order.
var closers []func() error

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "fleetmind",
	Short: "Retrieval-augmented context engine for fleet operations",
	Long: `FleetMind ingests technical documentation and answers questions about
machines, undercarriage components and inspections, grounding every
answer in document chunks and live operational records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.fleetmind)")
}

// Execute wires the application and runs the root command.
func Execute() error {
	cobra.OnInitialize(func() {
		if err := buildApp(); err != nil {
			fmt.Fprintf(os.Stderr, "fleetmind: %v\n", err)
			os.Exit(1)
		}
	})
	defer closeApp()
	return rootCmd.Execute()
}

// buildApp constructs the adapters and services from configuration.
// Tests skip it and inject their own services.
func buildApp() error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	closers = append(closers, store.Close)

	vectors, err := flat.New(filepath.Join(cfg.DataDir, "vectors.idx"))
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	closers = append(closers, vectors.Close)

	blobs, err := fsblob.New(filepath.Join(cfg.DataDir, "blobs"))
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	registry := extractors.NewRegistry()
	registry.Register(pdf.New())
	registry.Register(plaintext.New())

	var chunkOpts []chunker.Option
	if cfg.Chunking.Size > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(cfg.Chunking.Size))
	}
	if cfg.Chunking.Overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(cfg.Chunking.Overlap))
	}
	splitter := chunker.New(chunkOpts...)

	embedderService, err = buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	closers = append(closers, embedderService.Close)

	llmService, err = buildLLM(cfg.LLM)
	if err != nil {
		return err
	}
	if llmService != nil {
		closers = append(closers, llmService.Close)
	}

	if cfg.Records.Path != "" {
		source, err := recsqlite.New(cfg.Records.Path)
		if err != nil {
			return fmt.Errorf("open records database: %w", err)
		}
		closers = append(closers, source.Close)
		retrieverService = services.NewStructuredRetriever(source)
	}

	meta := store.MetadataStore()

	fusion := services.NewContextFusionEngine(
		embedderService, vectors, meta, retrieverService,
		services.FusionConfig{
			TopK:             cfg.Fusion.TopK,
			MaxRecords:       cfg.Fusion.MaxRecords,
			Budget:           cfg.Fusion.Budget,
			StructuredWeight: cfg.Fusion.StructuredWeight,
			MinSimilarity:    cfg.Fusion.MinSimilarity,
		},
	)
	convo := services.NewConversationService(store.ConversationStore(), cfg.Chat.HistoryLimit)

	fusionEngine = fusion
	metadataStore = meta

	ingestionService = services.NewIngestionService(registry, splitter, embedderService, meta, vectors, blobs)
	documentService = services.NewDocumentService(meta, vectors, blobs, embedderService)
	maintenanceSvc = services.NewMaintenanceService(meta, vectors)

	// The metadata store is the source of truth. A crash between a
	// document delete and its vector delete can leave orphans behind,
	// so drop them before serving any searches.
	if _, err := maintenanceSvc.Reconcile(context.Background()); err != nil {
		return fmt.Errorf("reconcile vector index: %w", err)
	}

	prompt, err := config.LoadSystemPrompt(configDir, services.DefaultSystemPrompt)
	if err != nil {
		return fmt.Errorf("load system prompt: %w", err)
	}
	answerService = services.NewAnswerService(fusion, llmService, convo, services.AnswerConfig{
		MaxTokens:    cfg.Chat.MaxTokens,
		Temperature:  cfg.Chat.Temperature,
		SystemPrompt: prompt,
	})

	return nil
}

// buildEmbedder selects the embedding provider and wraps it with rate
// limiting and retry.
func buildEmbedder(cfg config.ProviderConfig) (driven.EmbeddingService, error) {
	var inner driven.EmbeddingService

	switch cfg.Provider {
	case "", "ollama":
		inner = embollama.NewEmbeddingService(embollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "openai":
		svc, err := embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:  apiKey(cfg, "OPENAI_API_KEY"),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		inner = svc
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	return embedding.NewRetryService(inner, embedding.RetryConfig{}), nil
}

// buildLLM selects the chat provider. Returning nil is fine; ingestion
// and retrieval work without a model, only ask needs one.
func buildLLM(cfg config.ProviderConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "", "ollama":
		return llmollama.NewLLMService(llmollama.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "openai":
		return llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  apiKey(cfg, "OPENAI_API_KEY"),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "anthropic":
		return anthropic.NewLLMService(anthropic.Config{
			APIKey:  apiKey(cfg, "ANTHROPIC_API_KEY"),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// apiKey reads the provider key from the configured environment
// variable, falling back to the conventional one.
func apiKey(cfg config.ProviderConfig, fallbackEnv string) string {
	if cfg.APIKeyEnv != "" {
		return os.Getenv(cfg.APIKeyEnv)
	}
	return os.Getenv(fallbackEnv)
}

func closeApp() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	closers = nil
}
