package cli

import (
	"context"
	"time"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/storage/memory"
	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/core/services"
)

// --- Mock implementations ---

type mockIngestionService struct {
	doc *domain.Document
	err error
}

func (m *mockIngestionService) Ingest(_ context.Context, content []byte, displayName, _ string) (*domain.Document, error) {
	if m.err != nil {
		return m.doc, m.err
	}
	if m.doc != nil {
		return m.doc, nil
	}
	return &domain.Document{
		Hash:        "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789",
		DisplayName: displayName,
		SizeBytes:   int64(len(content)),
		PageCount:   1,
		IngestedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

type mockDocumentService struct {
	docs  []domain.Document
	stats *driving.KnowledgeStats
	err   error
}

func (m *mockDocumentService) List(_ context.Context, _ domain.DocumentFilter, _ domain.DocumentSort) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, hash string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].Hash == hash {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (*driving.KnowledgeStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &driving.KnowledgeStats{Documents: 2, Chunks: 10, Vectors: 10, Dimensions: 768}, nil
}

type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Answer(_ context.Context, _, _ string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{
		Text:     "PC210 is at Mining Site North.",
		Grounded: true,
		Sources: []domain.SourceRef{
			{Type: domain.SourceTable, Table: domain.TableMachineTracking, RecordKey: "7"},
		},
	}, nil
}

type mockRecordSource struct {
	machines []domain.MachineRecord
	err      error
}

func (m *mockRecordSource) QueryMachines(_ context.Context, _ domain.RecordFilter) ([]domain.MachineRecord, error) {
	return m.machines, m.err
}

func (m *mockRecordSource) QueryLifetimes(_ context.Context, _ domain.RecordFilter) ([]domain.LifetimeRecord, error) {
	return nil, m.err
}

func (m *mockRecordSource) QueryInspections(_ context.Context, _ domain.RecordFilter) ([]domain.InspectionRecord, error) {
	return nil, m.err
}

func (m *mockRecordSource) Close() error { return nil }

type mockProvider struct {
	name    string
	pingErr error
}

func (m *mockProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

func (m *mockProvider) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "ok", nil
}

func (m *mockProvider) Dimensions() int              { return 3 }
func (m *mockProvider) ModelName() string            { return m.name }
func (m *mockProvider) Ping(_ context.Context) error { return m.pingErr }
func (m *mockProvider) Close() error                 { return nil }

type mockVectorIndex struct {
	entries []driven.VectorEntry
}

func (m *mockVectorIndex) Insert(_ context.Context, entries []driven.VectorEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockVectorIndex) DeleteByDocument(_ context.Context, hash string) (int, error) {
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if e.DocumentHash == hash {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, nil
}

func (m *mockVectorIndex) Reconcile(_ context.Context, valid map[string]struct{}) (int, error) {
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if _, ok := valid[e.DocumentHash]; !ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *mockVectorIndex) Len() int     { return len(m.entries) }
func (m *mockVectorIndex) Close() error { return nil }

func newMaintenanceWithIndex(idx driven.VectorIndex) *services.MaintenanceService {
	return services.NewMaintenanceService(memory.NewMetadataStore(), idx)
}

// setupTestServices swaps the package-level services for mocks and
// returns a cleanup that restores the originals.
func setupTestServices() func() {
	oldIngestion := ingestionService
	oldDocument := documentService
	oldAnswer := answerService
	oldRetriever := retrieverService
	oldMaintenance := maintenanceSvc
	oldEmbedder := embedderService
	oldLLM := llmService

	ingestionService = &mockIngestionService{}
	documentService = &mockDocumentService{
		docs: []domain.Document{
			{
				Hash:        "aaaa111122223333aaaa111122223333aaaa111122223333aaaa111122223333",
				DisplayName: "shop-manual.pdf",
				Location:    "blob://aaaa1111",
				SizeBytes:   2048,
				PageCount:   4,
				IngestedAt:  time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
			},
			{
				Hash:        "bbbb111122223333bbbb111122223333bbbb111122223333bbbb111122223333",
				DisplayName: "wear-limits.txt",
				SizeBytes:   512,
				PageCount:   1,
				IngestedAt:  time.Date(2026, 2, 11, 14, 0, 0, 0, time.UTC),
			},
		},
	}
	answerService = &mockAnswerService{}
	retrieverService = services.NewStructuredRetriever(&mockRecordSource{
		machines: []domain.MachineRecord{
			{MachineID: 7, Serial: "ABC1234", Model: "PC210", Type: "excavator", Location: "Mining Site North", SMRHours: 4200},
		},
	})
	maintenanceSvc = services.NewMaintenanceService(memory.NewMetadataStore(), &mockVectorIndex{})
	embedderService = &mockProvider{name: "mock-embedder"}
	llmService = &mockProvider{name: "mock-llm"}

	return func() {
		ingestionService = oldIngestion
		documentService = oldDocument
		answerService = oldAnswer
		retrieverService = oldRetriever
		maintenanceSvc = oldMaintenance
		embedderService = oldEmbedder
		llmService = oldLLM
	}
}
