package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// metadata and conversation store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.fleetmind/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".fleetmind", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MetadataStore returns a MetadataStore interface backed by this store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return &metadataStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Metadata Store ====================

// metadataStore implements driven.MetadataStore.
type metadataStore struct {
	store *Store
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// SaveDocument stores a document with its chunks in one transaction.
// A hash collision means the content is already stored and fails with
// domain.ErrDuplicateContent.
func (s *metadataStore) SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (hash, display_name, location, size_bytes, page_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.Hash, doc.DisplayName, doc.Location, doc.SizeBytes, doc.PageCount, doc.IngestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateContent
		}
		return fmt.Errorf("saving document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_hash, position, segment, start_offset, end_offset, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentHash, chunk.Position,
			chunk.Segment, chunk.StartOffset, chunk.EndOffset, chunk.Content, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by content hash.
func (s *metadataStore) GetDocument(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT hash, display_name, location, size_bytes, page_count, ingested_at
		FROM documents WHERE hash = ?
	`, hash)

	return scanDocument(row)
}

// GetChunk retrieves a specific chunk by ID.
func (s *metadataStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_hash, position, segment, start_offset, end_offset, content, embedding
		FROM chunks WHERE id = ?
	`, id)

	return scanChunkRow(row)
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *metadataStore) GetChunks(ctx context.Context, hash string) ([]domain.Chunk, error) {
	if _, err := s.GetDocument(ctx, hash); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_hash, position, segment, start_offset, end_offset, content, embedding
		FROM chunks WHERE document_hash = ?
		ORDER BY position
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document; its chunks cascade.
func (s *metadataStore) DeleteDocument(ctx context.Context, hash string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE hash = ?", hash)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns documents matching the filter in sorted order.
func (s *metadataStore) ListDocuments(
	ctx context.Context, filter domain.DocumentFilter, order domain.DocumentSort,
) ([]domain.Document, error) {
	query := `
		SELECT hash, display_name, location, size_bytes, page_count, ingested_at
		FROM documents
	`

	var conditions []string
	var args []any

	if filter.NameContains != "" {
		conditions = append(conditions, "display_name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.NameContains+"%")
	}
	if !filter.IngestedAfter.IsZero() {
		conditions = append(conditions, "ingested_at >= ?")
		args = append(args, filter.IngestedAfter)
	}
	if !filter.IngestedBefore.IsZero() {
		conditions = append(conditions, "ingested_at <= ?")
		args = append(args, filter.IngestedBefore)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY " + orderClause(order)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// ListDocumentHashes returns the set of stored document hashes.
func (s *metadataStore) ListDocumentHashes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT hash FROM documents")
	if err != nil {
		return nil, fmt.Errorf("querying hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scanning hash: %w", err)
		}
		hashes[hash] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hashes: %w", err)
	}

	return hashes, nil
}

// Stats returns document and chunk counts.
func (s *metadataStore) Stats(ctx context.Context) (driven.StoreStats, error) {
	var stats driven.StoreStats

	row := s.store.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)")
	if err := row.Scan(&stats.Documents, &stats.Chunks); err != nil {
		return stats, fmt.Errorf("counting rows: %w", err)
	}

	return stats, nil
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// AppendMessage stores a message at the next position in the session.
func (s *conversationStore) AppendMessage(
	ctx context.Context, sessionID string, role domain.MessageRole, content string,
) (*domain.Message, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var position int
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM conversations WHERE session_id = ?", sessionID)
	if err := row.Scan(&position); err != nil {
		return nil, fmt.Errorf("next position: %w", err)
	}

	msg := domain.Message{
		SessionID: sessionID,
		Position:  position,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (session_id, position, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.SessionID, msg.Position, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return &msg, nil
}

// Messages returns the session's messages oldest first.
func (s *conversationStore) Messages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, position, role, content, created_at
		FROM conversations WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message //nolint:prealloc // size unknown from query
	for rows.Next() {
		var msg domain.Message
		var role string
		if err := rows.Scan(&msg.SessionID, &msg.Position, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.MessageRole(role)
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

// Trim drops all but the newest keep messages from the session.
func (s *conversationStore) Trim(ctx context.Context, sessionID string, keep int) error {
	if keep < 0 {
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM conversations
		WHERE session_id = ? AND position < (
			SELECT COALESCE(MAX(position) - ? + 1, 0) FROM conversations WHERE session_id = ?
		)
	`, sessionID, keep, sessionID)
	if err != nil {
		return fmt.Errorf("trimming messages: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// isUniqueViolation reports whether the error is a UNIQUE constraint
// failure from the sqlite driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.Hash, &doc.DisplayName, &doc.Location,
		&doc.SizeBytes, &doc.PageCount, &doc.IngestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	if err := rows.Scan(&doc.Hash, &doc.DisplayName, &doc.Location,
		&doc.SizeBytes, &doc.PageCount, &doc.IngestedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := rows.Scan(&chunk.ID, &chunk.DocumentHash, &chunk.Position, &chunk.Segment,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.Content, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := row.Scan(&chunk.ID, &chunk.DocumentHash, &chunk.Position, &chunk.Segment,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.Content, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// orderClause maps a DocumentSort to a SQL ORDER BY expression.
func orderClause(order domain.DocumentSort) string {
	var column string
	switch order.Field {
	case domain.SortBySize:
		column = "size_bytes"
	case domain.SortByIngestedAt:
		column = "ingested_at"
	default:
		column = "display_name COLLATE NOCASE"
	}
	if order.Descending {
		return column + " DESC"
	}
	return column + " ASC"
}
