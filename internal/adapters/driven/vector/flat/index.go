// Package flat provides a brute-force cosine similarity index held in
// memory and snapshotted to a single file. Exact search over every
// vector is fast enough at this corpus size and keeps the index free of
// CGO and approximate-recall tradeoffs.
package flat

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Snapshot file layout: magic, version, dimension, entry count, then
// per entry a length-prefixed chunk ID, length-prefixed document hash
// and the raw little-endian float32 vector.
var snapshotMagic = [4]byte{'F', 'M', 'V', 'X'}

const snapshotVersion uint32 = 1

type entry struct {
	chunkID string
	docHash string
	vector  []float32
}

// Index is a flat cosine similarity index with file persistence.
type Index struct {
	mu        sync.RWMutex
	path      string
	dimension int
	entries   []entry        // insertion order
	position  map[string]int // chunkID to entries index
}

// New opens the index at path, loading an existing snapshot if one is
// there. A snapshot that cannot be decoded fails with
// domain.ErrIndexCorrupt so the caller can rebuild.
func New(path string) (*Index, error) {
	idx := &Index{
		path:     path,
		position: make(map[string]int),
	}

	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Dimension returns the vector width the index holds, 0 when empty.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Insert adds entries and persists the snapshot. All entries become
// searchable together or not at all. The first insert fixes the vector
// dimension; mismatches fail with domain.ErrInvalidInput.
func (idx *Index) Insert(_ context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) == 0 || e.ChunkID == "" {
			return fmt.Errorf("empty vector entry: %w", domain.ErrInvalidInput)
		}
		if idx.dimension == 0 {
			idx.dimension = len(e.Vector)
		}
		if len(e.Vector) != idx.dimension {
			return fmt.Errorf("vector dimension %d, index holds %d: %w",
				len(e.Vector), idx.dimension, domain.ErrInvalidInput)
		}
	}

	type replaced struct {
		pos int
		old entry
	}
	base := len(idx.entries)
	var overwritten []replaced

	for _, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		ent := entry{chunkID: e.ChunkID, docHash: e.DocumentHash, vector: vec}

		if pos, ok := idx.position[e.ChunkID]; ok {
			overwritten = append(overwritten, replaced{pos: pos, old: idx.entries[pos]})
			idx.entries[pos] = ent
			continue
		}
		idx.position[e.ChunkID] = len(idx.entries)
		idx.entries = append(idx.entries, ent)
	}

	if err := idx.save(); err != nil {
		// Keep memory and disk consistent: drop what this call added
		// and put back what it overwrote.
		idx.entries = idx.entries[:base]
		for _, r := range overwritten {
			if r.pos < base {
				idx.entries[r.pos] = r.old
			}
		}
		idx.rebuildPositions()
		return err
	}
	return nil
}

// DeleteByDocument removes every vector belonging to the document and
// returns how many were dropped.
func (idx *Index) DeleteByDocument(_ context.Context, docHash string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	removed := 0
	for _, e := range idx.entries {
		if e.docHash == docHash {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}

	idx.entries = kept
	idx.rebuildPositions()

	if err := idx.save(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Search returns the k most similar entries by cosine similarity.
// Equal scores keep insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension %d, index holds %d: %w",
			len(query), idx.dimension, domain.ErrInvalidInput)
	}

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		hits = append(hits, driven.VectorHit{
			ChunkID:      e.chunkID,
			DocumentHash: e.docHash,
			Similarity:   cosine(query, e.vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Reconcile drops entries whose document hash is not in valid and
// returns how many were removed.
func (idx *Index) Reconcile(_ context.Context, valid map[string]struct{}) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	removed := 0
	for _, e := range idx.entries {
		if _, ok := valid[e.docHash]; ok {
			kept = append(kept, e)
			continue
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}

	idx.entries = kept
	idx.rebuildPositions()

	if err := idx.save(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Close persists the snapshot.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.save()
}

func (idx *Index) rebuildPositions() {
	idx.position = make(map[string]int, len(idx.entries))
	for i, e := range idx.entries {
		idx.position[e.chunkID] = i
	}
	if len(idx.entries) == 0 {
		idx.dimension = 0
	}
}

// save writes the snapshot to a temp file and renames it into place.
func (idx *Index) save() error {
	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])

	if err := binary.Write(&buf, binary.LittleEndian, snapshotVersion); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(idx.dimension)); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(idx.entries))); err != nil {
		return err
	}

	for _, e := range idx.entries {
		writeString(&buf, e.chunkID)
		writeString(&buf, e.docHash)
		if err := binary.Write(&buf, binary.LittleEndian, e.vector); err != nil {
			return err
		}
	}

	tmp := idx.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return fmt.Errorf("replace index snapshot: %w", err)
	}
	return nil
}

func (idx *Index) load() error {
	data, err := os.ReadFile(idx.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index snapshot: %w", err)
	}

	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != snapshotMagic {
		return fmt.Errorf("bad snapshot magic: %w", domain.ErrIndexCorrupt)
	}

	var version, dimension, count uint32
	if err := readAll(r, &version, &dimension, &count); err != nil {
		return fmt.Errorf("truncated snapshot header: %w", domain.ErrIndexCorrupt)
	}
	if version != snapshotVersion {
		return fmt.Errorf("snapshot version %d: %w", version, domain.ErrIndexCorrupt)
	}

	entries := make([]entry, 0, count)
	for i := uint32(0); i < count; i++ {
		chunkID, err := readString(r)
		if err != nil {
			return fmt.Errorf("truncated snapshot entry: %w", domain.ErrIndexCorrupt)
		}
		docHash, err := readString(r)
		if err != nil {
			return fmt.Errorf("truncated snapshot entry: %w", domain.ErrIndexCorrupt)
		}
		vec := make([]float32, dimension)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("truncated snapshot vector: %w", domain.ErrIndexCorrupt)
		}
		entries = append(entries, entry{chunkID: chunkID, docHash: docHash, vector: vec})
	}

	idx.dimension = int(dimension)
	idx.entries = entries
	idx.rebuildPositions()
	if len(entries) == 0 {
		idx.dimension = 0
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if int64(n) > int64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readAll(r *bytes.Reader, values ...*uint32) error {
	for _, v := range values {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// cosine computes cosine similarity; zero vectors score 0.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
