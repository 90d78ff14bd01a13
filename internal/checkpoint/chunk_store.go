package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/issuekit/ragvault/internal/model"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/timeutil"
)

const (
	chunkFilePrefix = "chunk_"
	chunkFileSuffix = ".json"
)

// SaveChunk persists one chunk's output. The write is atomic: a reader
// either sees the full parseable record or nothing. Writing an id that
// already exists overwrites it (explicit reprocess).
func (s *Store) SaveChunk(ctx context.Context, jobType, sessionID string, chunkID int, payload json.RawMessage) error {
	if chunkID < 0 {
		return appErr.ErrInvalid
	}
	path, err := s.chunkPath(jobType, sessionID, chunkID)
	if err != nil {
		return err
	}
	record := &model.ChunkRecord{
		Version:   model.RecordVersion,
		SessionID: sessionID,
		ChunkID:   chunkID,
		Payload:   payload,
		WrittenAt: timeutil.NowUnix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	lock := s.sessionLock(jobType, sessionID)
	lock.Lock()
	defer lock.Unlock()
	return writeFileAtomic(path, data)
}

func (s *Store) LoadChunk(ctx context.Context, jobType, sessionID string, chunkID int) (*model.ChunkRecord, error) {
	if chunkID < 0 {
		return nil, appErr.ErrInvalid
	}
	path, err := s.chunkPath(jobType, sessionID, chunkID)
	if err != nil {
		return nil, err
	}
	return s.readChunkFile(ctx, path)
}

// ListCompletedChunks returns every parseable chunk in ascending id order.
// A chunk that fails to parse is skipped with a warning so one corrupt
// file never aborts a resume.
func (s *Store) ListCompletedChunks(ctx context.Context, jobType, sessionID string) ([]*model.ChunkRecord, error) {
	dir, err := s.chunksDir(jobType, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*model.ChunkRecord{}, nil
		}
		return nil, err
	}
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := parseChunkFileName(entry.Name())
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	chunks := make([]*model.ChunkRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.readChunkFile(ctx, filepath.Join(dir, chunkFileName(id)))
		if err != nil {
			if appErr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		chunks = append(chunks, record)
	}
	return chunks, nil
}

func (s *Store) readChunkFile(ctx context.Context, path string) (*model.ChunkRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	var record model.ChunkRecord
	if err := json.Unmarshal(data, &record); err != nil {
		logutil.GetLogger(ctx).Warn("corrupt chunk file, treating as absent",
			zap.String("path", path), zap.Error(err))
		return nil, appErr.ErrNotFound
	}
	if record.Version != model.RecordVersion {
		logutil.GetLogger(ctx).Warn("unknown chunk record version, treating as absent",
			zap.String("path", path), zap.Int("version", record.Version))
		return nil, appErr.ErrNotFound
	}
	return &record, nil
}

func (s *Store) chunkPath(jobType, sessionID string, chunkID int) (string, error) {
	dir, err := s.chunksDir(jobType, sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, chunkFileName(chunkID)), nil
}

func chunkFileName(chunkID int) string {
	return fmt.Sprintf("%s%d%s", chunkFilePrefix, chunkID, chunkFileSuffix)
}

func parseChunkFileName(name string) (int, bool) {
	if !strings.HasPrefix(name, chunkFilePrefix) || !strings.HasSuffix(name, chunkFileSuffix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, chunkFilePrefix), chunkFileSuffix))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// nextChunkID is the length of the contiguous run of ids starting at 0.
// With chunks {0,1,3} it returns 2: the gap is reprocessed rather than
// trusting a raw count, which would wrongly skip to 3.
func nextChunkID(sortedIDs []int) int {
	next := 0
	for _, id := range sortedIDs {
		if id != next {
			break
		}
		next++
	}
	return next
}
