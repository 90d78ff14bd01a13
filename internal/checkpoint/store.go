package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
)

const (
	stateFileName = "state.json"
	chunksDirName = "chunks"
)

// Store persists session state and chunk output under
// root/{jobType}/{sessionID}/. All writes go through a temp-file rename so
// a record is either fully present and parseable or absent. Same-process
// mutation of one session is serialized by a per-session lock; single
// writer per session across processes is a caller contract, not enforced
// here.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("checkpoint root dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint root: %w", err)
	}
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) sessionLock(jobType, sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := jobType + "/" + sessionID
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *Store) sessionDir(jobType, sessionID string) (string, error) {
	if err := validateName(jobType); err != nil {
		return "", err
	}
	if err := validateName(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, jobType, sessionID), nil
}

func (s *Store) statePath(jobType, sessionID string) (string, error) {
	dir, err := s.sessionDir(jobType, sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

func (s *Store) chunksDir(jobType, sessionID string) (string, error) {
	dir, err := s.sessionDir(jobType, sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, chunksDirName), nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return appErr.ErrInvalid
	}
	if strings.ContainsAny(name, "/\\") {
		return appErr.ErrInvalid
	}
	return nil
}

// writeFileAtomic makes the write all-or-nothing from a reader's
// perspective: data lands in a temp file in the target directory and is
// renamed over the destination.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
