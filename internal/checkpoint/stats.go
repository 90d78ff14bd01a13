package checkpoint

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/issuekit/ragvault/internal/model"
)

// SessionStats is a read-only snapshot: session counts by status plus the
// recursive on-disk size of the checkpoint root. It takes no locks, so
// the numbers are eventually consistent with concurrent writers.
func (s *Store) SessionStats(ctx context.Context) (*model.SessionStats, error) {
	stats := &model.SessionStats{ByStatus: make(map[string]int)}

	jobDirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	for _, jobDir := range jobDirs {
		if !jobDir.IsDir() {
			continue
		}
		sessionDirs, err := os.ReadDir(filepath.Join(s.root, jobDir.Name()))
		if err != nil {
			continue
		}
		for _, sessionDir := range sessionDirs {
			if !sessionDir.IsDir() {
				continue
			}
			stats.TotalSessions++
			session, ok := readStateLoose(filepath.Join(s.root, jobDir.Name(), sessionDir.Name()))
			if !ok {
				stats.ByStatus["corrupt"]++
				continue
			}
			stats.ByStatus[session.Status]++
		}
	}

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.DiskBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
