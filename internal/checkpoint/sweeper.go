package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/issuekit/ragvault/internal/model"
	"github.com/issuekit/ragvault/internal/pkg/timeutil"
)

// CleanupOldCache removes every session directory whose state is readable,
// not active, and started before the retention cutoff. A directory whose
// state file is missing or corrupt is reclaimed unconditionally. An active
// session is never removed by age: interrupting in-progress work is worse
// than holding its disk a little longer.
func (s *Store) CleanupOldCache(ctx context.Context, maxAgeDays int) (*model.SweepReport, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := timeutil.DaysAgoUnix(maxAgeDays)
	logger := logutil.GetLogger(ctx).With(zap.Int("max_age_days", maxAgeDays))

	report := &model.SweepReport{}
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
			logger.Warn("skip unreadable job type dir", zap.String("job_type", jobDir.Name()), zap.Error(err))
			continue
		}
		for _, sessionDir := range sessionDirs {
			if !sessionDir.IsDir() {
				continue
			}
			report.Scanned++
			dir := filepath.Join(s.root, jobDir.Name(), sessionDir.Name())
			session, ok := readStateLoose(dir)
			if !ok {
				if err := os.RemoveAll(dir); err != nil {
					logger.Warn("remove corrupt session dir failed", zap.String("dir", dir), zap.Error(err))
					continue
				}
				report.Corrupt++
				logger.Info("removed corrupt session dir", zap.String("dir", dir))
				continue
			}
			if session.Status == model.SessionStatusActive {
				report.SkippedActive++
				continue
			}
			if session.StartTime >= cutoff {
				continue
			}
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("remove expired session dir failed", zap.String("dir", dir), zap.Error(err))
				continue
			}
			report.Removed++
			logger.Info("removed expired session",
				zap.String("job_type", jobDir.Name()),
				zap.String("session_id", sessionDir.Name()),
				zap.String("status", session.Status))
		}
	}
	return report, nil
}

// readStateLoose reads a state file for sweep/stats purposes without the
// store's not-found mapping; ok=false means missing or unparseable.
func readStateLoose(sessionDir string) (*model.Session, bool) {
	data, err := os.ReadFile(filepath.Join(sessionDir, stateFileName))
	if err != nil {
		return nil, false
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false
	}
	if session.Version != model.RecordVersion {
		return nil, false
	}
	return &session, true
}
