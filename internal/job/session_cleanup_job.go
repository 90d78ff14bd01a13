package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/issuekit/ragvault/internal/checkpoint"
)

// SessionCleanupJob purges stale non-active session directories past the
// retention window.
type SessionCleanupJob struct {
	store      *checkpoint.Store
	maxAgeDays int
}

func NewSessionCleanupJob(store *checkpoint.Store, maxAgeDays int) *SessionCleanupJob {
	return &SessionCleanupJob{store: store, maxAgeDays: maxAgeDays}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	report, err := j.store.CleanupOldCache(ctx, j.maxAgeDays)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("session cleanup done",
		zap.Int("scanned", report.Scanned),
		zap.Int("removed", report.Removed),
		zap.Int("corrupt", report.Corrupt),
		zap.Int("skipped_active", report.SkippedActive))
	return nil
}
