package checkpoint

import (
	"context"
	"encoding/json"
	"os"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/issuekit/ragvault/internal/model"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/timeutil"
)

// ProgressUpdate carries the fields an orchestrator may merge into a
// session; nil fields are left untouched.
type ProgressUpdate struct {
	TotalChunks       *int `json:"total_chunks"`
	CompletedChunks   *int `json:"completed_chunks"`
	CurrentChunkIndex *int `json:"current_chunk_index"`
}

// InitializeSession creates a session in the active state. Re-initializing
// an existing id is an idempotent reset: prior state and chunks are
// replaced, with a warning so an accidental id collision is visible.
func (s *Store) InitializeSession(ctx context.Context, jobType, sessionID string, totalChunks int) (*model.Session, error) {
	if totalChunks < 0 {
		return nil, appErr.ErrInvalid
	}
	statePath, err := s.statePath(jobType, sessionID)
	if err != nil {
		return nil, err
	}
	lock := s.sessionLock(jobType, sessionID)
	lock.Lock()
	defer lock.Unlock()

	if prev, err := s.loadState(ctx, jobType, sessionID); err == nil {
		logutil.GetLogger(ctx).Warn("re-initializing existing session",
			zap.String("job_type", jobType),
			zap.String("session_id", sessionID),
			zap.String("prev_status", prev.Status))
	}
	chunksDir, err := s.chunksDir(jobType, sessionID)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(chunksDir); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	session := &model.Session{
		Version:     model.RecordVersion,
		SessionID:   sessionID,
		JobType:     jobType,
		Status:      model.SessionStatusActive,
		TotalChunks: totalChunks,
		StartTime:   now,
		LastUpdated: now,
	}
	if err := saveState(statePath, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, jobType, sessionID string) (*model.Session, error) {
	return s.loadState(ctx, jobType, sessionID)
}

// UpdateProgress merges fields into the session and stamps last_updated.
// A missing session is a no-op; a terminal one is rejected.
func (s *Store) UpdateProgress(ctx context.Context, jobType, sessionID string, upd ProgressUpdate) error {
	err := s.transition(ctx, jobType, sessionID, func(session *model.Session) error {
		if session.IsTerminal() {
			return appErr.ErrTerminal
		}
		if upd.TotalChunks != nil {
			session.TotalChunks = *upd.TotalChunks
		}
		if upd.CompletedChunks != nil {
			session.CompletedChunks = *upd.CompletedChunks
		}
		if upd.CurrentChunkIndex != nil {
			session.CurrentChunkIndex = *upd.CurrentChunkIndex
		}
		if session.CompletedChunks > session.TotalChunks || session.CompletedChunks < 0 {
			return appErr.ErrInvalid
		}
		return nil
	})
	if appErr.IsNotFound(err) {
		return nil
	}
	return err
}

func (s *Store) PauseSession(ctx context.Context, jobType, sessionID string) error {
	return s.transition(ctx, jobType, sessionID, func(session *model.Session) error {
		switch session.Status {
		case model.SessionStatusPaused:
			return nil
		case model.SessionStatusActive:
			session.Status = model.SessionStatusPaused
			return nil
		default:
			return appErr.ErrTerminal
		}
	})
}

func (s *Store) ResumeSession(ctx context.Context, jobType, sessionID string) error {
	return s.transition(ctx, jobType, sessionID, func(session *model.Session) error {
		switch session.Status {
		case model.SessionStatusActive:
			return nil
		case model.SessionStatusPaused:
			session.Status = model.SessionStatusActive
			return nil
		default:
			return appErr.ErrTerminal
		}
	})
}

func (s *Store) CompleteSession(ctx context.Context, jobType, sessionID string) error {
	return s.transition(ctx, jobType, sessionID, func(session *model.Session) error {
		switch session.Status {
		case model.SessionStatusActive:
			session.Status = model.SessionStatusCompleted
			session.EndTime = timeutil.NowUnix()
			return nil
		case model.SessionStatusPaused:
			return appErr.ErrConflict
		default:
			return appErr.ErrTerminal
		}
	})
}

func (s *Store) FailSession(ctx context.Context, jobType, sessionID string, cause error) error {
	return s.transition(ctx, jobType, sessionID, func(session *model.Session) error {
		if session.IsTerminal() {
			return appErr.ErrTerminal
		}
		session.Status = model.SessionStatusFailed
		session.EndTime = timeutil.NowUnix()
		if cause != nil {
			session.Error = cause.Error()
		}
		return nil
	})
}

// CanResumeSession is true iff the session exists and is active or paused.
func (s *Store) CanResumeSession(ctx context.Context, jobType, sessionID string) (bool, error) {
	session, err := s.loadState(ctx, jobType, sessionID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return session.IsResumable(), nil
}

// GetResumeData returns the session plus the ids of parseable chunks and
// the resume point. A completed or failed session is never resumable and
// reads as absent.
func (s *Store) GetResumeData(ctx context.Context, jobType, sessionID string) (*model.ResumeData, error) {
	session, err := s.loadState(ctx, jobType, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsResumable() {
		return nil, appErr.ErrNotFound
	}
	chunks, err := s.ListCompletedChunks(ctx, jobType, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		ids = append(ids, chunk.ChunkID)
	}
	return &model.ResumeData{
		Session:         session,
		CompletedChunks: ids,
		NextChunkID:     nextChunkID(ids),
	}, nil
}

func (s *Store) transition(ctx context.Context, jobType, sessionID string, apply func(*model.Session) error) error {
	statePath, err := s.statePath(jobType, sessionID)
	if err != nil {
		return err
	}
	lock := s.sessionLock(jobType, sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadState(ctx, jobType, sessionID)
	if err != nil {
		return err
	}
	if err := apply(session); err != nil {
		return err
	}
	session.LastUpdated = timeutil.NowUnix()
	return saveState(statePath, session)
}

// loadState treats corrupt or unknown-version state the same as a missing
// session: the caller sees absent, resume is refused and the sweeper will
// eventually reclaim the directory.
func (s *Store) loadState(ctx context.Context, jobType, sessionID string) (*model.Session, error) {
	statePath, err := s.statePath(jobType, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		logutil.GetLogger(ctx).Warn("corrupt session state",
			zap.String("job_type", jobType),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, appErr.ErrNotFound
	}
	if session.Version != model.RecordVersion {
		logutil.GetLogger(ctx).Warn("unknown session state version",
			zap.String("job_type", jobType),
			zap.String("session_id", sessionID),
			zap.Int("version", session.Version))
		return nil, appErr.ErrNotFound
	}
	return &session, nil
}

func saveState(statePath string, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return writeFileAtomic(statePath, data)
}
