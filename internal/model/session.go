package model

import "encoding/json"

const (
	SessionStatusActive    = "active"
	SessionStatusPaused    = "paused"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// RecordVersion is stamped on every persisted state/chunk record so the
// on-disk format can evolve. Readers reject unknown versions.
const RecordVersion = 1

type Session struct {
	Version           int    `json:"version"`
	SessionID         string `json:"session_id"`
	JobType           string `json:"job_type"`
	Status            string `json:"status"`
	TotalChunks       int    `json:"total_chunks"`
	CompletedChunks   int    `json:"completed_chunks"`
	CurrentChunkIndex int    `json:"current_chunk_index"`
	StartTime         int64  `json:"start_time"`
	LastUpdated       int64  `json:"last_updated"`
	EndTime           int64  `json:"end_time,omitempty"`
	Error             string `json:"error,omitempty"`
}

// IsTerminal reports whether no further status transition is permitted.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusFailed
}

func (s *Session) IsResumable() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaused
}

type ChunkRecord struct {
	Version   int             `json:"version"`
	SessionID string          `json:"session_id"`
	ChunkID   int             `json:"chunk_id"`
	Payload   json.RawMessage `json:"payload"`
	WrittenAt int64           `json:"written_at"`
}

// ResumeData is what an orchestrator needs to continue an interrupted job.
// NextChunkID is the length of the contiguous run of chunk ids starting at
// 0: with chunks {0,1,3} on disk it is 2, so the gap is reprocessed even
// though chunk 3 already exists.
type ResumeData struct {
	Session         *Session `json:"session"`
	CompletedChunks []int    `json:"completed_chunks"`
	NextChunkID     int      `json:"next_chunk_id"`
}

type SessionStats struct {
	TotalSessions int            `json:"total_sessions"`
	ByStatus      map[string]int `json:"by_status"`
	DiskBytes     int64          `json:"disk_bytes"`
}

type SweepReport struct {
	Scanned       int `json:"scanned"`
	Removed       int `json:"removed"`
	Corrupt       int `json:"corrupt"`
	SkippedActive int `json:"skipped_active"`
}
