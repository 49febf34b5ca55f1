package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDetectionNotFound is returned for history lookups with an unknown ID.
var ErrDetectionNotFound = errors.New("detection not found")

// DefaultHistoryLimit caps history listings when no limit is given.
const DefaultHistoryLimit = 50

// HistoryRecord is the persisted summary of one detection.
type HistoryRecord struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
	Label     string    `json:"label"`
	Candidate string    `json:"candidate"`
	Fallback  bool      `json:"fallback"`
	Columns   int       `json:"columns"`
	Rows      int       `json:"rows"`
	Preview   *Table    `json:"preview,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryStore persists detection summaries.
type HistoryStore interface {
	// InsertDetection stores rec. rec.ID is set by the caller.
	InsertDetection(ctx context.Context, rec HistoryRecord) error
	// GetDetection returns ErrDetectionNotFound for unknown IDs.
	GetDetection(ctx context.Context, id uuid.UUID) (HistoryRecord, error)
	// ListDetections returns the newest records first. List entries carry
	// no Preview.
	ListDetections(ctx context.Context, limit int) ([]HistoryRecord, error)
	// PruneDetections deletes records created before cutoff and reports
	// how many were removed.
	PruneDetections(ctx context.Context, cutoff time.Time) (int64, error)
}

// History returns the newest detections, at most limit of them.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 || limit > s.cfg.History.MaxList {
		limit = s.cfg.History.MaxList
	}
	return s.store.ListDetections(ctx, limit)
}

// HistoryEntry returns one detection by ID string.
func (s *Service) HistoryEntry(ctx context.Context, id string) (HistoryRecord, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return HistoryRecord{}, ErrDetectionNotFound
	}
	return s.store.GetDetection(ctx, parsed)
}

// newHistoryRecord builds the record stored for a report.
func newHistoryRecord(ctx context.Context, rep *Report, previewRows int) HistoryRecord {
	return HistoryRecord{
		ID:        rep.ID,
		FileName:  rep.FileName,
		Size:      rep.Size,
		SHA256:    rep.SHA256,
		Label:     rep.Label,
		Candidate: rep.Candidate,
		Fallback:  rep.Fallback,
		Columns:   rep.Columns,
		Rows:      rep.Rows,
		Preview:   rep.Table.Head(previewRows),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		CreatedAt: rep.CreatedAt,
	}
}
