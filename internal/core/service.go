package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/tabsniff/internal/config"
	"github.com/JonMunkholm/tabsniff/internal/logging"
	"github.com/google/uuid"
)

// ResultCache stores detections keyed by content hash. Implementations must
// be safe for concurrent use.
type ResultCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (det *Detection, ok bool, err error)
	Set(ctx context.Context, key string, det *Detection) error
}

// Service wraps the detector with upload limits, caching and history.
type Service struct {
	store    HistoryStore
	cache    ResultCache // nil disables caching
	limiter  *UploadLimiter
	detector *Detector
	cfg      *config.Config
}

// Report is the outcome of one uploaded file.
type Report struct {
	ID         uuid.UUID     `json:"id"`
	FileName   string        `json:"fileName"`
	Size       int64         `json:"size"`
	SHA256     string        `json:"sha256"`
	Label      string        `json:"label"`
	Candidate  string        `json:"candidate"`
	Fallback   bool          `json:"fallback"`
	Score      int           `json:"score"`
	Columns    int           `json:"columns"`
	Rows       int           `json:"rows"`
	Table      *Table        `json:"table"`
	Attempts   []Attempt     `json:"attempts"`
	Cached     bool          `json:"cached"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"durationMs"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// NewService creates a Service. store is required; cache may be nil.
func NewService(store HistoryStore, cache ResultCache, cfg *config.Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: history store is required")
	}
	if cfg == nil {
		return nil, errors.New("new service: config is required")
	}

	return &Service{
		store:    store,
		cache:    cache,
		limiter:  NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		detector: NewDetector(WithSniffLines(cfg.Detect.SniffLines)),
		cfg:      cfg,
	}, nil
}

// DetectUpload reads an uploaded file, detects its table and records the
// result in history. size is the declared length, or 0 when unknown.
func (s *Service) DetectUpload(ctx context.Context, fileName string, r io.Reader, size int64) (*Report, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	raw, err := ReadUpload(r, size, s.cfg.Upload.MaxFileSize)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	log := logging.WithFields(ctx, "file", fileName, "bytes", len(raw), "sha256", hash[:12])

	det, cached, err := s.detect(ctx, hash, raw)
	if err != nil {
		log.Info("detection failed", "error", err)
		return nil, err
	}

	rep := &Report{
		ID:        uuid.New(),
		FileName:  fileName,
		Size:      int64(len(raw)),
		SHA256:    hash,
		Label:     det.Label,
		Candidate: det.Candidate,
		Fallback:  det.Fallback,
		Score:     det.Score,
		Columns:   det.Table.NumColumns(),
		Rows:      det.Table.NumRows(),
		Table:     det.Table,
		Attempts:  det.Attempts,
		Cached:    cached,
		CreatedAt: time.Now().UTC(),
	}
	rep.Duration = time.Since(start)
	rep.DurationMs = rep.Duration.Milliseconds()

	if err := s.store.InsertDetection(ctx, newHistoryRecord(ctx, rep, s.cfg.History.PreviewRows)); err != nil {
		log.Warn("failed to record detection history", "error", err)
	}

	log.Info("detection complete",
		"id", rep.ID,
		"label", rep.Label,
		"columns", rep.Columns,
		"rows", rep.Rows,
		"cached", rep.Cached,
		"duration_ms", rep.DurationMs,
	)

	return rep, nil
}

// Detect runs detection on raw bytes through the cache without recording
// history.
func (s *Service) Detect(ctx context.Context, raw []byte) (*Detection, error) {
	sum := sha256.Sum256(raw)
	det, _, err := s.detect(ctx, hex.EncodeToString(sum[:]), raw)
	return det, err
}

// detect consults the cache before running the detector. Cache errors are
// logged and treated as misses.
func (s *Service) detect(ctx context.Context, hash string, raw []byte) (*Detection, bool, error) {
	if s.cache != nil {
		det, ok, err := s.cache.Get(ctx, hash)
		if err != nil {
			logging.FromContext(ctx).Warn("detection cache lookup failed", "error", err)
		} else if ok && det != nil && det.Table != nil {
			return det, true, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("detect: %w", err)
	}

	det, err := s.detector.Detect(raw)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hash, det); err != nil {
			logging.FromContext(ctx).Warn("detection cache store failed", "error", err)
		}
	}

	return det, false, nil
}

// LimiterStatus reports current upload slot usage.
func (s *Service) LimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
