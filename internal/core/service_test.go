package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/tabsniff/internal/config"
)

// fakeCache is an in-memory ResultCache that can be told to fail.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*Detection
	gets    int
	sets    int
	fail    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*Detection)}
}

func (c *fakeCache) Get(_ context.Context, key string) (*Detection, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail != nil {
		return nil, false, c.fail
	}
	det, ok := c.entries[key]
	return det, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, det *Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.fail != nil {
		return c.fail
	}
	c.entries[key] = det
	return nil
}

// failingStore rejects every insert.
type failingStore struct {
	*MemoryStore
}

func (failingStore) InsertDetection(context.Context, HistoryRecord) error {
	return errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:   1024,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       5 * time.Second,
		},
		Detect:  config.DetectConfig{SniffLines: 20, DisplayRows: 200},
		History: config.HistoryConfig{PreviewRows: 2, MaxList: 10, MemoryCapacity: 100},
	}
}

func newTestService(t *testing.T, cache ResultCache) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(100)
	svc, err := NewService(store, cache, testConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, store
}

func TestNewService_RequiresStoreAndConfig(t *testing.T) {
	if _, err := NewService(nil, nil, testConfig()); err == nil {
		t.Error("NewService(nil store) expected error")
	}
	if _, err := NewService(NewMemoryStore(1), nil, nil); err == nil {
		t.Error("NewService(nil config) expected error")
	}
}

func TestDetectUpload_RecordsHistory(t *testing.T) {
	svc, _ := newTestService(t, nil)

	ctx := ContextWithIPAddress(context.Background(), "10.0.0.1")
	ctx = ContextWithUserAgent(ctx, "test-agent")

	body := "a;b\n1;2\n3;4\n5;6\n"
	rep, err := svc.DetectUpload(ctx, "data.csv", strings.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("DetectUpload() error = %v", err)
	}

	if rep.Label != LabelSemicolon {
		t.Errorf("Label = %q, want %q", rep.Label, LabelSemicolon)
	}
	if rep.Columns != 2 || rep.Rows != 3 {
		t.Errorf("shape = %dx%d, want 2x3", rep.Columns, rep.Rows)
	}
	if rep.Cached {
		t.Error("Cached = true without a cache")
	}
	if len(rep.SHA256) != 64 {
		t.Errorf("SHA256 = %q, want 64 hex chars", rep.SHA256)
	}

	rec, err := svc.HistoryEntry(ctx, rep.ID.String())
	if err != nil {
		t.Fatalf("HistoryEntry() error = %v", err)
	}
	if rec.FileName != "data.csv" || rec.Label != LabelSemicolon {
		t.Errorf("record = %+v", rec)
	}
	if rec.IPAddress != "10.0.0.1" || rec.UserAgent != "test-agent" {
		t.Errorf("request metadata = %q / %q", rec.IPAddress, rec.UserAgent)
	}
	if rec.Preview.NumRows() != 2 {
		t.Errorf("preview rows = %d, want 2", rec.Preview.NumRows())
	}
	if rep.Table.NumRows() != 3 {
		t.Error("preview must not truncate the report table")
	}
}

func TestDetectUpload_CacheHit(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newTestService(t, cache)
	ctx := context.Background()

	body := "x,y\n1,2\n"
	first, err := svc.DetectUpload(ctx, "one.csv", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("first DetectUpload() error = %v", err)
	}
	second, err := svc.DetectUpload(ctx, "two.csv", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("second DetectUpload() error = %v", err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
	if first.ID == second.ID {
		t.Error("each upload should get its own ID")
	}
	if second.Label != first.Label {
		t.Errorf("cached label = %q, want %q", second.Label, first.Label)
	}

	hist, err := svc.History(ctx, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 2 || hist[0].FileName != "two.csv" {
		t.Errorf("History() = %+v, want two records newest first", hist)
	}
}

func TestDetectUpload_CacheFailureIsNotFatal(t *testing.T) {
	cache := newFakeCache()
	cache.fail = errors.New("redis down")
	svc, _ := newTestService(t, cache)

	rep, err := svc.DetectUpload(context.Background(), "f.csv", strings.NewReader("a,b\n1,2\n"), 0)
	if err != nil {
		t.Fatalf("DetectUpload() error = %v", err)
	}
	if rep.Cached {
		t.Error("Cached = true on a failing cache")
	}
}

func TestDetectUpload_StoreFailureIsNotFatal(t *testing.T) {
	svc, err := NewService(failingStore{NewMemoryStore(10)}, nil, testConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if _, err := svc.DetectUpload(context.Background(), "f.csv", strings.NewReader("a,b\n1,2\n"), 0); err != nil {
		t.Fatalf("DetectUpload() error = %v, want history failure ignored", err)
	}
}

func TestDetectUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		size    int64
		wantErr error
	}{
		{name: "empty body", body: nil, wantErr: ErrEmptyFile},
		{name: "declared too large", body: []byte("a,b\n"), size: 4096, wantErr: ErrFileTooLarge},
		{name: "actual too large", body: bytes.Repeat([]byte("a,b\n"), 300), wantErr: ErrFileTooLarge},
		{name: "comments only", body: []byte("# nothing\n\n"), wantErr: ErrNoTable},
		{name: "ragged rows", body: []byte("a,b\n1,2,3\n"), wantErr: ErrNoTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, nil)

			_, err := svc.DetectUpload(context.Background(), "f.csv", bytes.NewReader(tt.body), tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DetectUpload() error = %v, want %v", err, tt.wantErr)
			}

			hist, _ := store.ListDetections(context.Background(), 10)
			if len(hist) != 0 {
				t.Errorf("failed detection recorded %d history entries", len(hist))
			}
		})
	}
}

func TestDetectUpload_Busy(t *testing.T) {
	svc, _ := newTestService(t, nil)

	// Hold every slot.
	for i := 0; i < 2; i++ {
		if !svc.limiter.TryAcquire() {
			t.Fatal("TryAcquire() = false on an idle limiter")
		}
	}
	defer func() {
		svc.limiter.Release()
		svc.limiter.Release()
	}()

	_, err := svc.DetectUpload(context.Background(), "f.csv", strings.NewReader("a,b\n1,2\n"), 0)
	if !errors.Is(err, ErrTooManyUploads) {
		t.Fatalf("DetectUpload() error = %v, want ErrTooManyUploads", err)
	}
	if got := svc.LimiterStatus().Active; got != 2 {
		t.Errorf("Active = %d, want 2", got)
	}
}

func TestService_Detect(t *testing.T) {
	cache := newFakeCache()
	svc, store := newTestService(t, cache)
	ctx := context.Background()

	det, err := svc.Detect(ctx, []byte("a\tb\n1\t2\n"))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if det.Label != LabelTab {
		t.Errorf("Label = %q, want %q", det.Label, LabelTab)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}

	hist, _ := store.ListDetections(ctx, 10)
	if len(hist) != 0 {
		t.Error("Detect should not record history")
	}
}

func TestService_HistoryEntryUnknown(t *testing.T) {
	svc, _ := newTestService(t, nil)

	for _, id := range []string{"not-a-uuid", "3f1c1a52-0000-4000-8000-000000000000"} {
		if _, err := svc.HistoryEntry(context.Background(), id); !errors.Is(err, ErrDetectionNotFound) {
			t.Errorf("HistoryEntry(%q) error = %v, want ErrDetectionNotFound", id, err)
		}
	}
}

func TestService_HistoryLimitClamped(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := svc.DetectUpload(ctx, "f.csv", strings.NewReader("a,b\n1,2\n"), 0); err != nil {
			t.Fatalf("DetectUpload() error = %v", err)
		}
	}

	hist, err := svc.History(ctx, 1000)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 10 {
		t.Errorf("History(1000) len = %d, want MaxList 10", len(hist))
	}

	hist, _ = svc.History(ctx, 3)
	if len(hist) != 3 {
		t.Errorf("History(3) len = %d, want 3", len(hist))
	}
}

func TestService_WaitForUploads(t *testing.T) {
	svc, _ := newTestService(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.WaitForUploads(ctx); err != nil {
		t.Errorf("WaitForUploads() on idle service error = %v", err)
	}
}
