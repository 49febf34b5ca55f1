package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/tabsniff/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// fakeRow hands fixed column values to Scan.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *int64:
			*p = r.values[i].(int64)
		case *int:
			*p = r.values[i].(int)
		case *bool:
			*p = r.values[i].(bool)
		case *[]byte:
			if r.values[i] != nil {
				*p = r.values[i].([]byte)
			}
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

// fakeDB records Exec calls and serves one QueryRow result.
type fakeDB struct {
	execSQL  string
	execArgs []any
	row      pgx.Row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	if strings.HasPrefix(sql, "DELETE") {
		return pgconn.NewCommandTag("DELETE 3"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return f.row
}

func sampleRecord() core.HistoryRecord {
	return core.HistoryRecord{
		ID:        uuid.New(),
		FileName:  "data.csv",
		Size:      42,
		SHA256:    "abc",
		Label:     core.LabelComma,
		Candidate: "comma",
		Columns:   2,
		Rows:      1,
		Preview: &core.Table{
			Columns: []string{"a", "b"},
			Rows:    [][]core.Value{{core.NumberValue(1), core.Missing()}},
		},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestInsertDetection_EncodesPreview(t *testing.T) {
	db := &fakeDB{}
	store := NewHistoryStore(db)
	rec := sampleRecord()

	if err := store.InsertDetection(context.Background(), rec); err != nil {
		t.Fatalf("InsertDetection() error = %v", err)
	}

	if len(db.execArgs) != 13 {
		t.Fatalf("args = %d, want 13", len(db.execArgs))
	}
	preview, ok := db.execArgs[9].([]byte)
	if !ok {
		t.Fatalf("preview arg = %T, want []byte", db.execArgs[9])
	}
	if got, want := string(preview), `{"columns":["a","b"],"rows":[[1,null]]}`; got != want {
		t.Errorf("preview = %s, want %s", got, want)
	}
}

func TestInsertDetection_NilPreview(t *testing.T) {
	db := &fakeDB{}
	rec := sampleRecord()
	rec.Preview = nil

	if err := NewHistoryStore(db).InsertDetection(context.Background(), rec); err != nil {
		t.Fatalf("InsertDetection() error = %v", err)
	}
	if b, _ := db.execArgs[9].([]byte); b != nil {
		t.Errorf("preview arg = %s, want nil", b)
	}
}

func TestGetDetection(t *testing.T) {
	rec := sampleRecord()
	preview, _ := json.Marshal(rec.Preview)

	db := &fakeDB{row: fakeRow{values: []any{
		rec.ID, rec.FileName, rec.Size, rec.SHA256, rec.Label, rec.Candidate,
		rec.Fallback, rec.Columns, rec.Rows, preview, "", "", rec.CreatedAt,
	}}}

	got, err := NewHistoryStore(db).GetDetection(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetDetection() error = %v", err)
	}
	if got.ID != rec.ID || got.FileName != rec.FileName || got.Label != rec.Label {
		t.Errorf("GetDetection() = %+v", got)
	}
	if got.Preview == nil || got.Preview.NumColumns() != 2 || !got.Preview.Rows[0][1].IsMissing() {
		t.Errorf("Preview = %+v", got.Preview)
	}
}

func TestGetDetection_NotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}

	_, err := NewHistoryStore(db).GetDetection(context.Background(), uuid.New())
	if !errors.Is(err, core.ErrDetectionNotFound) {
		t.Errorf("GetDetection() error = %v, want ErrDetectionNotFound", err)
	}
}

func TestPruneDetections(t *testing.T) {
	db := &fakeDB{}
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := NewHistoryStore(db).PruneDetections(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("PruneDetections() error = %v", err)
	}
	if n != 3 {
		t.Errorf("pruned = %d, want 3", n)
	}
	if got, ok := db.execArgs[0].(time.Time); !ok || !got.Equal(cutoff) {
		t.Errorf("cutoff arg = %v", db.execArgs[0])
	}
}

// TestHistoryStore_Postgres runs against a real database when
// TABSNIFF_TEST_DATABASE_URL is set.
func TestHistoryStore_Postgres(t *testing.T) {
	url := os.Getenv("TABSNIFF_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TABSNIFF_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	store := NewHistoryStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	rec := sampleRecord()
	rec.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := store.InsertDetection(ctx, rec); err != nil {
		t.Fatalf("InsertDetection() error = %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM detections WHERE id = $1", rec.ID)
	})

	got, err := store.GetDetection(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetDetection() error = %v", err)
	}
	if got.Preview.NumRows() != 1 {
		t.Errorf("Preview rows = %d, want 1", got.Preview.NumRows())
	}

	list, err := store.ListDetections(ctx, 5)
	if err != nil {
		t.Fatalf("ListDetections() error = %v", err)
	}
	if len(list) == 0 || list[0].Preview != nil {
		t.Errorf("ListDetections() = %+v, want entries without previews", list)
	}
}
