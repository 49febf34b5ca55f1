package web

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/tabsniff/internal/core"
	"github.com/JonMunkholm/tabsniff/internal/logging"
	"github.com/JonMunkholm/tabsniff/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and headers. The service enforces the file limit itself.
const multipartOverhead = 1 << 20

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// handleIndex renders the upload form and recent history.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	recent, err := s.service.History(r.Context(), 10)
	if err != nil {
		// History is decoration on this page
		logging.FromContext(r.Context()).Warn("failed to load recent detections", "error", err)
		recent = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Index(recent, s.cfg.Upload.MaxFileSize).Render(r.Context(), w)
}

// handleDetectForm handles the HTML upload form and renders the result page.
func (s *Server) handleDetectForm(w http.ResponseWriter, r *http.Request) {
	rep, err := s.detectMultipart(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Result(rep, s.cfg.Detect.DisplayRows).Render(r.Context(), w)
}

// handleDetectionPage renders a stored detection.
func (s *Server) handleDetectionPage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.HistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Detection(rec).Render(r.Context(), w)
}

// handleDetectUpload detects a table in a multipart upload (field "file").
// The optional rows query parameter caps the rows returned.
func (s *Server) handleDetectUpload(w http.ResponseWriter, r *http.Request) {
	rep, err := s.detectMultipart(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, trimReport(rep, parseIntParam(r, "rows", 0)))
}

// handleDetectRaw detects a table in the raw request body. The file name
// comes from the name query parameter.
func (s *Server) handleDetectRaw(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1)

	name := cleanFileName(r.URL.Query().Get("name"))
	size := r.ContentLength
	if size < 0 {
		size = 0
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rep, err := s.service.DetectUpload(ctx, name, r.Body, size)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, trimReport(rep, parseIntParam(r, "rows", 0)))
}

// detectMultipart reads the "file" part of a multipart form and runs
// detection on it.
func (s *Server) detectMultipart(w http.ResponseWriter, r *http.Request) (*core.Report, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	// Keep at most 10MB of the form in memory, the rest spills to disk
	if err := r.ParseMultipartForm(min(maxSize, 10<<20)); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: exceeds limit of %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	return s.service.DetectUpload(ctx, cleanFileName(header.Filename), file, header.Size)
}

// handleListDetections returns recent detections, newest first.
func (s *Server) handleListDetections(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	recs, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"detections": recs,
		"count":      len(recs),
	})
}

// handleGetDetection returns one stored detection with its preview.
func (s *Server) handleGetDetection(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.HistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// handleExportDetection streams a stored preview as CSV.
func (s *Server) handleExportDetection(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.HistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	base := strings.TrimSuffix(rec.FileName, filepath.Ext(rec.FileName))
	filename := fmt.Sprintf("%s_preview_%s.csv", base, rec.CreatedAt.Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	if err := writeTableCSV(w, rec.Preview); err != nil {
		// Headers are already sent
		logging.FromContext(r.Context()).Warn("csv export failed", "id", rec.ID, "error", err)
	}
}

// writeTableCSV writes t as comma separated values with a header row.
// Missing values are written as empty fields.
func writeTableCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	if t == nil {
		cw.Flush()
		return cw.Error()
	}

	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.StringRows() {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// handleUploadStatus returns the current state of the upload limiter.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.LimiterStatus())
}

// handleHealth reports dependency health and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			logging.FromContext(ctx).Warn("health check failed", "check", c.Name, "error", err)
			checks[c.Name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	writeJSON(w, r, code, map[string]any{
		"status":  status,
		"checks":  checks,
		"uploads": s.service.LimiterStatus(),
	})
}

// trimReport returns rep with at most rows table rows; rows <= 0 keeps all.
func trimReport(rep *core.Report, rows int) *core.Report {
	if rows <= 0 || rep.Table.NumRows() <= rows {
		return rep
	}
	out := *rep
	out.Table = rep.Table.Head(rows)
	return &out
}

// cleanFileName strips any client supplied path.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
