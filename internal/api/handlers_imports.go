package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/figops/internal/export"
	"github.com/dgallion1/figops/internal/pipeline"
	"github.com/dgallion1/figops/internal/tasks"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleImport queues an import from an uploaded JSON document (form field
// "file") or from a Figma file key (form fields "file_key" and optional
// comma-separated "node_ids").
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var job *pipeline.Job
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		filename := sanitizeFilename(header.Filename)
		if ext := strings.ToLower(filepath.Ext(filename)); ext != ".json" {
			jsonError(w, fmt.Sprintf("unsupported file type: %s (expected .json)", ext), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		job = pipeline.NewJob(uuid.NewString(), filename, data, "", nil)

	case r.FormValue("file_key") != "":
		job = pipeline.NewJob(uuid.NewString(), "", nil, strings.TrimSpace(r.FormValue("file_key")), splitIDs(r.FormValue("node_ids")))

	default:
		jsonError(w, "file or file_key is required", http.StatusBadRequest)
		return
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/imports/%s/status", job.ID),
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleImportIndex(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	res := job.Result()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"finished_at": res.FinishedAt,
		"screens":     len(res.Records),
		"index":       res.Index,
	})
}

func (s *Server) handleImportExport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	plans, err := s.planMap(r)
	if err != nil {
		s.log.Error("list plans failed", "error", err)
		jsonError(w, "failed to load plans", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, job.Result().Index, plans); err != nil {
		s.log.Error("xlsx export failed", "job_id", job.ID, "error", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="figops-%s.xlsx"`, job.ID))
	w.Write(buf.Bytes())
}

// completedJob resolves {jobID} and writes the error response when the job
// is missing or has no result yet.
func (s *Server) completedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	if job.Result() == nil {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return nil, false
	}
	return job, true
}

func (s *Server) planMap(r *http.Request) (map[string]*tasks.Plan, error) {
	list, err := s.plans.List(r.Context())
	if err != nil {
		return nil, err
	}
	plans := make(map[string]*tasks.Plan, len(list))
	for _, p := range list {
		plans[p.FigmaID] = p
	}
	return plans, nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
