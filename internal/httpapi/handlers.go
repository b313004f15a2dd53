package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/translator"
)

type submitResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type statusResponse struct {
	JobID    string            `json:"job_id"`
	Status   models.JobStatus  `json:"status"`
	Progress int               `json:"progress"`
	Message  string            `json:"message"`
	Error    *models.ErrorInfo `json:"error,omitempty"`
}

type translateRequest struct {
	Summary    string `json:"summary"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	Success           bool   `json:"success"`
	TranslatedSummary string `json:"translated_summary"`
	SourceLang        string `json:"source_lang"`
	TargetLang        string `json:"target_lang"`
}

// handleUpload stages the multipart "file" field and submits it.
func (h *implHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", h.maxUpload>>20))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	ctx := r.Context()
	path, err := h.ingestor.SaveUpload(ctx, header.Filename, file)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	id, err := h.proc.Submit(ctx, models.Source{FilePath: path, FileName: header.Filename})
	if err != nil {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			h.logger.Warn(ctx, "Failed to remove staged upload: %v", rerr)
		}
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Message: "Upload successful", JobID: id})
}

func (h *implHandler) handleProcessURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "No URL provided")
		return
	}

	id, err := h.proc.Submit(r.Context(), models.Source{URL: strings.TrimSpace(req.URL)})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Message: "URL processing started", JobID: id})
}

func (h *implHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.proc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatus(job))
}

func (h *implHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.proc.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *implHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	art, err := h.proc.Render(r.Context(), r.PathValue("id"), r.PathValue("format"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

func (h *implHandler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	translated, err := h.proc.TranslateSummary(r.Context(), req.Summary, req.SourceLang, req.TargetLang)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	source := req.SourceLang
	if source != "" {
		source = translator.Normalize(source)
	}
	writeJSON(w, http.StatusOK, translateResponse{
		Success:           true,
		TranslatedSummary: translated,
		SourceLang:        source,
		TargetLang:        translator.Normalize(req.TargetLang),
	})
}

func (h *implHandler) handleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.proc.List(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]statusResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toStatus(j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *implHandler) handleEvict(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.Evict(r.Context(), r.PathValue("id")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *implHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toStatus(j models.Job) statusResponse {
	return statusResponse{
		JobID:    j.ID,
		Status:   j.Status,
		Progress: j.Progress,
		Message:  j.Message,
		Error:    j.Error,
	}
}
