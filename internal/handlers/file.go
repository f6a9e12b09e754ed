package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shiftnotes/apiserver/internal/services"
	"github.com/shiftnotes/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	formFieldFiles     = "files"
)

// FileHandler provides HTTP handlers for file attachments.
type FileHandler struct {
	orchestrator *services.AttachmentOrchestrator
}

func NewFileHandler(orchestrator *services.AttachmentOrchestrator) *FileHandler {
	return &FileHandler{orchestrator: orchestrator}
}

// FileRouter registers attachment routes on the given router. All routes
// assume the auth middleware already ran.
func FileRouter(r chi.Router, orchestrator *services.AttachmentOrchestrator) {
	handler := NewFileHandler(orchestrator)

	r.Route("/{fileID}", func(r chi.Router) {
		r.Get("/download", handler.DownloadFile)
		r.Delete("/", handler.DeleteFile)
	})
}

// UploadFiles handles the multipart upload of a batch of files onto a
// note. Registered under the notes router.
func (h *NoteHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var files []services.UploadFile
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File[formFieldFiles] {
			file, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed to read upload")
				return
			}
			opened = append(opened, file)
			files = append(files, services.UploadFile{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Content:     file,
			})
		}
	}

	result, err := h.orchestrator.UploadBatch(r.Context(), actor, noteID, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:   fmt.Sprintf("%d of %d file(s) uploaded", len(result.Uploaded), result.Requested),
		Requested: result.Requested,
		Files:     result.Uploaded,
	})
}

// UploadResponse reports a batch upload, including partial failure: fewer
// files than requested means the rest failed and were skipped.
type UploadResponse struct {
	Message   string                 `json:"message"`
	Requested int                    `json:"requested"`
	Files     []types.FileAttachment `json:"files"`
}

func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachment, reader, err := h.orchestrator.Download(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	w.Header().Set("Content-Type", attachment.MimeType)
	_, _ = io.Copy(w, reader)
}

func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.DeleteAttachment(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
