package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftnotes/apiserver/internal/services"
)

const shiftDateLayout = "2006-01-02"

// NoteHandler provides HTTP handlers for shift notes.
type NoteHandler struct {
	noteService  *services.NoteService
	orchestrator *services.AttachmentOrchestrator
}

func NewNoteHandler(noteService *services.NoteService, orchestrator *services.AttachmentOrchestrator) *NoteHandler {
	return &NoteHandler{
		noteService:  noteService,
		orchestrator: orchestrator,
	}
}

// NoteRouter registers note routes on the given router. All routes assume
// the auth middleware already ran.
func NoteRouter(r chi.Router, noteService *services.NoteService, orchestrator *services.AttachmentOrchestrator) {
	handler := NewNoteHandler(noteService, orchestrator)

	r.Get("/", handler.ListNotes)
	r.Post("/", handler.CreateNote)
	r.Get("/user/{userID}", handler.ListUserNotes)
	r.Route("/{noteID}", func(r chi.Router) {
		r.Get("/", handler.GetNote)
		r.Put("/", handler.UpdateNote)
		r.Delete("/", handler.DeleteNote)
		r.Post("/files", handler.UploadFiles)
	})
}

// NoteRequest is the JSON payload for creating or updating a note.
type NoteRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Priority  string `json:"priority"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	Ticket    string `json:"ticket"`
	ShiftDate string `json:"shift_date"`
}

func (req NoteRequest) toInput() (services.NoteInput, error) {
	input := services.NoteInput{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Priority: strings.TrimSpace(req.Priority),
		Category: strings.TrimSpace(req.Category),
		Status:   strings.TrimSpace(req.Status),
		Ticket:   strings.TrimSpace(req.Ticket),
	}
	if raw := strings.TrimSpace(req.ShiftDate); raw != "" {
		date, err := time.Parse(shiftDateLayout, raw)
		if err != nil {
			return services.NoteInput{}, err
		}
		input.ShiftDate = date
	}
	return input, nil
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) ListUserNotes(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := parseOptionalQueryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := parseOptionalQueryInt(r, "month")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	notes, err := h.noteService.ListByOwnerAndPeriod(r.Context(), ownerID, year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shift date")
		return
	}

	note, err := h.noteService.Create(r.Context(), actor, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shift date")
		return
	}

	note, err := h.noteService.Update(r.Context(), actor, id, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.noteService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseOptionalQueryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
