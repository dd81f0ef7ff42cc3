package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwolter/daylist/internal/app"
	"github.com/mwolter/daylist/internal/events"
	"github.com/mwolter/daylist/internal/task"
	"github.com/mwolter/daylist/internal/view"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, nil); err != nil {
		slog.Error("render page", "error", err)
	}
}

// handleFragment renders the visible subset for the requested mode and
// query, kicks off the asynchronous hydration pass, and returns the
// fragment plus counters.
func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	f := view.Filter{
		Mode:  view.ParseMode(r.URL.Query().Get("mode")),
		Query: r.URL.Query().Get("q"),
	}

	res := s.renderer.Render(s.ctrl.Tasks(), f)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		urls, err := s.renderer.Hydrate(ctx, res)
		if err != nil {
			// A newer render superseded this pass; nothing to publish.
			return
		}
		s.bus.Publish(events.NewEvent(events.EventPreviewsHydrated, map[string]any{
			"generation": res.Generation,
			"urls":       urls,
		}))
	}()

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	req := app.AddRequest{
		Text:      r.FormValue("text"),
		Date:      r.FormValue("date"),
		TimeStart: r.FormValue("timeStart"),
		TimeEnd:   r.FormValue("timeEnd"),
		Priority:  r.FormValue("priority"),
	}

	if file, header, err := r.FormFile("attachment"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read attachment")
			return
		}
		req.Upload = &app.Upload{
			Name: header.Filename,
			Type: header.Header.Get("Content-Type"),
			Data: data,
		}
	}

	t, err := s.ctrl.Add(r.Context(), req)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	t, err := s.ctrl.ToggleComplete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	req := app.EditRequest{
		Text:      r.FormValue("text"),
		Date:      r.FormValue("date"),
		TimeStart: r.FormValue("timeStart"),
		TimeEnd:   r.FormValue("timeEnd"),
		Priority:  r.FormValue("priority"),
	}

	t, err := s.ctrl.Edit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleOpen issues a short-lived blob URL for a task's attachment.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ctrl.Find(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if t.Attachment == nil {
		writeError(w, http.StatusNotFound, "Attachment not found.")
		return
	}

	url, err := s.renderer.Open(r.Context(), t.Attachment.ID)
	if err != nil {
		if errors.Is(err, view.ErrAttachmentNotFound) {
			writeError(w, http.StatusNotFound, "Attachment not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleBlob resolves a live token and streams the payload. Expired or
// revoked tokens are indistinguishable from unknown ones.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	id, ok := s.urls.Resolve(view.URLPrefix + token)
	if !ok {
		http.NotFound(w, r)
		return
	}

	rec, err := s.blobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}

	contentType := rec.Type
	if contentType == "" || contentType == "unknown" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", rec.Name))
	w.Write(rec.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}
	writeJSON(w, http.StatusOK, s.bus.History(limit))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMutationError maps controller errors onto HTTP statuses: validation
// failures surface their user-facing message, unknown ids are 404.
func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case task.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, task.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
