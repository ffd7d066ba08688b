package rest

import (
	"errors"
	"net/http"
	"strings"

	"recibo-export/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Create(r.Context())
	if err != nil {
		h.fail(w, "createSession", err)
		return
	}
	SuccessCreated(w, "session created", st)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "getSession", err)
		return
	}
	Success(w, "", st)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "closeSession", err)
		return
	}
	Success(w, "session closed", nil)
}

func (h *Handler) updateForm(w http.ResponseWriter, r *http.Request) {
	patch, err := ValidateFormRequest(r)
	if err != nil {
		h.fail(w, "updateForm", err)
		return
	}
	st, err := h.sessions.UpdateForm(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, "updateForm", err)
		return
	}
	Success(w, "", st)
}

func (h *Handler) openModal(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.OpenModal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "openModal", err)
		return
	}
	Success(w, "", st)
}

func (h *Handler) closeModal(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.CloseModal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "closeModal", err)
		return
	}
	Success(w, "", st)
}

func (h *Handler) setDraft(w http.ResponseWriter, r *http.Request) {
	d, err := ValidateDraftRequest(r)
	if err != nil {
		h.fail(w, "setDraft", err)
		return
	}
	if d == nil {
		d = &domain.Draft{}
	}
	st, err := h.sessions.SetDraft(r.Context(), chi.URLParam(r, "id"), *d)
	if err != nil {
		h.fail(w, "setDraft", err)
		return
	}
	Success(w, "", st)
}

func (h *Handler) saveItem(w http.ResponseWriter, r *http.Request) {
	d, err := ValidateDraftRequest(r)
	if err != nil {
		h.fail(w, "saveItem", err)
		return
	}

	st, err := h.sessions.SaveItem(r.Context(), chi.URLParam(r, "id"), d)
	var v domain.Violations
	if errors.As(err, &v) {
		ErrorUnprocessable(w, "validation failed", map[string]interface{}{
			"violations": v,
			"state":      st,
		})
		return
	}
	if err != nil {
		h.fail(w, "saveItem", err)
		return
	}
	SuccessCreated(w, "item added", st)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	index, err := ParseIndex(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, "removeItem", err)
		return
	}
	st, err := h.sessions.RemoveItem(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, "removeItem", err)
		return
	}
	Success(w, "item removed", st)
}

func (h *Handler) total(w http.ResponseWriter, r *http.Request) {
	total, formatted, err := h.sessions.Total(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "total", err)
		return
	}
	Success(w, "", map[string]interface{}{
		"total":     total,
		"formatted": formatted,
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	stream := wantsPDF(r)

	res, err := h.sessions.Submit(r.Context(), chi.URLParam(r, "id"), !stream)
	if err != nil {
		h.fail(w, "submit", err)
		return
	}

	if stream {
		Attachment(w, res.Artifact.FileName, res.Artifact.ContentType, res.Artifact.Data)
		return
	}
	SuccessCreated(w, "receipt ready", map[string]interface{}{
		"file_url":  res.FileURL,
		"file_name": res.Artifact.FileName,
	})
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		ErrorBadRequest(w, "session_id is required")
		return
	}
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		h.fail(w, "subscribe", err)
		return
	}
	h.ws.HandleWebSocket(w, r, id)
}

func wantsPDF(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/pdf")
}
