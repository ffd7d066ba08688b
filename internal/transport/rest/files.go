package rest

import (
	"errors"
	"fmt"
	"net/http"

	"recibo-export/internal/clients"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	path, orig, err := h.files.Resolve(chi.URLParam(r, "file"))
	if errors.Is(err, clients.ErrFileNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, "serveFile", err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))
	http.ServeFile(w, r, path)
}
