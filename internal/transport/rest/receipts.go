package rest

import (
	"net/http"
)

// renderReceipt builds a receipt from one request body, without a session.
func (h *Handler) renderReceipt(w http.ResponseWriter, r *http.Request) {
	in, err := ValidateReceiptRequest(r)
	if err != nil {
		h.fail(w, "renderReceipt", err)
		return
	}

	art, err := h.sessions.Render(r.Context(), in)
	if err != nil {
		h.fail(w, "renderReceipt", err)
		return
	}
	Attachment(w, art.FileName, art.ContentType, art.Data)
}
