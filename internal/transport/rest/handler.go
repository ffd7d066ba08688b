package rest

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"recibo-export/internal/domain"
	"recibo-export/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ReceiptSessions interface {
	Create(ctx context.Context) (service.SessionState, error)
	Get(ctx context.Context, id string) (service.SessionState, error)
	UpdateForm(ctx context.Context, id string, p domain.FormPatch) (service.SessionState, error)
	OpenModal(ctx context.Context, id string) (service.SessionState, error)
	CloseModal(ctx context.Context, id string) (service.SessionState, error)
	SetDraft(ctx context.Context, id string, d domain.Draft) (service.SessionState, error)
	SaveItem(ctx context.Context, id string, d *domain.Draft) (service.SessionState, error)
	RemoveItem(ctx context.Context, id string, index int) (service.SessionState, error)
	Total(ctx context.Context, id string) (int64, string, error)
	Submit(ctx context.Context, id string, store bool) (*service.SubmitResult, error)
	Close(ctx context.Context, id string) error
	Render(ctx context.Context, in service.ReceiptInput) (*service.Artifact, error)
}

// FileResolver maps a stored artifact name to a local path. Only the local storage driver
// has one.
type FileResolver interface {
	Resolve(saved string) (path string, original string, err error)
}

type Subscriber interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, sessionID string)
}

type Handler struct {
	sessions ReceiptSessions
	files    FileResolver
	ws       Subscriber
}

func NewHandler(sessions ReceiptSessions, files FileResolver, ws Subscriber) *Handler {
	return &Handler{
		sessions: sessions,
		files:    files,
		ws:       ws,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	// The websocket upgrade must not sit behind the request timeout.
	if h.ws != nil {
		r.Get("/ws", h.subscribe)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.closeSession)
				r.Patch("/form", h.updateForm)
				r.Post("/modal", h.openModal)
				r.Delete("/modal", h.closeModal)
				r.Put("/draft", h.setDraft)
				r.Post("/items", h.saveItem)
				r.Delete("/items/{index}", h.removeItem)
				r.Get("/total", h.total)
				r.Post("/submit", h.submit)
			})
		})

		r.Post("/receipts", h.renderReceipt)

		if h.files != nil {
			r.Get("/files/{file}", h.serveFile)
		}
	})

	return r
}

// fail maps service errors onto the response envelope.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var v domain.Violations
	var ve *ValidationError
	switch {
	case errors.As(err, &v):
		ErrorUnprocessable(w, "validation failed", map[string]interface{}{"violations": v})
	case errors.As(err, &ve):
		ErrorBadRequest(w, ve.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		ErrorNotFound(w, "session not found")
	case errors.Is(err, service.ErrIndexOutOfRange):
		ErrorUnprocessable(w, err.Error(), nil)
	default:
		log.Printf("[HTTP] %s error: %v", op, err)
		ErrorInternal(w, "internal error")
	}
}
