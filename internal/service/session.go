package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"recibo-export/internal/domain"
	"recibo-export/internal/repository"

	"github.com/google/uuid"
)

var ErrSessionNotFound = repository.ErrSessionNotFound

type SessionRepository interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte) error
	Delete(ctx context.Context, id string) error
}

type ArtifactStore interface {
	Save(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	URL(ctx context.Context, saved string) (string, error)
}

type Notifier interface {
	NotifySessionUpdated(ctx context.Context, sessionID string, state any) error
	NotifyReceiptReady(ctx context.Context, sessionID, url, filename string) error
	NotifyReceiptFailed(ctx context.Context, sessionID, errMsg string) error
}

type ItemView struct {
	Description   string `json:"description"`
	Amount        int64  `json:"amount"`
	DisplayAmount string `json:"display_amount"`
}

// SessionState is what a client needs to draw the receipt screen.
type SessionState struct {
	ID              string            `json:"id"`
	From            string            `json:"from"`
	Concept         string            `json:"concept"`
	Comments        string            `json:"comments"`
	ReceivedBy      string            `json:"received_by"`
	Phone           string            `json:"phone"`
	Date            string            `json:"date"`
	FormattedDate   string            `json:"formatted_date"`
	Items           []ItemView        `json:"items"`
	Total           int64             `json:"total"`
	FormattedTotal  string            `json:"formatted_total"`
	ModalOpen       bool              `json:"modal_open"`
	Draft           domain.Draft      `json:"draft"`
	DraftViolations domain.Violations `json:"draft_violations"`
	Violations      domain.Violations `json:"violations"`
}

func stateOf(id string, c *ReceiptFormController) SessionState {
	f := c.Form()
	items := make([]ItemView, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, ItemView{
			Description:   it.Description,
			Amount:        it.Amount,
			DisplayAmount: it.DisplayAmount(),
		})
	}

	st := SessionState{
		ID:              id,
		From:            f.From,
		Concept:         f.Concept,
		Comments:        f.Comments,
		ReceivedBy:      f.ReceivedBy,
		Phone:           f.Phone,
		Date:            f.Date,
		Items:           items,
		Total:           c.CalculateTotal(),
		FormattedTotal:  c.FormatTotal(),
		ModalOpen:       c.IsModalOpen(),
		Draft:           c.Draft(),
		DraftViolations: domain.Violations{},
		Violations:      domain.Violations{},
	}
	if f.Date != "" {
		st.FormattedDate = c.FormatDate(f.Date)
	}
	// An untouched draft is not worth flagging.
	if !st.Draft.IsEmpty() {
		st.DraftViolations = append(st.DraftViolations, c.DraftViolations()...)
	}
	st.Violations = append(st.Violations, c.Validate()...)
	return st
}

// SubmitResult carries the rendered receipt and, when it was stored, where to fetch it.
type SubmitResult struct {
	Artifact   *Artifact
	StoredName string
	FileURL    string
}

// ReceiptInput describes a whole receipt for the stateless render path.
type ReceiptInput struct {
	domain.FormPatch
	Items []domain.Draft `json:"items"`
}

type SessionService struct {
	repo     SessionRepository
	store    ArtifactStore
	notifier Notifier
	renderer DocumentRenderer
	defaults domain.ReceiptDefaults
	locks    *keyedMutex
	newID    func() string
}

func NewSessionService(
	repo SessionRepository,
	store ArtifactStore,
	notifier Notifier,
	renderer DocumentRenderer,
	defaults domain.ReceiptDefaults,
) *SessionService {
	return &SessionService{
		repo:     repo,
		store:    store,
		notifier: notifier,
		renderer: renderer,
		defaults: defaults,
		locks:    newKeyedMutex(),
		newID:    uuid.NewString,
	}
}

func (s *SessionService) Create(ctx context.Context) (SessionState, error) {
	id := s.newID()
	c := NewReceiptFormController(s.defaults, s.renderer)
	if err := s.save(ctx, id, c); err != nil {
		return SessionState{}, err
	}
	log.Printf("[SESSION] created %s", id)
	return stateOf(id, c), nil
}

func (s *SessionService) Get(ctx context.Context, id string) (SessionState, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return SessionState{}, err
	}
	return stateOf(id, c), nil
}

func (s *SessionService) UpdateForm(ctx context.Context, id string, p domain.FormPatch) (SessionState, error) {
	return s.mutate(ctx, id, func(c *ReceiptFormController) error {
		c.UpdateForm(p)
		return nil
	})
}

func (s *SessionService) OpenModal(ctx context.Context, id string) (SessionState, error) {
	return s.mutate(ctx, id, func(c *ReceiptFormController) error {
		c.OpenAddItemModal()
		return nil
	})
}

func (s *SessionService) CloseModal(ctx context.Context, id string) (SessionState, error) {
	return s.mutate(ctx, id, func(c *ReceiptFormController) error {
		c.CloseModal()
		return nil
	})
}

func (s *SessionService) SetDraft(ctx context.Context, id string, d domain.Draft) (SessionState, error) {
	return s.mutate(ctx, id, func(c *ReceiptFormController) error {
		c.SetDraft(d)
		return nil
	})
}

// SaveItem commits the session draft as an item. When d is not nil it replaces the draft
// first, so a client can type and save in one call. An invalid draft is kept for the
// client to fix and the violations are returned as the error.
func (s *SessionService) SaveItem(ctx context.Context, id string, d *domain.Draft) (SessionState, error) {
	return s.mutate(ctx, id, func(c *ReceiptFormController) error {
		if d != nil {
			c.SetDraft(*d)
		}
		_, err := c.SaveItem()
		return err
	})
}

func (s *SessionService) RemoveItem(ctx context.Context, id string, index int) (SessionState, error) {
	return s.mutate(ctx, id, func(c *ReceiptFormController) error {
		return c.RemoveItem(index)
	})
}

func (s *SessionService) Total(ctx context.Context, id string) (int64, string, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return 0, "", err
	}
	return c.CalculateTotal(), c.FormatTotal(), nil
}

// Submit renders the session's receipt and discards the session. With store set the
// document is also handed to the artifact store and its URL is pushed to subscribers;
// if storing fails the session is kept so the client can retry.
func (s *SessionService) Submit(ctx context.Context, id string, store bool) (*SubmitResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	art, err := c.Submit()
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{Artifact: art}
	if store {
		if s.store == nil {
			return nil, errors.New("artifact store not configured")
		}
		saved, err := s.store.Save(ctx, art.FileName, art.ContentType, art.Data)
		if err == nil {
			res.StoredName = saved
			res.FileURL, err = s.store.URL(ctx, saved)
		}
		if err != nil {
			s.notifyFailed(ctx, id, err)
			return nil, fmt.Errorf("store receipt: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Printf("[SESSION] delete %s after submit: %v", id, err)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyReceiptReady(ctx, id, res.FileURL, art.FileName); err != nil {
			log.Printf("[SESSION] notify %s: %v", id, err)
		}
	}
	log.Printf("[SESSION] submitted %s (%d bytes)", id, len(art.Data))
	return res, nil
}

func (s *SessionService) Close(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[SESSION] closed %s", id)
	return nil
}

// Render builds a receipt without a session. Items go through the same draft checks as
// the screen; their violations are reported as items[i].<field>.
func (s *SessionService) Render(ctx context.Context, in ReceiptInput) (*Artifact, error) {
	c := NewReceiptFormController(s.defaults, s.renderer)
	c.UpdateForm(in.FormPatch)

	var all domain.Violations
	for i, d := range in.Items {
		c.SetDraft(d)
		if _, err := c.SaveItem(); err != nil {
			var v domain.Violations
			if !errors.As(err, &v) {
				return nil, err
			}
			all = append(all, v.Prefixed(fmt.Sprintf("items[%d].", i))...)
		}
	}
	c.CloseModal()

	all = append(c.Validate(), all...)
	if len(all) > 0 {
		return nil, all
	}
	return c.Submit()
}

// mutate runs op on the stored controller under the session lock. The result is saved
// when op succeeds or reports violations, since the draft binding may have changed.
func (s *SessionService) mutate(ctx context.Context, id string, op func(c *ReceiptFormController) error) (SessionState, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return SessionState{}, err
	}

	opErr := op(c)
	var v domain.Violations
	if opErr != nil && !errors.As(opErr, &v) {
		return stateOf(id, c), opErr
	}

	if err := s.save(ctx, id, c); err != nil {
		return SessionState{}, err
	}

	st := stateOf(id, c)
	if s.notifier != nil {
		if err := s.notifier.NotifySessionUpdated(ctx, id, st); err != nil {
			log.Printf("[SESSION] notify %s: %v", id, err)
		}
	}
	return st, opErr
}

func (s *SessionService) load(ctx context.Context, id string) (*ReceiptFormController, error) {
	data, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var snap FormSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return RestoreReceiptFormController(snap, s.renderer), nil
}

func (s *SessionService) save(ctx context.Context, id string, c *ReceiptFormController) error {
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	return s.repo.Save(ctx, id, data)
}

func (s *SessionService) notifyFailed(ctx context.Context, id string, cause error) {
	log.Printf("[SESSION] store receipt %s: %v", id, cause)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyReceiptFailed(ctx, id, cause.Error()); err != nil {
		log.Printf("[SESSION] notify %s: %v", id, err)
	}
}

// keyedMutex hands out one lock per session id and forgets it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
