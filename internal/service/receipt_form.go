package service

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"recibo-export/internal/domain"
	"recibo-export/internal/layout"
	"recibo-export/internal/locale"

	"github.com/shopspring/decimal"
)

const (
	ReceiptFileName    = "recibo-pago.pdf"
	ReceiptContentType = "application/pdf"
)

var ErrIndexOutOfRange = errors.New("item index out of range")

type DocumentRenderer interface {
	Render(r layout.Receipt) ([]byte, error)
}

type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// FormSnapshot is the serializable state of one receipt screen.
type FormSnapshot struct {
	Form      domain.ReceiptForm `json:"form"`
	Draft     domain.Draft       `json:"draft"`
	ModalOpen bool               `json:"modal_open"`
}

// ReceiptFormController holds the receipt being composed, the add-item draft and the
// add-item dialog flag. It is not safe for concurrent use.
type ReceiptFormController struct {
	form      domain.ReceiptForm
	draft     domain.Draft
	modalOpen bool
	renderer  DocumentRenderer
}

func NewReceiptFormController(defaults domain.ReceiptDefaults, renderer DocumentRenderer) *ReceiptFormController {
	return &ReceiptFormController{
		form:     domain.NewReceiptForm(defaults),
		renderer: renderer,
	}
}

func RestoreReceiptFormController(s FormSnapshot, renderer DocumentRenderer) *ReceiptFormController {
	if s.Form.Items == nil {
		s.Form.Items = []domain.LineItem{}
	}
	return &ReceiptFormController{
		form:      s.Form,
		draft:     s.Draft,
		modalOpen: s.ModalOpen,
		renderer:  renderer,
	}
}

func (c *ReceiptFormController) Snapshot() FormSnapshot {
	form := c.form
	form.Items = slices.Clone(c.form.Items)
	return FormSnapshot{Form: form, Draft: c.draft, ModalOpen: c.modalOpen}
}

func (c *ReceiptFormController) Form() domain.ReceiptForm {
	return c.Snapshot().Form
}

func (c *ReceiptFormController) Items() []domain.LineItem {
	return slices.Clone(c.form.Items)
}

func (c *ReceiptFormController) CalculateTotal() int64 {
	var total int64
	for _, it := range c.form.Items {
		total += it.Amount
	}
	return total
}

// FormatTotal renders the total with exactly two decimals, e.g. "1500.00".
func (c *ReceiptFormController) FormatTotal() string {
	return decimal.NewFromInt(c.CalculateTotal()).StringFixed(2)
}

func (c *ReceiptFormController) IsModalOpen() bool {
	return c.modalOpen
}

func (c *ReceiptFormController) OpenAddItemModal() {
	c.modalOpen = true
}

// CloseModal hides the dialog and discards whatever was typed into the draft.
func (c *ReceiptFormController) CloseModal() {
	c.modalOpen = false
	c.draft = domain.Draft{}
}

func (c *ReceiptFormController) Draft() domain.Draft {
	return c.draft
}

func (c *ReceiptFormController) SetDraft(d domain.Draft) {
	c.draft = d
}

func (c *ReceiptFormController) DraftViolations() domain.Violations {
	_, v := domain.ValidateDraft(c.draft)
	return v
}

// SaveItem appends the draft as a new item, clears the draft and closes the dialog.
// An invalid draft is returned as domain.Violations and nothing changes. So is an amount
// that would push the total past math.MaxInt64.
func (c *ReceiptFormController) SaveItem() (domain.LineItem, error) {
	item, v := domain.ValidateDraft(c.draft)
	if len(v) > 0 {
		return domain.LineItem{}, v
	}
	if item.Amount > math.MaxInt64-c.CalculateTotal() {
		return domain.LineItem{}, domain.Violations{{Field: "amount", Reason: domain.ReasonRange}}
	}
	c.form.Items = append(c.form.Items, item)
	c.draft = domain.Draft{}
	c.modalOpen = false
	return item, nil
}

func (c *ReceiptFormController) RemoveItem(index int) error {
	if index < 0 || index >= len(c.form.Items) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(c.form.Items))
	}
	c.form.Items = slices.Delete(c.form.Items, index, index+1)
	return nil
}

func (c *ReceiptFormController) UpdateForm(p domain.FormPatch) {
	c.form.Apply(p)
}

func (c *ReceiptFormController) Validate() domain.Violations {
	return domain.ValidateReceipt(c.form)
}

func (c *ReceiptFormController) FormatDate(date string) string {
	return locale.FormatLongDate(date)
}

// Submit renders the receipt document. An invalid form is returned as domain.Violations
// and no document is produced. Submit never changes the controller state.
func (c *ReceiptFormController) Submit() (*Artifact, error) {
	if v := c.Validate(); len(v) > 0 {
		return nil, v
	}
	if c.renderer == nil {
		return nil, errors.New("document renderer not configured")
	}

	data, err := c.renderer.Render(layout.Receipt{
		From:       c.form.From,
		Date:       c.FormatDate(c.form.Date),
		Concept:    c.form.Concept,
		Comments:   c.form.Comments,
		Items:      slices.Clone(c.form.Items),
		Total:      c.FormatTotal(),
		ReceivedBy: c.form.ReceivedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	return &Artifact{
		FileName:    ReceiptFileName,
		ContentType: ReceiptContentType,
		Data:        data,
	}, nil
}
