package domain

import "strconv"

type LineItem struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// DisplayAmount is the amount as printed in the item table.
func (i LineItem) DisplayAmount() string {
	return "$" + strconv.FormatInt(i.Amount, 10)
}

type ReceiptForm struct {
	From       string     `json:"from"`
	Concept    string     `json:"concept"`
	Items      []LineItem `json:"items"`
	Comments   string     `json:"comments"`
	ReceivedBy string     `json:"received_by"`
	Phone      string     `json:"phone"`
	Date       string     `json:"date"`
}

// Draft is the add-item form as typed, before it becomes a LineItem.
type Draft struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (d Draft) IsEmpty() bool {
	return d.Description == "" && d.Amount == ""
}

type ReceiptDefaults struct {
	ReceivedBy string
	Phone      string
}

func NewReceiptForm(defaults ReceiptDefaults) ReceiptForm {
	return ReceiptForm{
		Items:      []LineItem{},
		ReceivedBy: defaults.ReceivedBy,
		Phone:      defaults.Phone,
	}
}

// FormPatch carries the header fields a client wants to change; nil leaves a field as is.
type FormPatch struct {
	From       *string `json:"from,omitempty"`
	Concept    *string `json:"concept,omitempty"`
	Comments   *string `json:"comments,omitempty"`
	ReceivedBy *string `json:"received_by,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Date       *string `json:"date,omitempty"`
}

func (f *ReceiptForm) Apply(p FormPatch) {
	if p.From != nil {
		f.From = *p.From
	}
	if p.Concept != nil {
		f.Concept = *p.Concept
	}
	if p.Comments != nil {
		f.Comments = *p.Comments
	}
	if p.ReceivedBy != nil {
		f.ReceivedBy = *p.ReceivedBy
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.Date != nil {
		f.Date = *p.Date
	}
}
