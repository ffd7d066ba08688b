package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"recibo-export/internal/domain"
	"recibo-export/internal/service"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type rawFormRequest struct {
	From       interface{} `json:"from"`
	Concept    interface{} `json:"concept"`
	Comments   interface{} `json:"comments"`
	ReceivedBy interface{} `json:"received_by"`
	Phone      interface{} `json:"phone"`
	Date       interface{} `json:"date"`
}

type rawDraftRequest struct {
	Description interface{} `json:"description"`
	Amount      interface{} `json:"amount"`
}

type rawReceiptRequest struct {
	rawFormRequest
	Items []rawDraftRequest `json:"items"`
}

var errEmptyBody = errors.New("empty body")

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	// keeps unquoted amounts as written instead of rounding them through float64
	dec.UseNumber()
	err := dec.Decode(dst)
	if err == io.EOF {
		return errEmptyBody
	}
	if err != nil {
		return &ValidationError{Message: "invalid JSON"}
	}
	return nil
}

func ValidateFormRequest(r *http.Request) (domain.FormPatch, error) {
	var raw rawFormRequest
	if err := decode(r, &raw); err != nil && err != errEmptyBody {
		return domain.FormPatch{}, err
	}
	return raw.toPatch()
}

func (raw rawFormRequest) toPatch() (domain.FormPatch, error) {
	var p domain.FormPatch
	fields := []struct {
		name string
		in   interface{}
		out  **string
	}{
		{"from", raw.From, &p.From},
		{"concept", raw.Concept, &p.Concept},
		{"comments", raw.Comments, &p.Comments},
		{"received_by", raw.ReceivedBy, &p.ReceivedBy},
		{"phone", raw.Phone, &p.Phone},
		{"date", raw.Date, &p.Date},
	}
	for _, f := range fields {
		v, err := toStringPtr(f.in)
		if err != nil {
			return domain.FormPatch{}, &ValidationError{Field: f.name, Message: f.name + " must be string or number"}
		}
		*f.out = v
	}
	return p, nil
}

// ValidateDraftRequest returns nil when the body is empty so the stored draft is used.
func ValidateDraftRequest(r *http.Request) (*domain.Draft, error) {
	var raw rawDraftRequest
	if err := decode(r, &raw); err != nil {
		if err == errEmptyBody {
			return nil, nil
		}
		return nil, err
	}
	d, err := raw.toDraft("")
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (raw rawDraftRequest) toDraft(prefix string) (domain.Draft, error) {
	desc, err := toStringPtr(raw.Description)
	if err != nil {
		return domain.Draft{}, &ValidationError{Field: prefix + "description", Message: prefix + "description must be string"}
	}
	amount, err := toStringPtr(raw.Amount)
	if err != nil {
		return domain.Draft{}, &ValidationError{Field: prefix + "amount", Message: prefix + "amount must be string or number"}
	}

	var d domain.Draft
	if desc != nil {
		d.Description = *desc
	}
	if amount != nil {
		d.Amount = *amount
	}
	return d, nil
}

func ValidateReceiptRequest(r *http.Request) (service.ReceiptInput, error) {
	var raw rawReceiptRequest
	if err := decode(r, &raw); err != nil {
		if err == errEmptyBody {
			return service.ReceiptInput{}, &ValidationError{Message: "request body is required"}
		}
		return service.ReceiptInput{}, err
	}

	patch, err := raw.toPatch()
	if err != nil {
		return service.ReceiptInput{}, err
	}

	items := make([]domain.Draft, 0, len(raw.Items))
	for i, it := range raw.Items {
		d, err := it.toDraft(fmt.Sprintf("items[%d].", i))
		if err != nil {
			return service.ReceiptInput{}, err
		}
		items = append(items, d)
	}

	return service.ReceiptInput{FormPatch: patch, Items: items}, nil
}

func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "index", Message: "index must be integer"}
	}
	return i, nil
}

// toStringPtr keeps "" as a value so a client can clear a field. Numbers are accepted
// because amounts are often sent unquoted.
func toStringPtr(v interface{}) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &t, nil
	case json.Number:
		s := t.String()
		return &s, nil
	default:
		return nil, &ValidationError{Message: "invalid type for string field"}
	}
}
