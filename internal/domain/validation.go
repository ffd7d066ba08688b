package domain

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	ReasonRequired = "required"
	ReasonPattern  = "pattern"
	ReasonRange    = "range"
)

var amountPattern = regexp.MustCompile(`^\d+$`)

type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Violations is the set of field-level problems found on a form. A nil or empty
// value means the form is valid.
type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, it := range v {
		parts = append(parts, it.Field+": "+it.Reason)
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

func (v Violations) Has(field string) bool {
	for _, it := range v {
		if it.Field == field {
			return true
		}
	}
	return false
}

// Prefixed returns a copy with every field name prefixed, e.g. "items[2].".
func (v Violations) Prefixed(prefix string) Violations {
	out := make(Violations, 0, len(v))
	for _, it := range v {
		out = append(out, Violation{Field: prefix + it.Field, Reason: it.Reason})
	}
	return out
}

func required(out Violations, field, value string) Violations {
	if value == "" {
		return append(out, Violation{Field: field, Reason: ReasonRequired})
	}
	return out
}

// ValidateDraft checks the add-item form and, when it is valid, returns the LineItem it
// describes with the amount already parsed.
func ValidateDraft(d Draft) (LineItem, Violations) {
	var out Violations
	out = required(out, "description", d.Description)

	var amount int64
	switch {
	case d.Amount == "":
		out = append(out, Violation{Field: "amount", Reason: ReasonRequired})
	case !amountPattern.MatchString(d.Amount):
		out = append(out, Violation{Field: "amount", Reason: ReasonPattern})
	default:
		n, err := strconv.ParseInt(d.Amount, 10, 64)
		if err != nil {
			out = append(out, Violation{Field: "amount", Reason: ReasonRange})
			break
		}
		amount = n
	}

	if len(out) > 0 {
		return LineItem{}, out
	}
	return LineItem{Description: d.Description, Amount: amount}, nil
}

// ValidateReceipt checks the header fields. Items are validated when they are added, and an
// empty item list is allowed.
func ValidateReceipt(f ReceiptForm) Violations {
	var out Violations
	out = required(out, "from", f.From)
	out = required(out, "concept", f.Concept)
	out = required(out, "received_by", f.ReceivedBy)
	out = required(out, "phone", f.Phone)
	out = required(out, "date", f.Date)
	return out
}
