package locale

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// InvalidDate is printed in place of a date that cannot be parsed.
const InvalidDate = "Invalid Date"

const longDateLayout = "2 de January de 2006"

var inputLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// FormatLongDate renders a calendar date the way es-MX writes it in full,
// e.g. "2025-09-03" -> "3 de septiembre de 2025". The date is taken as written, with no
// time zone shift.
func FormatLongDate(date string) string {
	date = strings.TrimSpace(date)
	for _, layout := range inputLayouts {
		t, err := time.Parse(layout, date)
		if err != nil {
			continue
		}
		return monday.Format(t, longDateLayout, monday.LocaleEsES)
	}
	return InvalidDate
}
