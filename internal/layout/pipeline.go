package layout

import (
	"fmt"

	"recibo-export/pkg/pdf"
)

// Canvas is the set of drawing primitives the receipt template needs.
// *pdf.Document implements it.
type Canvas interface {
	PageSize() (float64, float64)
	SetFont(style string, size float64)
	SetTextColor(c pdf.Color)
	SetDrawColor(c pdf.Color)
	Text(x, y float64, s string, align pdf.Align)
	Line(x1, y1, x2, y2 float64)
	Image(name string, x, y, w, h float64) error
	Table(t pdf.Table, startY float64) float64
}

// Step draws one block starting at y and returns the offset where the next block starts.
type Step func(c Canvas, y float64) (float64, error)

// Run threads the vertical offset through steps in order.
func Run(c Canvas, y float64, steps ...Step) (float64, error) {
	for i, step := range steps {
		next, err := step(c, y)
		if err != nil {
			return y, fmt.Errorf("layout step %d: %w", i, err)
		}
		y = next
	}
	return y, nil
}
