package pdf

// PaperSize is given in portrait orientation, in millimetres.
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	A4Size = PaperSize{Name: "A4", Width: 210, Height: 297}
	A5Size = PaperSize{Name: "A5", Width: 148, Height: 210} // half of an A4 sheet
)

type Orientation string

const (
	Portrait  Orientation = "P"
	Landscape Orientation = "L"
)

// Oriented returns the page width and height once the orientation is applied.
func (s PaperSize) Oriented(o Orientation) (float64, float64) {
	if o == Landscape {
		return s.Height, s.Width
	}
	return s.Width, s.Height
}
