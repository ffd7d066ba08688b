package pdf

type Color struct {
	R, G, B int
}

var (
	Black     = Color{0, 0, 0}
	White     = Color{255, 255, 255}
	DarkGray  = Color{50, 50, 50}
	LightGray = Color{240, 240, 240}
)

type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

type Theme int

const (
	// ThemeGrid draws a border around every cell.
	ThemeGrid Theme = iota
	// ThemePlain draws no borders.
	ThemePlain
)

// CellStyle applies to every cell of a table region (head or body).
type CellStyle struct {
	Fill     *Color
	Text     Color
	Bold     bool
	FontSize float64
}

const defaultTableFontSize = 10

func (s CellStyle) fontSize() float64 {
	if s.FontSize <= 0 {
		return defaultTableFontSize
	}
	return s.FontSize
}

func (s CellStyle) fontStyle() string {
	if s.Bold {
		return "B"
	}
	return ""
}

// Table describes a block of rows laid out across the usable page width.
// A nil Head renders a body-only table.
type Table struct {
	Head      []string
	Body      [][]string
	Theme     Theme
	HeadStyle CellStyle
	BodyStyle CellStyle
	// ColumnWidths are fractions of the usable width. Missing or invalid values fall back
	// to equal columns.
	ColumnWidths []float64
}

func (t Table) Columns() int {
	n := len(t.Head)
	for _, row := range t.Body {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (t Table) widths(usable float64) []float64 {
	n := t.Columns()
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	if len(t.ColumnWidths) == n {
		sum := 0.0
		for _, f := range t.ColumnWidths {
			sum += f
		}
		if sum > 0 {
			for i, f := range t.ColumnWidths {
				out[i] = usable * f / sum
			}
			return out
		}
	}
	for i := range out {
		out[i] = usable / float64(n)
	}
	return out
}
