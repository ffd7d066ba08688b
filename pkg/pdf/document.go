package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily  = "Helvetica"
	cellPadding = 1.76 // mm
	ptToMM      = 25.4 / 72
	lineSpacing = 1.15
)

type Options struct {
	Size        PaperSize
	Orientation Orientation
	// Margin is the left/right/bottom margin used by tables, in mm.
	Margin float64
}

// Document is a single-page-first PDF canvas in millimetres. Drawing calls record errors
// inside the underlying fpdf instance; they surface from Bytes and WriteTo.
type Document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	width  float64
	height float64
	margin float64
}

func New(opts Options) *Document {
	if opts.Size.Width == 0 {
		opts.Size = A4Size
	}
	if opts.Orientation == "" {
		opts.Orientation = Portrait
	}
	if opts.Margin <= 0 {
		opts.Margin = 14
	}

	p := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: string(opts.Orientation),
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: opts.Size.Width, Ht: opts.Size.Height},
	})
	p.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetFont(fontFamily, "", 12)
	p.SetDrawColor(0, 0, 0)

	w, h := opts.Size.Oriented(opts.Orientation)

	return &Document{
		pdf:    p,
		tr:     p.UnicodeTranslatorFromDescriptor(""),
		width:  w,
		height: h,
		margin: opts.Margin,
	}
}

func (d *Document) PageSize() (float64, float64) {
	return d.width, d.height
}

func (d *Document) SetFont(style string, size float64) {
	d.pdf.SetFont(fontFamily, style, size)
}

func (d *Document) SetTextColor(c Color) {
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

func (d *Document) SetDrawColor(c Color) {
	d.pdf.SetDrawColor(c.R, c.G, c.B)
}

// Text draws s with its baseline at y. x is the left edge, the centre or the right edge
// depending on align.
func (d *Document) Text(x, y float64, s string, align Align) {
	s = d.tr(s)
	switch align {
	case AlignCenter:
		x -= d.pdf.GetStringWidth(s) / 2
	case AlignRight:
		x -= d.pdf.GetStringWidth(s)
	}
	d.pdf.Text(x, y, s)
}

func (d *Document) Line(x1, y1, x2, y2 float64) {
	d.pdf.Line(x1, y1, x2, y2)
}

// RegisterImage makes a PNG available to Image under name.
func (d *Document) RegisterImage(name string, png []byte) error {
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if d.pdf.Err() {
		return fmt.Errorf("register image %q: %w", name, d.pdf.Error())
	}
	return nil
}

func (d *Document) Image(name string, x, y, w, h float64) error {
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if d.pdf.Err() {
		return fmt.Errorf("place image %q: %w", name, d.pdf.Error())
	}
	return nil
}

// Table draws t starting at startY and returns the vertical offset just below its last
// row, so callers can stack blocks. Rows that would cross the bottom margin move to a new
// page.
func (d *Document) Table(t Table, startY float64) float64 {
	widths := t.widths(d.width - 2*d.margin)
	if len(widths) == 0 {
		return startY
	}

	y := startY
	if len(t.Head) > 0 {
		y = d.row(t.Head, widths, y, t.Theme, t.HeadStyle)
	}
	for _, r := range t.Body {
		y = d.row(r, widths, y, t.Theme, t.BodyStyle)
	}

	d.pdf.SetTextColor(0, 0, 0)
	return y
}

func (d *Document) row(cells []string, widths []float64, y float64, theme Theme, st CellStyle) float64 {
	d.pdf.SetFont(fontFamily, st.fontStyle(), st.fontSize())
	lh := st.fontSize() * ptToMM * lineSpacing

	lines := make([][]string, len(widths))
	maxLines := 1
	for i, w := range widths {
		text := ""
		if i < len(cells) {
			text = d.tr(cells[i])
		}
		lines[i] = d.wrap(text, w-2*cellPadding)
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}

	h := float64(maxLines)*lh + 2*cellPadding
	if y+h > d.height-d.margin {
		d.pdf.AddPage()
		y = d.margin
	}

	x := d.margin
	for i, w := range widths {
		style := ""
		if st.Fill != nil {
			d.pdf.SetFillColor(st.Fill.R, st.Fill.G, st.Fill.B)
			style += "F"
		}
		if theme == ThemeGrid {
			style += "D"
		}
		if style != "" {
			d.pdf.Rect(x, y, w, h, style)
		}

		d.pdf.SetTextColor(st.Text.R, st.Text.G, st.Text.B)
		for j, l := range lines[i] {
			d.pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lh)
			d.pdf.CellFormat(w-2*cellPadding, lh, l, "", 0, "L", false, 0, "")
		}
		x += w
	}

	return y + h
}

// wrap splits already translated text into lines no wider than w. A single word wider
// than w is kept whole.
func (d *Document) wrap(text string, w float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			next := cur + " " + word
			if d.pdf.GetStringWidth(next) > w {
				out = append(out, cur)
				cur = word
				continue
			}
			cur = next
		}
		out = append(out, cur)
	}
	return out
}

func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
