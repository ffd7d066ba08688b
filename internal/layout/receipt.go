package layout

import (
	"fmt"

	"recibo-export/internal/domain"
	"recibo-export/pkg/pdf"
)

const (
	Title          = "RECIBO DE PAGO"
	NotAvailable   = "N/A"
	ReceivedByText = "Recibido Por:"

	titleBaseline = 10.0
	dividerGap    = 5.0
	dividerInset  = 10.0
	blockGap      = 5.0

	signatureImage      = "firma"
	signatureWidth      = 60.0
	signatureHeight     = 25.0
	signatureFromBottom = 60.0
)

var (
	DetailsHead = []string{"Detalle", "Información"}
	ItemsHead   = []string{"Descripción del Producto/Servicio", "Monto"}
)

// Receipt is the data printed on the document, already formatted for display.
type Receipt struct {
	From       string
	Date       string
	Concept    string
	Comments   string
	Items      []domain.LineItem
	Total      string // two decimals, without currency sign
	ReceivedBy string
}

// Steps returns the fixed receipt template. signature names a registered image; an empty
// name leaves the image out but keeps the signature line.
func Steps(r Receipt, signature string) []Step {
	return []Step{
		TitleStep(),
		DividerStep(),
		DetailsStep(r),
		ItemsStep(r.Items),
		TotalStep(r.Total),
		SignatureStep(signature, r.ReceivedBy),
	}
}

func TitleStep() Step {
	return func(c Canvas, y float64) (float64, error) {
		w, _ := c.PageSize()
		c.SetFont("B", 16)
		c.SetTextColor(pdf.Black)
		c.Text(w/2, y+titleBaseline, Title, pdf.AlignCenter)
		return y + titleBaseline + dividerGap, nil
	}
}

func DividerStep() Step {
	return func(c Canvas, y float64) (float64, error) {
		w, _ := c.PageSize()
		c.SetDrawColor(pdf.Black)
		c.Line(dividerInset, y, w-dividerInset, y)
		return y + blockGap, nil
	}
}

func DetailsTable(r Receipt) pdf.Table {
	comments := r.Comments
	if comments == "" {
		comments = NotAvailable
	}
	return pdf.Table{
		Head: DetailsHead,
		Body: [][]string{
			{"Recibí de:", r.From},
			{"Fecha:", r.Date},
			{"Concepto:", r.Concept},
			{"Comentarios:", comments},
		},
		Theme:        pdf.ThemeGrid,
		HeadStyle:    pdf.CellStyle{Fill: &pdf.DarkGray, Text: pdf.White},
		BodyStyle:    pdf.CellStyle{Fill: &pdf.LightGray, Text: pdf.Black},
		ColumnWidths: []float64{1, 3},
	}
}

func DetailsStep(r Receipt) Step {
	return func(c Canvas, y float64) (float64, error) {
		return c.Table(DetailsTable(r), y), nil
	}
}

func ItemsTable(items []domain.LineItem) pdf.Table {
	body := make([][]string, 0, len(items))
	for _, it := range items {
		body = append(body, []string{it.Description, it.DisplayAmount()})
	}
	return pdf.Table{
		Head:         ItemsHead,
		Body:         body,
		Theme:        pdf.ThemeGrid,
		HeadStyle:    pdf.CellStyle{Fill: &pdf.DarkGray, Text: pdf.White},
		BodyStyle:    pdf.CellStyle{Fill: &pdf.White, Text: pdf.Black},
		ColumnWidths: []float64{3, 1},
	}
}

func ItemsStep(items []domain.LineItem) Step {
	return func(c Canvas, y float64) (float64, error) {
		return c.Table(ItemsTable(items), y+blockGap), nil
	}
}

func TotalTable(total string) pdf.Table {
	return pdf.Table{
		Body:         [][]string{{"Total:", "$" + total}},
		Theme:        pdf.ThemePlain,
		BodyStyle:    pdf.CellStyle{Text: pdf.Black, Bold: true},
		ColumnWidths: []float64{3, 1},
	}
}

func TotalStep(total string) Step {
	return func(c Canvas, y float64) (float64, error) {
		return c.Table(TotalTable(total), y+blockGap), nil
	}
}

// SignatureStep is anchored to the bottom of the page and ignores the incoming offset.
func SignatureStep(image, receivedBy string) Step {
	return func(c Canvas, _ float64) (float64, error) {
		w, h := c.PageSize()
		x := (w - signatureWidth) / 2
		y := h - signatureFromBottom

		if image != "" {
			if err := c.Image(image, x, y, signatureWidth, signatureHeight); err != nil {
				return y, fmt.Errorf("signature image: %w", err)
			}
		}

		lineY := y + signatureHeight
		c.SetDrawColor(pdf.Black)
		c.Line(x, lineY, x+signatureWidth, lineY)

		c.SetFont("", 12)
		c.SetTextColor(pdf.Black)
		c.Text(w/2, lineY+7, ReceivedByText, pdf.AlignCenter)
		c.Text(w/2, lineY+15, receivedBy, pdf.AlignCenter)
		return lineY + 15, nil
	}
}
