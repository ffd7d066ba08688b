package layout

import (
	"fmt"

	"recibo-export/pkg/pdf"
)

// Renderer turns a Receipt into PDF bytes on a landscape half-A4 page.
type Renderer struct {
	signature []byte
}

// NewRenderer takes the PNG bytes of the signature; nil renders without it.
func NewRenderer(signature []byte) *Renderer {
	return &Renderer{signature: signature}
}

func (r *Renderer) Render(rc Receipt) ([]byte, error) {
	doc := pdf.New(pdf.Options{Size: pdf.A5Size, Orientation: pdf.Landscape})

	image := ""
	if len(r.signature) > 0 {
		if err := doc.RegisterImage(signatureImage, r.signature); err != nil {
			return nil, err
		}
		image = signatureImage
	}

	if _, err := Run(doc, 0, Steps(rc, image)...); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return doc.Bytes()
}
