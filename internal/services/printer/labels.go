package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// LabelConfig holds configuration for equipment sticker sheets. Every sticker
// carries the verification QR of one certificate.
type LabelConfig struct {
	Payload         string  `json:"payload"`         // verification URL encoded in the QR
	NumeroDocumento string  `json:"numeroDocumento"` // printed under the QR
	Vencimiento     string  `json:"vencimiento"`     // printed top right
	Copies          int     `json:"copies"`
	Cols            int     `json:"cols"`
	Rows            int     `json:"rows"`
	MarginTop       float64 `json:"marginTop"`
	MarginLeft      float64 `json:"marginLeft"`
	GapX            float64 `json:"gapX"`
	GapY            float64 `json:"gapY"`
}

// WithDefaults fills unset grid values with a 3x7 A4 sticker sheet.
func (c LabelConfig) WithDefaults() LabelConfig {
	if c.Cols <= 0 {
		c.Cols = 3
	}
	if c.Rows <= 0 {
		c.Rows = 7
	}
	if c.Copies <= 0 {
		c.Copies = c.Cols * c.Rows
	}
	return c
}

// GenerateLabelsPDF creates a PDF with verification QR stickers
func GenerateLabelsPDF(cfg LabelConfig) ([]byte, error) {
	if cfg.Payload == "" {
		return nil, fmt.Errorf("label payload is required")
	}
	cfg = cfg.WithDefaults()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(documentDate(cfg.Vencimiento))
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	// Symmetric margins
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	// The QR is identical on every sticker, so it is registered once.
	qrPng, err := qrcode.Encode(cfg.Payload, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", imgOptions, bytes.NewReader(qrPng))

	labelsPerPage := cfg.Cols * cfg.Rows

	for i := 0; i < cfg.Copies; i++ {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		// Top-left of label
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		// QR centered, 70% of the label height
		qrSize := labelH * 0.7
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}

		qrX := x + (labelW-qrSize)/2
		qrY := y + (labelH-qrSize)/2 - 2 // room for the number below

		pdf.ImageOptions("qr", qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 5, tr(cfg.NumeroDocumento), "", 0, "C", false, 0, "")

		if cfg.Vencimiento != "" {
			pdf.SetXY(x, y+1)
			pdf.SetFontSize(6)
			pdf.CellFormat(labelW, 3, tr("Vence: "+cfg.Vencimiento), "", 0, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
