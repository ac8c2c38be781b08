package printer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/verification"
)

// A4 portrait in points.
const (
	pageW    = 595.28
	pageH    = 841.89
	margin   = 28.0
	contentW = pageW - 2*margin

	headerTop = 20.0
	headerH   = 64.0
	bodyTop   = headerTop + headerH + 16

	sigH         = 62.0
	sigTop       = pageH - margin - sigH
	coverInfoH   = 22.0
	coverInfoTop = sigTop - 30 - coverInfoH
	bodyBottom   = sigTop - 12

	lineH  = 11.0
	bandH  = 18.0
	photoH = 180.0
	qrSide = 150.0
)

const (
	certificationLabel = "CERTIFICACIÓN ANUAL"
	disclaimer         = "El presente informe se refiere exclusivamente al equipo identificado y a las condiciones " +
		"observadas en la fecha de inspección. Su reproducción parcial está prohibida sin autorización escrita " +
		"de Terra Energy. La autenticidad de este documento puede verificarse escaneando el código QR de la portada."
)

type rgb struct{ r, g, b int }

var (
	colorBand     = rgb{31, 56, 100}
	colorApproved = rgb{22, 128, 61}
	colorRejected = rgb{200, 30, 30}
	colorObserved = rgb{204, 136, 0}
	colorNeutral  = rgb{90, 90, 90}
)

func resultColor(r checklist.Result) rgb {
	switch r {
	case checklist.Approved:
		return colorApproved
	case checklist.Rejected:
		return colorRejected
	case checklist.WithObservations:
		return colorObserved
	}
	return colorNeutral
}

type informeWriter struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	data InformeData

	logo   string
	qr     string
	photos []string
}

// GenerateInformePDF renders the inspection certificate: a cover page with the
// identification grid and verification QR, followed by the checklist detail.
// Missing optional data degrades to empty cells; identical input yields
// identical bytes.
func GenerateInformePDF(data InformeData, assets Assets) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate(data.FechaDocumento))
	pdf.SetCreator("Terra Energy Inspecciones", true)
	pdf.SetTitle(fmt.Sprintf("Informe %s", data.NumeroDocumento), true)
	pdf.SetMargins(margin, bodyTop, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")

	w := &informeWriter{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		data: data,
	}
	w.registerAssets(assets)

	pdf.SetHeaderFuncMode(w.header, true)
	pdf.SetFooterFunc(w.footer)

	w.cover()
	w.detail()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render informe %s: %w", data.NumeroDocumento, err)
	}
	return buf.Bytes(), nil
}

// documentDate pins the PDF creation date to the document date so that
// re-rendering does not embed the current time.
func documentDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}

func (w *informeWriter) registerAssets(assets Assets) {
	if w.logo = w.register("logo-empresa", assets.CompanyLogo); w.logo == "" {
		w.logo = w.register("logo-cliente", assets.ClientLogo)
	}

	if png, err := verification.DecodeDataURL(w.data.QRDataURL); err == nil {
		w.qr = w.register("qr", png)
	}

	for i, photo := range assets.Photos {
		if name := w.register(fmt.Sprintf("foto-%d", i), photo); name != "" {
			w.photos = append(w.photos, name)
		}
	}
}

func (w *informeWriter) register(name string, data []byte) string {
	png, ok := normalizeImage(data)
	if !ok {
		return ""
	}
	w.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	if w.pdf.Err() {
		w.pdf.ClearError()
		return ""
	}
	return name
}

// fitImage draws a registered image centered in the box, keeping its aspect ratio.
func (w *informeWriter) fitImage(name string, x, y, bw, bh float64) {
	info := w.pdf.GetImageInfo(name)
	if info == nil || info.Width() == 0 || info.Height() == 0 {
		return
	}
	scale := bw / info.Width()
	if s := bh / info.Height(); s < scale {
		scale = s
	}
	dw, dh := info.Width()*scale, info.Height()*scale
	w.pdf.ImageOptions(name, x+(bw-dw)/2, y+(bh-dh)/2, dw, dh, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

func (w *informeWriter) title() string {
	if t := strings.TrimSpace(w.data.TipoInspeccion); t != "" {
		return strings.ToUpper(t)
	}
	return DefaultTitle
}

// header draws the three-column letterhead repeated on every page.
func (w *informeWriter) header() {
	pdf := w.pdf
	const leftW, rightW = 120.0, 140.0
	centerW := contentW - leftW - rightW
	x, y := margin, headerTop

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.8)
	pdf.SetTextColor(0, 0, 0)
	pdf.Rect(x, y, leftW, headerH, "D")
	pdf.Rect(x+leftW, y, centerW, headerH, "D")
	pdf.Rect(x+leftW+centerW, y, rightW, headerH, "D")

	if w.logo != "" {
		w.fitImage(w.logo, x+6, y+6, leftW-12, headerH-12)
	}

	pdf.SetFont("Arial", "B", 12)
	lines := pdf.SplitLines([]byte(w.tr(w.title())), centerW-12)
	const titleLH = 14.0
	ty := y + (headerH-float64(len(lines))*titleLH)/2
	for i, ln := range lines {
		pdf.SetXY(x+leftW+6, ty+float64(i)*titleLH)
		pdf.CellFormat(centerW-12, titleLH, string(ln), "", 0, "C", false, 0, "")
	}

	rows := []string{
		w.tr("Código: " + w.data.CodigoDocumento),
		w.tr("Revisión: " + w.data.Revision),
		w.tr("Página: ") + fmt.Sprintf("%d/{nb}", pdf.PageNo()),
	}
	rowH := headerH / float64(len(rows))
	pdf.SetFont("Arial", "", 9)
	for i, r := range rows {
		border := "B"
		if i == len(rows)-1 {
			border = ""
		}
		pdf.SetXY(x+leftW+centerW, y+float64(i)*rowH)
		pdf.CellFormat(rightW, rowH, r, border, 0, "L", false, 0, "")
	}
}

// footer draws the signature block on every page and, on the cover, the
// document info strip 30pt above it.
func (w *informeWriter) footer() {
	if w.pdf.PageNo() == 1 {
		w.coverInfo()
	}
	w.signatures()
}

func (w *informeWriter) coverInfo() {
	pdf := w.pdf
	cells := []string{
		"Revisión: " + w.data.Revision,
		"Fecha: " + w.data.FechaDocumento,
		"Vencimiento: " + w.data.FechaVencimiento,
		"Operador: " + w.data.OperadorNombre,
		"Supervisor: " + w.data.SupervisorNombre,
	}
	cw := contentW / float64(len(cells))
	pdf.SetFont("Arial", "", 7.5)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	for i, c := range cells {
		pdf.SetXY(margin+float64(i)*cw, coverInfoTop)
		pdf.CellFormat(cw, coverInfoH, w.tr(c), "1", 0, "C", false, 0, "")
	}
}

func (w *informeWriter) signatures() {
	pdf := w.pdf
	cols := []struct{ label, name string }{
		{"OPERADOR", w.data.OperadorNombre},
		{"SUPERVISOR", w.data.SupervisorNombre},
		{"ACEPTADO CLIENTE", ""},
	}
	cw := contentW / float64(len(cols))

	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetTextColor(0, 0, 0)
	pdf.Rect(margin, sigTop, contentW, sigH, "D")
	for i, c := range cols {
		x := margin + float64(i)*cw
		if i > 0 {
			pdf.Line(x, sigTop, x, sigTop+sigH)
		}
		pdf.SetFont("Arial", "", 8)
		pdf.SetXY(x, sigTop+18)
		pdf.CellFormat(cw, 12, w.tr(c.name), "", 0, "C", false, 0, "")
		pdf.Line(x+15, sigTop+36, x+cw-15, sigTop+36)
		pdf.SetFont("Arial", "B", 8)
		pdf.SetXY(x, sigTop+40)
		pdf.CellFormat(cw, 12, w.tr(c.label), "", 0, "C", false, 0, "")
	}
}

// cover draws page 1: identification grid and the verification QR.
func (w *informeWriter) cover() {
	pdf := w.pdf
	pdf.AddPage()

	const cellH = 32.0
	cw := contentW / 3
	y := pdf.GetY()
	grid := [][]struct {
		label, value string
		span         int
	}{
		{{"Cliente", w.data.ClienteNombre, 1}, {"", certificationLabel, 1}, {"Fecha de inspección", w.data.FechaInspeccion, 1}},
		{{"Contacto", w.data.Contacto, 1}, {"Lugar", w.data.Lugar, 1}, {"Fecha de vencimiento", w.data.FechaVencimiento, 1}},
		{{"Equipo", w.data.Equipo, 2}, {"N° de documento", w.data.NumeroDocumento, 1}},
	}

	pdf.SetLineWidth(0.5)
	for r, row := range grid {
		x := margin
		for _, c := range row {
			width := cw * float64(c.span)
			w.gridCell(x, y+float64(r)*cellH, width, cellH, c.label, c.value)
			x += width
		}
	}

	qrY := y + float64(len(grid))*cellH + 40
	if w.qr != "" {
		w.fitImage(w.qr, (pageW-qrSide)/2, qrY, qrSide, qrSide)
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(60, 60, 60)
		pdf.SetXY(margin, qrY+qrSide+6)
		pdf.CellFormat(contentW, 12, w.tr("Escanee el código para verificar la autenticidad del documento"), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func (w *informeWriter) gridCell(x, y, cw, ch float64, label, value string) {
	pdf := w.pdf
	pdf.Rect(x, y, cw, ch, "D")
	if label == "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetXY(x, y)
		pdf.CellFormat(cw, ch, w.tr(value), "", 0, "C", false, 0, "")
		return
	}
	pdf.SetFont("Arial", "B", 7)
	pdf.SetXY(x+3, y+3)
	pdf.CellFormat(cw-6, 9, w.tr(strings.ToUpper(label)), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetXY(x+3, y+15)
	text := w.tr(value)
	if lines := pdf.SplitLines([]byte(text), cw-6); len(lines) > 0 {
		text = string(lines[0])
	}
	pdf.CellFormat(cw-6, 12, text, "", 0, "L", false, 0, "")
}

// ensure starts a new page when h does not fit above the signature block.
func (w *informeWriter) ensure(h float64) {
	if w.pdf.GetY()+h > bodyBottom {
		w.pdf.AddPage()
	}
}

func (w *informeWriter) band(title, right string, c rgb) {
	pdf := w.pdf
	pdf.SetFillColor(c.r, c.g, c.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 10)
	y := pdf.GetY()
	pdf.SetXY(margin, y)
	pdf.CellFormat(contentW, bandH, w.tr(title), "1", 0, "L", true, 0, "")
	if right != "" {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetXY(margin, y)
		pdf.CellFormat(contentW, bandH, w.tr(right), "", 0, "R", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(margin, y+bandH)
}

// detail draws the result, the checklist tree, observations, photos and the
// legal note, starting on page 2.
func (w *informeWriter) detail() {
	pdf := w.pdf
	pdf.AddPage()

	rc := resultColor(w.data.Resultado)
	pdf.SetFillColor(rc.r, rc.g, rc.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 13)
	pdf.SetX(margin)
	pdf.CellFormat(contentW, 26, w.tr("RESULTADO: "+w.data.Resultado.Label()), "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(10)

	for _, s := range w.data.Secciones {
		w.ensure(bandH + lineH + 6)
		partial := ""
		if s.ResultadoParcial != "" {
			partial = s.ResultadoParcial.Label()
		}
		w.band(strings.ToUpper(s.Nombre), partial, colorBand)
		for _, req := range s.Requisitos {
			w.requirementRow(req)
		}
		pdf.Ln(8)
	}

	if obs := strings.TrimSpace(w.data.Observaciones); obs != "" {
		w.ensure(bandH + lineH + 6)
		w.band("OBSERVACIONES", "", colorBand)
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 9)
		w.paragraphs(obs, contentW-6)
		pdf.Ln(8)
	}

	if len(w.photos) > 0 {
		w.ensure(bandH + photoH + 8)
		w.band("REGISTRO FOTOGRÁFICO", "", colorBand)
		pdf.Ln(4)
		const gap = 10.0
		pw := (contentW - gap) / 2
		for i := 0; i < len(w.photos); i += 2 {
			w.ensure(photoH + gap)
			y := pdf.GetY()
			for j := 0; j < 2 && i+j < len(w.photos); j++ {
				x := margin + float64(j)*(pw+gap)
				pdf.SetLineWidth(0.5)
				pdf.Rect(x, y, pw, photoH, "D")
				w.fitImage(w.photos[i+j], x+4, y+4, pw-8, photoH-8)
			}
			pdf.SetXY(margin, y+photoH+gap)
		}
	}

	pdf.SetFont("Arial", "I", 7)
	pdf.SetTextColor(80, 80, 80)
	w.paragraphs(disclaimer, contentW-6)
	pdf.SetTextColor(0, 0, 0)
}

func (w *informeWriter) paragraphs(text string, width float64) {
	pdf := w.pdf
	for _, para := range strings.Split(text, "\n") {
		lines := pdf.SplitLines([]byte(w.tr(para)), width)
		if len(lines) == 0 {
			lines = [][]byte{nil}
		}
		for _, ln := range lines {
			w.ensure(lineH)
			pdf.SetX(margin + 3)
			pdf.CellFormat(width, lineH, string(ln), "", 1, "L", false, 0, "")
		}
	}
}

// requirementRow prints the description cell followed by one cell per answer.
func (w *informeWriter) requirementRow(req Requisito) {
	pdf := w.pdf
	descW := contentW * 0.55
	n := len(req.Respuestas)
	if n == 0 {
		n = 1
	}
	cellW := (contentW - descW) / float64(n)

	pdf.SetFont("Arial", "", 9)
	descLines := pdf.SplitLines([]byte(w.tr(req.Descripcion)), descW-6)
	maxLines := len(descLines)
	texts := make([][][]byte, len(req.Respuestas))
	for i, resp := range req.Respuestas {
		if _, ok := resp.Valor.(checklist.Bool); ok {
			continue
		}
		texts[i] = pdf.SplitLines([]byte(w.tr(valueText(resp.Valor))), cellW-6)
		if len(texts[i]) > maxLines {
			maxLines = len(texts[i])
		}
	}
	if maxLines < 1 {
		maxLines = 1
	}
	h := float64(maxLines)*lineH + 6

	w.ensure(h)
	y := pdf.GetY()
	pdf.SetLineWidth(0.5)
	pdf.Rect(margin, y, descW, h, "D")
	w.cellLines(descLines, margin+3, y+3, descW-6, "L")

	if len(req.Respuestas) == 0 {
		pdf.Rect(margin+descW, y, cellW, h, "D")
		w.cellLines([][]byte{[]byte("-")}, margin+descW+3, y+(h-lineH)/2, cellW-6, "C")
	}
	for i, resp := range req.Respuestas {
		x := margin + descW + float64(i)*cellW
		pdf.Rect(x, y, cellW, h, "D")
		if b, ok := resp.Valor.(checklist.Bool); ok {
			mark, c := "NO", colorRejected
			if b {
				mark, c = "OK", colorApproved
			}
			pdf.SetFont("Arial", "B", 10)
			pdf.SetTextColor(c.r, c.g, c.b)
			pdf.SetXY(x, y+(h-lineH)/2)
			pdf.CellFormat(cellW, lineH, mark, "", 0, "C", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Arial", "", 9)
			continue
		}
		top := y + (h-float64(len(texts[i]))*lineH)/2
		w.cellLines(texts[i], x+3, top, cellW-6, "C")
	}
	pdf.SetXY(margin, y+h)
}

func (w *informeWriter) cellLines(lines [][]byte, x, y, width float64, align string) {
	for i, ln := range lines {
		w.pdf.SetXY(x, y+float64(i)*lineH)
		w.pdf.CellFormat(width, lineH, string(ln), "", 0, align, false, 0, "")
	}
}
