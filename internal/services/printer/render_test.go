package printer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/verification"
)

var pageObject = regexp.MustCompile(`/Type /Page\b`)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func sampleData(t *testing.T) InformeData {
	t.Helper()
	tok, err := verification.Issue("2b0f6a3c-1111-4c8e-9d2e-7a5b9c0d1e2f", "https://terra-energy.vercel.app")
	require.NoError(t, err)

	return InformeData{
		NumeroDocumento:  "INF-2024-0007",
		Revision:         "0",
		FechaDocumento:   "2024-03-15",
		FechaVencimiento: "2025-03-15",
		CodigoDocumento:  "TE-REG-017",
		ClienteNombre:    "Minera Los Andes S.A.",
		Contacto:         "Juan Pérez",
		Lugar:            "Planta Antofagasta",
		NumeroInspeccion: "INS-0042",
		Equipo:           "Grúa horquilla Toyota 8FG25",
		FechaInspeccion:  "2024-03-14",
		TipoInspeccion:   "Inspección de equipos de levante",
		QRDataURL:        tok.QRDataURL,
		Resultado:        checklist.Rejected,
		Observaciones:    "Se detecta fisura en horquilla izquierda.\nReemplazar antes de operar.",
		Secciones: []Seccion{
			{Nombre: "Visual", ResultadoParcial: checklist.Rejected, Requisitos: []Requisito{
				{Descripcion: "Estado de horquillas", Respuestas: []Respuesta{{Tipo: "Cumple", Valor: checklist.Bool(false)}}},
				{Descripcion: "Espesor de horquilla (mm)", Respuestas: []Respuesta{{Tipo: "Medida", Valor: checklist.Number(12.5)}}},
			}},
			{Nombre: "Pruebas", Requisitos: []Requisito{
				{Descripcion: "Prueba de carga", Respuestas: []Respuesta{
					{Tipo: "Cumple", Valor: checklist.Bool(true)},
					{Tipo: "Duración", Valor: checklist.Duration("30 minutos")},
					{Tipo: "Fecha", Valor: nil},
				}},
			}},
		},
		OperadorNombre:   "María González",
		SupervisorNombre: "Pedro Soto",
	}
}

func TestGenerateInformePDF_Basic(t *testing.T) {
	out, err := GenerateInformePDF(sampleData(t), Assets{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Len(t, pageObject.FindAll(out, -1), 2, "cover plus one detail page")
}

func TestGenerateInformePDF_Deterministic(t *testing.T) {
	data := sampleData(t)
	assets := Assets{CompanyLogo: testPNG(t, 120, 60), Photos: [][]byte{testPNG(t, 64, 48), testJPEG(t)}}
	data.Imagenes = []string{"https://x/1.png", "https://x/2.jpg"}

	a, err := GenerateInformePDF(data, assets)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	b, err := GenerateInformePDF(data, assets)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a, b), "re-rendering the same data must be byte-identical")
}

func TestGenerateInformePDF_DegradesOnMissingData(t *testing.T) {
	out, err := GenerateInformePDF(InformeData{}, Assets{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	data := sampleData(t)
	data.QRDataURL = "not-a-data-url"
	out, err = GenerateInformePDF(data, Assets{
		CompanyLogo: []byte("<html>not an image</html>"),
		ClientLogo:  nil,
		Photos:      [][]byte{nil, []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateInformePDF_Paginates(t *testing.T) {
	data := sampleData(t)
	reqs := make([]Requisito, 0, 120)
	for i := 0; i < 120; i++ {
		reqs = append(reqs, Requisito{
			Descripcion: fmt.Sprintf("Requisito %d con una descripción larga que ocupa más de una línea en la celda de la tabla", i),
			Respuestas:  []Respuesta{{Tipo: "Cumple", Valor: checklist.Bool(i%7 != 0)}},
		})
	}
	data.Secciones = []Seccion{{Nombre: "Extensa", Requisitos: reqs}}

	out, err := GenerateInformePDF(data, Assets{})
	require.NoError(t, err)
	assert.Greater(t, len(pageObject.FindAll(out, -1)), 3)
}

func TestFromSections(t *testing.T) {
	f := false
	rows := []checklist.AnswerRow{{
		Requirement:  &checklist.RequirementRef{ID: "R1", Description: "Frenos", Section: &checklist.SectionRef{Name: "Seguridad"}},
		ResponseType: &checklist.ResponseTypeRef{Label: "Cumple", Kind: checklist.KindBoolean},
		Slots:        checklist.Slots{Boolean: &f},
	}}

	got := FromSections(checklist.Aggregate(rows))
	require.Len(t, got, 1)
	assert.Equal(t, "Seguridad", got[0].Nombre)
	assert.Equal(t, checklist.Rejected, got[0].ResultadoParcial)
	require.Len(t, got[0].Requisitos, 1)
	assert.Equal(t, []Respuesta{{Tipo: "Cumple", Valor: checklist.Bool(false)}}, got[0].Requisitos[0].Respuestas)
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "-", valueText(nil))
	assert.Equal(t, "-", valueText(checklist.Text("")))
	assert.Equal(t, "12.5", valueText(checklist.Number(12.5)))
	assert.Equal(t, "2024-01-01", valueText(checklist.Date("2024-01-01")))
}

func TestDocumentDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), documentDate("2024-03-15"))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), documentDate("15/03/2024"))
	assert.Equal(t, time.Unix(0, 0).UTC(), documentDate(""))
}
