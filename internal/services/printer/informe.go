package printer

import (
	"github.com/terra-energy/inspecciones/internal/checklist"
)

// DefaultTitle is printed when the inspection type has no name.
const DefaultTitle = "INFORME DE ENSAYOS NO DESTRUCTIVOS"

// InformeData is everything the certificate needs. It is the stable contract
// between aggregation and rendering.
type InformeData struct {
	NumeroDocumento  string           `json:"numeroDocumento"`
	Revision         string           `json:"revision"`
	FechaDocumento   string           `json:"fechaDocumento"`
	FechaVencimiento string           `json:"fechaVencimiento,omitempty"`
	CodigoDocumento  string           `json:"codigoDocumento"`
	ClienteNombre    string           `json:"clienteNombre"`
	ClienteLogo      string           `json:"clienteLogo,omitempty"`
	TerraLogoURL     string           `json:"terraLogoUrl,omitempty"`
	Contacto         string           `json:"contacto,omitempty"`
	Lugar            string           `json:"lugar"`
	NumeroInspeccion string           `json:"numeroInspeccion"`
	Equipo           string           `json:"equipo"`
	FechaInspeccion  string           `json:"fechaInspeccion"`
	TipoInspeccion   string           `json:"tipoInspeccion"`
	QRDataURL        string           `json:"qrDataUrl"`
	Resultado        checklist.Result `json:"resultado"`
	Observaciones    string           `json:"observaciones,omitempty"`
	Secciones        []Seccion        `json:"secciones"`
	Imagenes         []string         `json:"imagenes,omitempty"`
	OperadorNombre   string           `json:"operadorNombre,omitempty"`
	SupervisorNombre string           `json:"supervisorNombre,omitempty"`
}

type Seccion struct {
	Nombre           string           `json:"nombre"`
	ResultadoParcial checklist.Result `json:"resultadoParcial,omitempty"`
	Requisitos       []Requisito      `json:"requisitos"`
}

type Requisito struct {
	Descripcion string      `json:"descripcion"`
	Respuestas  []Respuesta `json:"respuestas"`
}

type Respuesta struct {
	Tipo  string          `json:"tipo"`
	Valor checklist.Value `json:"valor"`
}

// Assets holds the image bytes referenced by InformeData, fetched by the
// caller. Photos follow the order of InformeData.Imagenes; a nil entry is a
// photo that could not be fetched.
type Assets struct {
	CompanyLogo []byte
	ClientLogo  []byte
	Photos      [][]byte
}

// FromSections converts aggregated checklist groups into the printed sections,
// including each section's partial result.
func FromSections(groups []checklist.SectionGroup) []Seccion {
	out := make([]Seccion, 0, len(groups))
	for _, g := range groups {
		s := Seccion{
			Nombre:           g.Name,
			ResultadoParcial: g.Result(),
			Requisitos:       make([]Requisito, 0, len(g.Requirements)),
		}
		for _, req := range g.Requirements {
			r := Requisito{Descripcion: req.Description, Respuestas: make([]Respuesta, 0, len(req.Responses))}
			for _, resp := range req.Responses {
				r.Respuestas = append(r.Respuestas, Respuesta{Tipo: resp.Label, Valor: resp.Value})
			}
			s.Requisitos = append(s.Requisitos, r)
		}
		out = append(out, s)
	}
	return out
}

// valueText is the printed form of a non-boolean answer.
func valueText(v checklist.Value) string {
	if v == nil {
		return "-"
	}
	if s := v.String(); s != "" {
		return s
	}
	return "-"
}
