package models

import (
	"time"

	"github.com/terra-energy/inspecciones/internal/checklist"
)

// Respuesta is a single saved answer. At most one of the Valor* columns is set.
type Respuesta struct {
	ID              string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	InspeccionID    string     `gorm:"column:inspeccion_id;type:uuid;not null;uniqueIndex:idx_respuesta_par,priority:1" json:"inspeccionId"`
	RequisitoID     string     `gorm:"column:requisito_id;type:uuid;not null;uniqueIndex:idx_respuesta_par,priority:2" json:"requisitoId"`
	TipoRespuestaID string     `gorm:"column:tipo_respuesta_id;type:uuid;not null;uniqueIndex:idx_respuesta_par,priority:3" json:"tipoRespuestaId"`
	Posicion        int        `gorm:"column:posicion;not null;default:0" json:"-"`
	ValorTexto      *string    `gorm:"column:valor_texto" json:"valorTexto,omitempty"`
	ValorNumero     *float64   `gorm:"column:valor_numero" json:"valorNumero,omitempty"`
	ValorBooleano   *bool      `gorm:"column:valor_booleano" json:"valorBooleano,omitempty"`
	ValorFecha      *time.Time `gorm:"column:valor_fecha;type:date" json:"valorFecha,omitempty"`
	ValorTiempo     *string    `gorm:"column:valor_tiempo" json:"valorTiempo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Requisito     *Requisito     `gorm:"foreignKey:RequisitoID" json:"requisito,omitempty"`
	TipoRespuesta *TipoRespuesta `gorm:"foreignKey:TipoRespuestaID" json:"tipoRespuesta,omitempty"`
}

func (Respuesta) TableName() string {
	return "respuestas"
}

// NewRespuesta stores v in the column matching its kind.
func NewRespuesta(inspeccionID, requisitoID, tipoRespuestaID string, posicion int, v checklist.Value) Respuesta {
	s := checklist.SlotsFor(v)
	r := Respuesta{
		InspeccionID:    inspeccionID,
		RequisitoID:     requisitoID,
		TipoRespuestaID: tipoRespuestaID,
		Posicion:        posicion,
		ValorTexto:      s.Text,
		ValorNumero:     s.Number,
		ValorBooleano:   s.Boolean,
		ValorTiempo:     s.Duration,
	}
	if s.Date != nil {
		if t, err := time.Parse(checklist.DateLayout, *s.Date); err == nil {
			r.ValorFecha = &t
		}
	}
	return r
}

func (r Respuesta) Slots() checklist.Slots {
	s := checklist.Slots{
		Text:     r.ValorTexto,
		Number:   r.ValorNumero,
		Boolean:  r.ValorBooleano,
		Duration: r.ValorTiempo,
	}
	if r.ValorFecha != nil {
		d := r.ValorFecha.Format(checklist.DateLayout)
		s.Date = &d
	}
	return s
}

// Row converts the answer and its preloaded relations into the shape the
// aggregator consumes. Missing relations stay nil.
func (r Respuesta) Row() checklist.AnswerRow {
	row := checklist.AnswerRow{Slots: r.Slots()}
	if t := r.TipoRespuesta; t != nil {
		row.ResponseType = &checklist.ResponseTypeRef{
			ID:    t.ID,
			Code:  t.Codigo,
			Label: t.Nombre,
			Kind:  t.TipoDato,
			Order: intPtr(t.Orden),
		}
	}
	if q := r.Requisito; q != nil {
		ref := &checklist.RequirementRef{
			ID:          q.ID,
			Description: q.Descripcion,
			Order:       intPtr(q.Orden),
			Section:     sectionRef(q.Seccion),
		}
		if sub := q.Subcategoria; sub != nil {
			ref.Subcategory = &checklist.SubcategoryRef{
				Name:    sub.Nombre,
				Order:   intPtr(sub.Orden),
				Section: sectionRef(sub.Seccion),
			}
		}
		row.Requirement = ref
	}
	return row
}

// Rows converts answers in order.
func Rows(answers []Respuesta) []checklist.AnswerRow {
	rows := make([]checklist.AnswerRow, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, a.Row())
	}
	return rows
}

func sectionRef(s *Seccion) *checklist.SectionRef {
	if s == nil {
		return nil
	}
	return &checklist.SectionRef{Name: s.Nombre, Order: intPtr(s.Orden)}
}

func intPtr(i int) *int { return &i }
