package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/terra-energy/inspecciones/internal/checklist"
	"github.com/terra-energy/inspecciones/internal/verification"
)

// Documento is the certificate issued for a completed inspection.
// QRPayload stays Pending between insert and token issue.
type Documento struct {
	ID               string                      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	InspeccionID     string                      `gorm:"column:inspeccion_id;type:uuid;not null;uniqueIndex:idx_documento_inspeccion,where:deleted_at IS NULL" json:"inspeccionId"`
	Secuencia        int                         `gorm:"column:secuencia;not null;uniqueIndex" json:"-"`
	NumeroDocumento  string                      `gorm:"column:numero_documento;not null;uniqueIndex" json:"numeroDocumento"`
	CodigoDocumento  string                      `gorm:"column:codigo_documento;not null" json:"codigoDocumento"`
	Revision         string                      `gorm:"column:revision;default:'0'" json:"revision"`
	FechaDocumento   time.Time                   `gorm:"column:fecha_documento;type:date;not null" json:"fechaDocumento"`
	FechaVencimiento *time.Time                  `gorm:"column:fecha_vencimiento;type:date" json:"fechaVencimiento,omitempty"`
	Resultado        checklist.Result            `gorm:"column:resultado;type:varchar(20);not null" json:"resultado"`
	Observaciones    string                      `gorm:"column:observaciones;type:text" json:"observaciones,omitempty"`
	OperadorNombre   string                      `gorm:"column:operador_nombre" json:"operadorNombre,omitempty"`
	SupervisorNombre string                      `gorm:"column:supervisor_nombre" json:"supervisorNombre,omitempty"`
	Imagenes         datatypes.JSONSlice[string] `gorm:"column:imagenes" json:"imagenes"`
	QRPayload        verification.Payload        `gorm:"column:qr_payload" json:"qrPayload"`
	PDFURL           *string                     `gorm:"column:pdf_url" json:"pdfUrl,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Documento) TableName() string {
	return "documentos"
}

// Vigente reports whether the certificate has not expired at t.
func (d *Documento) Vigente(t time.Time) bool {
	if d.FechaVencimiento == nil {
		return true
	}
	return t.Before(d.FechaVencimiento.AddDate(0, 0, 1))
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Cliente{},
		&Equipo{},
		&TipoRespuesta{},
		&Checklist{},
		&Seccion{},
		&Subcategoria{},
		&Requisito{},
		&TipoInspeccion{},
		&Solicitud{},
		&Inspeccion{},
		&Respuesta{},
		&Documento{},
	}
}
