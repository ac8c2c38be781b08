package models

import (
	"time"

	"gorm.io/gorm"
)

// EstadoSolicitud is the approval state of an inspection request.
type EstadoSolicitud string

const (
	SolicitudPendiente EstadoSolicitud = "pendiente"
	SolicitudAprobada  EstadoSolicitud = "aprobada"
	SolicitudRechazada EstadoSolicitud = "rechazada"
)

// Solicitud is a client's request for an inspection.
type Solicitud struct {
	ID               string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ClienteID        string          `gorm:"column:cliente_id;type:uuid;not null;index" json:"clienteId"`
	EquipoID         string          `gorm:"column:equipo_id;type:uuid;not null;index" json:"equipoId"`
	TipoInspeccionID string          `gorm:"column:tipo_inspeccion_id;type:uuid;not null;index" json:"tipoInspeccionId"`
	Lugar            string          `gorm:"column:lugar" json:"lugar"`
	Contacto         string          `gorm:"column:contacto" json:"contacto,omitempty"`
	Estado           EstadoSolicitud `gorm:"column:estado;type:varchar(20);default:'pendiente'" json:"estado"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Cliente        *Cliente        `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
	Equipo         *Equipo         `gorm:"foreignKey:EquipoID" json:"equipo,omitempty"`
	TipoInspeccion *TipoInspeccion `gorm:"foreignKey:TipoInspeccionID" json:"tipoInspeccion,omitempty"`
}

func (Solicitud) TableName() string {
	return "solicitudes"
}

// EstadoInspeccion is the lifecycle state of an inspection.
type EstadoInspeccion string

const (
	InspeccionProgramada EstadoInspeccion = "programada"
	InspeccionEnProgreso EstadoInspeccion = "en_progreso"
	InspeccionCompletada EstadoInspeccion = "completada"
	InspeccionCancelada  EstadoInspeccion = "cancelada"
)

var transiciones = map[EstadoInspeccion][]EstadoInspeccion{
	InspeccionProgramada: {InspeccionEnProgreso, InspeccionCancelada},
	InspeccionEnProgreso: {InspeccionCompletada, InspeccionCancelada},
}

// CanTransition reports whether an inspection may move from s to next.
func (s EstadoInspeccion) CanTransition(next EstadoInspeccion) bool {
	for _, allowed := range transiciones[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s EstadoInspeccion) Terminal() bool {
	return len(transiciones[s]) == 0
}

// Inspeccion is a scheduled visit that produces checklist answers and,
// once completed, a certificate.
type Inspeccion struct {
	ID               string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SolicitudID      string           `gorm:"column:solicitud_id;type:uuid;not null;index" json:"solicitudId"`
	NumeroInspeccion string           `gorm:"column:numero_inspeccion;uniqueIndex" json:"numeroInspeccion"`
	Estado           EstadoInspeccion `gorm:"column:estado;type:varchar(20);default:'programada';index" json:"estado"`
	FechaProgramada  time.Time        `gorm:"column:fecha_programada;type:date" json:"fechaProgramada"`
	FechaCompletada  *time.Time       `gorm:"column:fecha_completada" json:"fechaCompletada,omitempty"`
	OperadorNombre   string           `gorm:"column:operador_nombre" json:"operadorNombre,omitempty"`
	SupervisorNombre string           `gorm:"column:supervisor_nombre" json:"supervisorNombre,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Solicitud *Solicitud `gorm:"foreignKey:SolicitudID" json:"solicitud,omitempty"`
}

func (Inspeccion) TableName() string {
	return "inspecciones"
}
