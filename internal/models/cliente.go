package models

import (
	"time"

	"gorm.io/gorm"
)

// Cliente is a customer whose equipment gets inspected.
type Cliente struct {
	ID       string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Nombre   string  `gorm:"column:nombre;not null" json:"nombre"`
	Contacto string  `gorm:"column:contacto" json:"contacto,omitempty"`
	LogoURL  *string `gorm:"column:logo_url" json:"logoUrl,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Cliente) TableName() string {
	return "clientes"
}

// Equipo is a piece of client equipment (crane, lifting gear, vessel).
type Equipo struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ClienteID   string `gorm:"column:cliente_id;type:uuid;not null;index" json:"clienteId"`
	Nombre      string `gorm:"column:nombre;not null" json:"nombre"`
	NumeroSerie string `gorm:"column:numero_serie" json:"numeroSerie,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Cliente *Cliente `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
}

func (Equipo) TableName() string {
	return "equipos"
}

// Label is the equipment line printed on the certificate.
func (e *Equipo) Label() string {
	if e == nil {
		return ""
	}
	if e.NumeroSerie == "" {
		return e.Nombre
	}
	return e.Nombre + " (S/N " + e.NumeroSerie + ")"
}

// TipoInspeccion is a job type. It points at the checklist inspectors fill in.
type TipoInspeccion struct {
	ID          string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Nombre      string  `gorm:"column:nombre;not null" json:"nombre"`
	ChecklistID *string `gorm:"column:checklist_id;type:uuid;index" json:"checklistId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Checklist *Checklist `gorm:"foreignKey:ChecklistID" json:"checklist,omitempty"`
}

func (TipoInspeccion) TableName() string {
	return "tipos_inspeccion"
}
