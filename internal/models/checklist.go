package models

import (
	"time"

	"github.com/terra-energy/inspecciones/internal/checklist"
)

// Checklist is one published version of an inspection checklist. Published
// versions are never edited; a change is a new version of the same Codigo.
type Checklist struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Codigo      string    `gorm:"column:codigo;not null;uniqueIndex:idx_checklist_version" json:"codigo"`
	Version     string    `gorm:"column:version;not null;uniqueIndex:idx_checklist_version" json:"version"`
	Nombre      string    `gorm:"column:nombre;not null" json:"nombre"`
	Descripcion string    `gorm:"column:descripcion" json:"descripcion,omitempty"`
	Orden       int       `gorm:"column:orden;default:0" json:"orden"`
	PublicadoEn time.Time `gorm:"column:publicado_en" json:"publicadoEn"`

	Secciones []Seccion `gorm:"foreignKey:ChecklistID;constraint:OnDelete:CASCADE" json:"secciones"`
}

func (Checklist) TableName() string {
	return "checklists"
}

type Seccion struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChecklistID string `gorm:"column:checklist_id;type:uuid;not null;index" json:"-"`
	Nombre      string `gorm:"column:nombre;not null" json:"nombre"`
	Orden       int    `gorm:"column:orden;default:0" json:"orden"`

	Subcategorias []Subcategoria `gorm:"foreignKey:SeccionID;constraint:OnDelete:CASCADE" json:"subcategorias"`
	Requisitos    []Requisito    `gorm:"foreignKey:SeccionID" json:"requisitos"`
}

func (Seccion) TableName() string {
	return "secciones"
}

type Subcategoria struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SeccionID      string  `gorm:"column:seccion_id;type:uuid;not null;index" json:"-"`
	Nombre         string  `gorm:"column:nombre;not null" json:"nombre"`
	NormaAplicable *string `gorm:"column:norma_aplicable" json:"norma_aplicable"`
	Orden          int     `gorm:"column:orden;default:0" json:"orden"`

	Seccion    *Seccion    `gorm:"foreignKey:SeccionID" json:"-"`
	Requisitos []Requisito `gorm:"foreignKey:SubcategoriaID;constraint:OnDelete:CASCADE" json:"requisitos"`
}

func (Subcategoria) TableName() string {
	return "subcategorias"
}

// Requisito hangs off either a section or a subcategory, never both.
type Requisito struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SeccionID      *string `gorm:"column:seccion_id;type:uuid;index" json:"-"`
	SubcategoriaID *string `gorm:"column:subcategoria_id;type:uuid;index" json:"-"`
	Descripcion    string  `gorm:"column:descripcion;not null" json:"descripcion"`
	NormaAplicable *string `gorm:"column:norma_aplicable" json:"norma_aplicable"`
	Orden          int     `gorm:"column:orden;default:0" json:"orden"`

	Seccion        *Seccion        `gorm:"foreignKey:SeccionID" json:"-"`
	Subcategoria   *Subcategoria   `gorm:"foreignKey:SubcategoriaID" json:"-"`
	TiposRespuesta []TipoRespuesta `gorm:"many2many:requisito_tipos_respuesta;joinForeignKey:RequisitoID;joinReferences:TipoRespuestaID" json:"tipos_respuesta"`
}

func (Requisito) TableName() string {
	return "requisitos"
}

// TipoRespuesta is a response type. Codigo is unique across checklists so
// types can be shared between requirements.
type TipoRespuesta struct {
	ID       string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Codigo   string         `gorm:"column:codigo;not null;uniqueIndex" json:"codigo"`
	Nombre   string         `gorm:"column:nombre;not null" json:"nombre"`
	TipoDato checklist.Kind `gorm:"column:tipo_dato;type:varchar(20);not null" json:"tipo_dato"`
	Orden    int            `gorm:"column:orden;default:0" json:"orden"`
}

func (TipoRespuesta) TableName() string {
	return "tipos_respuesta"
}

// Pairs lists every (requisito, tipo de respuesta) combination the checklist
// accepts, keyed by PairKey.
func (c *Checklist) Pairs() map[string]checklist.Kind {
	pairs := make(map[string]checklist.Kind)
	add := func(reqs []Requisito) {
		for _, r := range reqs {
			for _, t := range r.TiposRespuesta {
				pairs[PairKey(r.ID, t.ID)] = t.TipoDato
			}
		}
	}
	for _, s := range c.Secciones {
		add(s.Requisitos)
		for _, sub := range s.Subcategorias {
			add(sub.Requisitos)
		}
	}
	return pairs
}

func PairKey(requisitoID, tipoRespuestaID string) string {
	return requisitoID + "/" + tipoRespuestaID
}
