package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/terra-energy/inspecciones/internal/models"
)

func byOrden(db *gorm.DB) *gorm.DB {
	return db.Order("orden, id")
}

// GetChecklist loads a checklist with its full tree ordered by orden.
func (db *DB) GetChecklist(ctx context.Context, id string) (*models.Checklist, error) {
	var c models.Checklist
	err := db.WithContext(ctx).
		Preload("Secciones", byOrden).
		Preload("Secciones.Requisitos", byOrden).
		Preload("Secciones.Requisitos.TiposRespuesta", byOrden).
		Preload("Secciones.Subcategorias", byOrden).
		Preload("Secciones.Subcategorias.Requisitos", byOrden).
		Preload("Secciones.Subcategorias.Requisitos.TiposRespuesta", byOrden).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (db *DB) GetJobType(ctx context.Context, id string) (*models.TipoInspeccion, error) {
	var jt models.TipoInspeccion
	if err := db.WithContext(ctx).Where("id = ?", id).First(&jt).Error; err != nil {
		return nil, notFound(err)
	}
	return &jt, nil
}

// ChecklistVersions lists the published versions of a checklist code.
func (db *DB) ChecklistVersions(ctx context.Context, codigo string) ([]string, error) {
	var versions []string
	err := db.WithContext(ctx).Model(&models.Checklist{}).
		Where("codigo = ?", codigo).
		Pluck("version", &versions).Error
	return versions, err
}

// ResponseTypesByCode returns the existing response types among codes.
func (db *DB) ResponseTypesByCode(ctx context.Context, codes []string) ([]models.TipoRespuesta, error) {
	var types []models.TipoRespuesta
	if len(codes) == 0 {
		return types, nil
	}
	err := db.WithContext(ctx).Where("codigo IN ?", codes).Find(&types).Error
	return types, err
}

// CreateChecklist inserts the whole tree. Response types that already exist
// must carry their ID so they are linked rather than duplicated.
func (db *DB) CreateChecklist(ctx context.Context, c *models.Checklist) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
}

// SetJobTypeChecklist points a job type at a published checklist version.
func (db *DB) SetJobTypeChecklist(ctx context.Context, jobTypeID, checklistID string) error {
	res := db.WithContext(ctx).Model(&models.TipoInspeccion{}).Where("id = ?", jobTypeID).Update("checklist_id", checklistID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
