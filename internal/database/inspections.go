package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/terra-energy/inspecciones/internal/models"
)

// GetInspection loads an inspection with its request, client, equipment and
// job type.
func (db *DB) GetInspection(ctx context.Context, id string) (*models.Inspeccion, error) {
	var insp models.Inspeccion
	err := db.WithContext(ctx).
		Preload("Solicitud.Cliente").
		Preload("Solicitud.Equipo").
		Preload("Solicitud.TipoInspeccion").
		Where("id = ?", id).
		First(&insp).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &insp, nil
}

func (db *DB) GetRequest(ctx context.Context, id string) (*models.Solicitud, error) {
	var req models.Solicitud
	if err := db.WithContext(ctx).Preload("TipoInspeccion").Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (db *DB) CreateInspection(ctx context.Context, insp *models.Inspeccion) error {
	return db.WithContext(ctx).Create(insp).Error
}

// SaveInspection writes the mutable lifecycle columns.
func (db *DB) SaveInspection(ctx context.Context, insp *models.Inspeccion) error {
	res := db.WithContext(ctx).Model(&models.Inspeccion{}).Where("id = ?", insp.ID).Updates(map[string]interface{}{
		"estado":           insp.Estado,
		"fecha_programada": insp.FechaProgramada,
		"fecha_completada": insp.FechaCompletada,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAnswers returns the saved answers of an inspection in save order with
// requirement, section, subcategory and response type preloaded.
func (db *DB) ListAnswers(ctx context.Context, inspectionID string) ([]models.Respuesta, error) {
	var answers []models.Respuesta
	err := db.WithContext(ctx).
		Preload("Requisito.Seccion").
		Preload("Requisito.Subcategoria.Seccion").
		Preload("TipoRespuesta").
		Where("inspeccion_id = ?", inspectionID).
		Order("posicion, id").
		Find(&answers).Error
	return answers, err
}

// ReplaceAnswers swaps the whole answer set of an inspection in one
// transaction.
func (db *DB) ReplaceAnswers(ctx context.Context, inspectionID string, answers []models.Respuesta) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inspeccion_id = ?", inspectionID).Delete(&models.Respuesta{}).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		return tx.CreateInBatches(answers, 200).Error
	})
}
