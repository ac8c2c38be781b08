package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/terra-energy/inspecciones/internal/models"
	"github.com/terra-energy/inspecciones/internal/verification"
)

func (db *DB) GetDocument(ctx context.Context, id string) (*models.Documento, error) {
	var doc models.Documento
	if err := db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

func (db *DB) GetDocumentByInspection(ctx context.Context, inspectionID string) (*models.Documento, error) {
	var doc models.Documento
	if err := db.WithContext(ctx).Where("inspeccion_id = ?", inspectionID).First(&doc).Error; err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// CreateDocument assigns the next sequence number and inserts doc. The table
// lock serialises concurrent creations so sequences never collide.
func (db *DB) CreateDocument(ctx context.Context, doc *models.Documento, number func(seq int) string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`LOCK TABLE documentos IN SHARE ROW EXCLUSIVE MODE`).Error; err != nil {
			return fmt.Errorf("lock documentos: %w", err)
		}
		var last int
		if err := tx.Model(&models.Documento{}).Unscoped().
			Select("COALESCE(MAX(secuencia), 0)").Scan(&last).Error; err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		doc.Secuencia = last + 1
		doc.NumeroDocumento = number(doc.Secuencia)
		return duplicate(tx.Create(doc).Error)
	})
}

func (db *DB) SetDocumentPayload(ctx context.Context, id string, payload verification.Payload) error {
	return db.updateDocument(ctx, id, "qr_payload", payload)
}

func (db *DB) SetDocumentPDFURL(ctx context.Context, id, url string) error {
	return db.updateDocument(ctx, id, "pdf_url", url)
}

func (db *DB) updateDocument(ctx context.Context, id, column string, value interface{}) error {
	res := db.WithContext(ctx).Model(&models.Documento{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
