package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/terra-energy/inspecciones/internal/models"
)

// SeedDemo creates a client with one piece of equipment, a job type and an
// approved request for it, ready to be scheduled.
func (db *DB) SeedDemo(ctx context.Context) (*models.Solicitud, error) {
	var sol models.Solicitud
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cliente := models.Cliente{Nombre: "Minera Los Andes S.A.", Contacto: "Jefe de mantención"}
		if err := tx.Create(&cliente).Error; err != nil {
			return fmt.Errorf("cliente: %w", err)
		}
		equipo := models.Equipo{ClienteID: cliente.ID, Nombre: "Grúa horquilla Toyota 8FG25", NumeroSerie: "GH-2291"}
		if err := tx.Create(&equipo).Error; err != nil {
			return fmt.Errorf("equipo: %w", err)
		}
		tipo := models.TipoInspeccion{Nombre: "INSPECCIÓN DE GRÚA HORQUILLA"}
		if err := tx.Create(&tipo).Error; err != nil {
			return fmt.Errorf("tipo de inspección: %w", err)
		}
		sol = models.Solicitud{
			ClienteID:        cliente.ID,
			EquipoID:         equipo.ID,
			TipoInspeccionID: tipo.ID,
			Lugar:            "Faena Los Bronces, Región Metropolitana",
			Contacto:         cliente.Contacto,
			Estado:           models.SolicitudAprobada,
		}
		if err := tx.Create(&sol).Error; err != nil {
			return fmt.Errorf("solicitud: %w", err)
		}
		sol.Cliente, sol.Equipo, sol.TipoInspeccion = &cliente, &equipo, &tipo
		return nil
	})
	if err != nil {
		return nil, err
	}
	db.log.Info("demo data seeded", zap.String("solicitud", sol.ID), zap.String("tipoInspeccion", sol.TipoInspeccionID))
	return &sol, nil
}
