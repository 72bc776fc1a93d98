// Package repository contains the repository layer for the Expedientes API
package repository

import (
	"github.com/stratandtax/expedientesapi/internal/models"
	"gorm.io/gorm"
)

// MontoRepository persists submitted operation amounts
type MontoRepository struct {
	DB *gorm.DB
}

// NewMontoRepository creates a new repository for the montos table
func NewMontoRepository(db *gorm.DB) *MontoRepository {
	return &MontoRepository{DB: db}
}

// InsertMonto appends one amount row. Rows are immutable once created.
func (r *MontoRepository) InsertMonto(monto float64) error {
	record := models.MontoModel{Monto: monto}
	return r.DB.Create(&record).Error
}

// SumMontos returns the accumulated total of all recorded amounts
func (r *MontoRepository) SumMontos() (float64, error) {
	var total float64
	err := r.DB.Model(&models.MontoModel{}).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
