// Package models contains the models for the Expedientes API
package models

import (
	"time"
)

const MontosTableName = "montos"

// MontoModel is one recorded operation amount (sin IVA)
type MontoModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Monto     float64   `gorm:"type:decimal(15,2);not null" json:"monto"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"fecha"`
}

func (MontoModel) TableName() string {
	return MontosTableName
}
