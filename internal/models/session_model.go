// Package models contains the models for the Expedientes API
package models

import (
	"time"
)

// SessionModel is the active session for one admin user.
// At most one session exists per username; a new login replaces it.
type SessionModel struct {
	Username   string    `json:"username"`
	Token      string    `json:"token"`
	LastAccess time.Time `json:"last_access"`
}
