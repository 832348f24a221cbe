package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records every mutating admin action. Rows are append-only: the
// application never updates or deletes them.
type AuditLog struct {
	gorm.Model
	AdminID      int            `json:"adminId"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Description  string         `json:"description"`
	Metadata     datatypes.JSON `json:"metadata"`
	IPAddress    string         `json:"ipAddress"`
	UserAgent    string         `json:"userAgent"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"errorMessage"`
}
