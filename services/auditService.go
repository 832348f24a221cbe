package services

import (
	"context"
	"encoding/json"

	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"gorm.io/gorm"
)

// Actor identifies the admin performing a mutating action, as extracted from
// the request by the controller.
type Actor struct {
	AdminID   int
	IPAddress string
	UserAgent string
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record appends an audit log entry. Failures are logged and swallowed so a
// dropped audit row never fails the action it describes.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, resourceType, resourceID, description string, metadata map[string]any, success bool, errMsg string) {
	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			utils.Log.WithError(err).Warn("Failed to marshal audit metadata")
			metadataJSON = nil
		}
	}

	entry := models.AuditLog{
		AdminID:      actor.AdminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Description:  description,
		Metadata:     metadataJSON,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
		Success:      success,
		ErrorMessage: errMsg,
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		utils.Log.WithError(err).WithFields(map[string]any{
			"action":   action,
			"resource": resourceType + "/" + resourceID,
		}).Error("Failed to write audit log entry")
	}
}

// List returns recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, page, limit int) ([]models.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var entries []models.AuditLog
	if err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
