package repository

import (
	"nutrition-intake/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindByUserID(db *gorm.DB, userID string) ([]entity.AuditLog, error)
}
