package repository

import (
	"nutrition-intake/internal/domain/entity"
	domainRepo "nutrition-intake/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Create(log).Error
}

func (r *auditLogRepository) FindByUserID(db *gorm.DB, userID string) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	err := db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
