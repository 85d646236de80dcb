package service

import (
	"context"

	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/domain/repository"
	"nutrition-intake/internal/ratelimit"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, userID string, action string, entityID uint64, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, userID string, action string, entityID uint64, oldValue, newValue interface{}) error
	LogAccess(ctx context.Context, tx *gorm.DB, userID string, action string, entityID uint64) error
	History(ctx context.Context, userID string) ([]entity.AuditLog, error)
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs the first row written for an identifier
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, userID string, action string, entityID uint64, newValue interface{}) error {
	return s.write(ctx, tx, userID, action, entity.JSON{
		"entity":    entity.Profile{}.TableName(),
		"entity_id": entityID,
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs a new history row together with the row it supersedes
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID string, action string, entityID uint64, oldValue, newValue interface{}) error {
	return s.write(ctx, tx, userID, action, entity.JSON{
		"entity":    entity.Profile{}.TableName(),
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogAccess logs a read that revealed an identifier, such as a recovery.
func (s *auditService) LogAccess(ctx context.Context, tx *gorm.DB, userID string, action string, entityID uint64) error {
	return s.write(ctx, tx, userID, action, entity.JSON{
		"entity":    entity.Profile{}.TableName(),
		"entity_id": entityID,
	})
}

func (s *auditService) History(ctx context.Context, userID string) ([]entity.AuditLog, error) {
	return s.auditRepo.FindByUserID(s.db.WithContext(ctx), userID)
}

func (s *auditService) write(ctx context.Context, tx *gorm.DB, userID, action string, metadata entity.JSON) error {
	if tx == nil {
		tx = s.db
	}

	auditLog := &entity.AuditLog{
		UserID:    userID,
		SessionID: ratelimit.ScopeFromContext(ctx),
		Action:    action,
		Metadata:  metadata,
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":  action,
			"user_id": userID,
		}).Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
