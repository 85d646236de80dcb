package repository

import (
	"context"

	"nutrition-intake/internal/domain/entity"

	"gorm.io/gorm"
)

// ProfileRepository is the keyed record store for intake profiles. Find
// methods return (nil, nil) when no row matches.
type ProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.Profile) error
	FindLatestByUserID(ctx context.Context, db *gorm.DB, userID string) (*entity.Profile, error)
	FindLatestByRecovery(ctx context.Context, db *gorm.DB, pairs [entity.RecoveryQuestions]entity.RecoveryPair) (*entity.Profile, error)
}
