package repository

import (
	"context"
	"errors"
	"strings"

	"nutrition-intake/internal/domain/entity"
	domainRepo "nutrition-intake/internal/domain/repository"

	"gorm.io/gorm"
)

type profileRepository struct{}

func NewProfileRepository() domainRepo.ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.Profile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) FindLatestByUserID(ctx context.Context, db *gorm.DB, userID string) (*entity.Profile, error) {
	var profile entity.Profile
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Take(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindLatestByRecovery matches the three pairs positionally. Questions must
// match exactly, answers ignore case and surrounding whitespace.
func (r *profileRepository) FindLatestByRecovery(ctx context.Context, db *gorm.DB, pairs [entity.RecoveryQuestions]entity.RecoveryPair) (*entity.Profile, error) {
	var profile entity.Profile
	err := db.WithContext(ctx).
		Where("security_question_1 = ? AND LOWER(TRIM(security_answer_1)) = ?", pairs[0].Question, foldAnswer(pairs[0].Answer)).
		Where("security_question_2 = ? AND LOWER(TRIM(security_answer_2)) = ?", pairs[1].Question, foldAnswer(pairs[1].Answer)).
		Where("security_question_3 = ? AND LOWER(TRIM(security_answer_3)) = ?", pairs[2].Question, foldAnswer(pairs[2].Answer)).
		Order("created_at DESC, id DESC").
		Limit(1).
		Take(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func foldAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
