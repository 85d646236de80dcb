package repository

import (
	"context"
	"testing"
	"time"

	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfile(userID string) *entity.Profile {
	p := &entity.Profile{
		UserID:                  userID,
		AgeRange:                "25-34",
		Sex:                     entity.SexFemale,
		PregnantOrBreastfeeding: entity.PregnancyNo,
		MedicalConditions:       entity.StringList{"Asthma"},
	}
	p.SetRecovery([entity.RecoveryQuestions]entity.RecoveryPair{
		{Question: "What city were you born in?", Answer: "Lisbon"},
		{Question: "What is your favorite book?", Answer: "Dune"},
		{Question: "What was your childhood nickname?", Answer: "Bee"},
	})
	return p
}

func TestProfileRepositoryFindLatestByUserID(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	repo := NewProfileRepository()
	ctx := context.Background()

	first := newProfile("abc-123-XYZ")
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, db, first))

	second := newProfile("abc-123-XYZ")
	second.MedicalConditions = entity.StringList{"Asthma", "Diabetes"}
	require.NoError(t, repo.Create(ctx, db, second))

	require.NoError(t, repo.Create(ctx, db, newProfile("zzz-999-zzz")))

	got, err := repo.FindLatestByUserID(ctx, db, "abc-123-XYZ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, entity.StringList{"Asthma", "Diabetes"}, got.MedicalConditions)
	assert.Equal(t, entity.StringList{}, got.Allergies)

	missing, err := repo.FindLatestByUserID(ctx, db, "nonexistent-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileRepositoryFindLatestByRecovery(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	repo := NewProfileRepository()
	ctx := context.Background()

	stored := newProfile("abc-123-XYZ")
	require.NoError(t, repo.Create(ctx, db, stored))

	pairs := stored.Recovery()
	pairs[0].Answer = "  LISBON "

	got, err := repo.FindLatestByRecovery(ctx, db, pairs)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc-123-XYZ", got.UserID)

	pairs[2].Answer = "wrong"
	got, err = repo.FindLatestByRecovery(ctx, db, pairs)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStringListScansLegacyRows(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	repo := NewProfileRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, newProfile("leg-acy-row")))
	require.NoError(t, db.Exec(
		"UPDATE user_profiles SET medical_conditions = ?, allergies = ?, health_goals = ? WHERE user_id = ?",
		"Asthma, Diabetes", `"[\"Peanuts\"]"`, nil, "leg-acy-row",
	).Error)

	got, err := repo.FindLatestByUserID(ctx, db, "leg-acy-row")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StringList{"Asthma", "Diabetes"}, got.MedicalConditions)
	assert.Equal(t, entity.StringList{"Peanuts"}, got.Allergies)
	assert.Equal(t, entity.StringList{}, got.HealthGoals)
}
