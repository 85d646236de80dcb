package converter

import (
	"testing"

	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileToForm(t *testing.T) {
	weight := 150.5
	profile := &entity.Profile{
		UserID:                  "abc-123-XYZ",
		FirstName:               "Ana",
		AgeRange:                "25-34",
		Sex:                     entity.SexFemale,
		HeightFt:                5,
		HeightIn:                4,
		WeightLbs:               &weight,
		Diet:                    "Paleo",
		PregnantOrBreastfeeding: entity.PregnancyYes,
		MedicalConditions:       entity.StringList{"Asthma", "Diabetes"},
		HealthGoals:             entity.StringList{"Improve Energy"},
		SecurityQuestion1:       "q1",
		SecurityAnswer1:         "secret",
	}

	form := ProfileToForm(profile)
	require.NotNil(t, form)

	assert.Equal(t, "abc-123-XYZ", form.UserID)
	assert.Equal(t, dto.NumberText("150.5"), form.WeightLbs)
	assert.Equal(t, entity.DefaultDiet, form.Diet)
	assert.Equal(t, entity.DefaultSleepQuality, form.SleepQuality)
	assert.Equal(t, []string{"Asthma", "Diabetes"}, form.MedicalConditions.List())
	assert.Equal(t, "Asthma, Diabetes", form.MedicalConditions.Text())
	assert.Equal(t, entity.PregnancyYes, form.PregnantOrBreastfeeding)
	assert.Equal(t, "q1", form.SecurityQuestion1)
	assert.Empty(t, form.SecurityAnswer1)

	assert.Nil(t, ProfileToForm(nil))
}

func TestProfileToFormPregnancy(t *testing.T) {
	tests := []struct {
		sex    string
		stored string
		want   string
	}{
		{entity.SexFemale, entity.PregnancyNotApplicable, entity.PregnancyNo},
		{entity.SexFemale, "", entity.PregnancyNo},
		{entity.SexFemale, entity.PregnancyNo, entity.PregnancyNo},
		{entity.SexMale, entity.PregnancyYes, entity.PregnancyNotApplicable},
	}

	for _, tt := range tests {
		form := ProfileToForm(&entity.Profile{Sex: tt.sex, PregnantOrBreastfeeding: tt.stored})
		assert.Equal(t, tt.want, form.PregnantOrBreastfeeding, "%s/%s", tt.sex, tt.stored)
	}
}

func TestProfileToFormDefaultsHeight(t *testing.T) {
	form := ProfileToForm(&entity.Profile{Sex: entity.SexMale})
	assert.Equal(t, entity.DefaultHeightFt, form.HeightFt)
	assert.Equal(t, entity.DefaultHeightIn, form.HeightIn)
	assert.Empty(t, form.WeightLbs)
}

func TestProfileToResponseListsNeverNull(t *testing.T) {
	resp := ProfileToResponse(&entity.Profile{UserID: "abc-123-XYZ"})
	require.NotNil(t, resp)
	assert.Equal(t, []string{}, resp.Allergies)
	assert.Equal(t, []string{}, resp.HealthGoals)
	assert.Nil(t, ProfileToResponse(nil))
}
