package converter

import (
	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/normalizer"

	"github.com/shopspring/decimal"
)

// DefaultForm returns the form a new intake starts from.
func DefaultForm() *dto.IntakeForm {
	return &dto.IntakeForm{
		AgeRange:                entity.DefaultAgeRange,
		Sex:                     entity.DefaultSex,
		HeightFt:                entity.DefaultHeightFt,
		HeightIn:                entity.DefaultHeightIn,
		PhysicalActivity:        entity.DefaultPhysicalActivity,
		EnergyLevel:             entity.DefaultEnergyLevel,
		Diet:                    entity.DefaultDiet,
		MealsPerDay:             entity.DefaultMealsPerDay,
		SleepQuality:            entity.DefaultSleepQuality,
		StressLevel:             entity.DefaultStressLevel,
		PregnantOrBreastfeeding: entity.PregnancyNotApplicable,
		MedicalConditions:       normalizer.List(),
		CurrentMedications:      normalizer.List(),
		NaturalSupplements:      normalizer.List(),
		Allergies:               normalizer.List(),
		HealthGoals:             normalizer.List(),
		InterestedSupplements:   normalizer.List(),
	}
}

// ProfileToForm pre-populates an editable form from a stored profile.
// Security answers are never sent back to the client.
func ProfileToForm(profile *entity.Profile) *dto.IntakeForm {
	if profile == nil {
		return nil
	}

	form := &dto.IntakeForm{
		UserID:    profile.UserID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,

		AgeRange: orDefault(profile.AgeRange, entity.AgeRangeOptions, entity.DefaultAgeRange),
		Sex:      orDefault(profile.Sex, entity.SexOptions, entity.DefaultSex),
		HeightFt: profile.HeightFt,
		HeightIn: profile.HeightIn,

		PhysicalActivity: orDefault(profile.PhysicalActivity, entity.PhysicalActivityOptions, entity.DefaultPhysicalActivity),
		EnergyLevel:      orDefault(profile.EnergyLevel, entity.EnergyLevelOptions, entity.DefaultEnergyLevel),
		Diet:             orDefault(profile.Diet, entity.DietOptions, entity.DefaultDiet),
		MealsPerDay:      orDefault(profile.MealsPerDay, entity.MealsPerDayOptions, entity.DefaultMealsPerDay),
		SleepQuality:     orDefault(profile.SleepQuality, entity.SleepQualityOptions, entity.DefaultSleepQuality),
		StressLevel:      orDefault(profile.StressLevel, entity.StressLevelOptions, entity.DefaultStressLevel),

		MedicalConditions:  normalizer.List(profile.MedicalConditions...),
		CurrentMedications: normalizer.List(profile.CurrentMedications...),
		NaturalSupplements: normalizer.List(profile.NaturalSupplements...),
		Allergies:          normalizer.List(profile.Allergies...),

		HealthGoals:           normalizer.List(profile.HealthGoals...),
		OtherHealthGoal:       profile.OtherHealthGoal,
		InterestedSupplements: normalizer.List(profile.InterestedSupplements...),
		AdditionalInfo:        profile.AdditionalInfo,

		SecurityQuestion1: profile.SecurityQuestion1,
		SecurityQuestion2: profile.SecurityQuestion2,
		SecurityQuestion3: profile.SecurityQuestion3,
	}

	if form.HeightFt == 0 && form.HeightIn == 0 {
		form.HeightFt, form.HeightIn = entity.DefaultHeightFt, entity.DefaultHeightIn
	}

	if profile.WeightLbs != nil {
		form.WeightLbs = dto.NumberText(decimal.NewFromFloat(*profile.WeightLbs).String())
	}

	form.PregnantOrBreastfeeding = pregnancyForForm(form.Sex, profile.PregnantOrBreastfeeding)

	return form
}

// pregnancyForForm maps the stored flag onto the choices offered for sex.
// Female rows saved before the flag existed carry "Not Applicable".
func pregnancyForForm(sex, stored string) string {
	if sex != entity.SexFemale {
		return entity.PregnancyNotApplicable
	}
	if entity.Contains(entity.PregnancyOptions, stored) {
		return stored
	}
	return entity.PregnancyNo
}

func orDefault(value string, options []string, fallback string) string {
	if entity.Contains(options, value) {
		return value
	}
	return fallback
}

// ProfileToResponse converts a Profile entity to ProfileResponse DTO
func ProfileToResponse(profile *entity.Profile) *dto.ProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.ProfileResponse{
		UserID:                  profile.UserID,
		FirstName:               profile.FirstName,
		LastName:                profile.LastName,
		AgeRange:                profile.AgeRange,
		Sex:                     profile.Sex,
		HeightFt:                profile.HeightFt,
		HeightIn:                profile.HeightIn,
		HeightM:                 profile.HeightM,
		WeightLbs:               profile.WeightLbs,
		WeightKg:                profile.WeightKg,
		PhysicalActivity:        profile.PhysicalActivity,
		EnergyLevel:             profile.EnergyLevel,
		Diet:                    profile.Diet,
		MealsPerDay:             profile.MealsPerDay,
		SleepQuality:            profile.SleepQuality,
		StressLevel:             profile.StressLevel,
		PregnantOrBreastfeeding: profile.PregnantOrBreastfeeding,
		MedicalConditions:       listOrEmpty(profile.MedicalConditions),
		CurrentMedications:      listOrEmpty(profile.CurrentMedications),
		NaturalSupplements:      listOrEmpty(profile.NaturalSupplements),
		Allergies:               listOrEmpty(profile.Allergies),
		HealthGoals:             listOrEmpty(profile.HealthGoals),
		OtherHealthGoal:         profile.OtherHealthGoal,
		InterestedSupplements:   listOrEmpty(profile.InterestedSupplements),
		AdditionalInfo:          profile.AdditionalInfo,
		TestKitResultURL:        profile.TestKitResultURL,
		TestKitResultFilename:   profile.TestKitResultFilename,
		CreatedAt:               profile.CreatedAt,
	}
}

func listOrEmpty(list entity.StringList) []string {
	if list == nil {
		return []string{}
	}
	return []string(list)
}
