package testhelpers

import (
	"io"

	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/normalizer"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger that discards output.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// ValidForm returns a complete submission that passes validation once a
// user id is set.
func ValidForm() *dto.IntakeForm {
	return &dto.IntakeForm{
		FirstName:               "Ana",
		LastName:                "Silva",
		AgeRange:                "25-34",
		Sex:                     entity.SexFemale,
		HeightFt:                5,
		HeightIn:                4,
		WeightLbs:               "140",
		PhysicalActivity:        "3-4 days",
		EnergyLevel:             "Neutral",
		Diet:                    "High Protein",
		MealsPerDay:             "3",
		SleepQuality:            "Good",
		StressLevel:             "Moderate",
		PregnantOrBreastfeeding: entity.PregnancyNo,
		MedicalConditions:       normalizer.Text("Asthma"),
		CurrentMedications:      normalizer.List(),
		NaturalSupplements:      normalizer.List("Fish Oil"),
		Allergies:               normalizer.List(),
		HealthGoals:             normalizer.List("Improve Energy"),
		InterestedSupplements:   normalizer.List(),
		SecurityQuestion1:       entity.DefaultSecurityQuestions[0],
		SecurityAnswer1:         "Rex",
		SecurityQuestion2:       entity.DefaultSecurityQuestions[1],
		SecurityAnswer2:         "Lisbon",
		SecurityQuestion3:       entity.DefaultSecurityQuestions[2],
		SecurityAnswer3:         "Costa",
	}
}
