package service

import (
	"strings"
	"unicode"

	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/pkg/profilecode"
	"nutrition-intake/pkg/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	inchesToMeters = decimal.RequireFromString("0.0254")
	lbsToKg        = decimal.RequireFromString("0.453592")
	maxWeightLbs   = decimal.NewFromInt(entity.MaxWeightLbs)
)

// profileCandidate is the trimmed, normalized submission the rules run on.
type profileCandidate struct {
	UserID    string `json:"user_id" validate:"required,max=255,account_id"`
	FirstName string `json:"first_name" validate:"omitempty,max=100,person_name"`
	LastName  string `json:"last_name" validate:"omitempty,max=100,person_name"`

	AgeRange  string `json:"age_range" validate:"required,age_range"`
	Sex       string `json:"sex" validate:"required,sex"`
	HeightFt  int    `json:"height_ft" validate:"gte=4,lte=6"`
	HeightIn  int    `json:"height_in" validate:"gte=0,lte=11"`
	WeightLbs string `json:"weight_lbs" validate:"omitempty,weight_lbs"`

	PhysicalActivity string `json:"physical_activity" validate:"required,physical_activity"`
	EnergyLevel      string `json:"energy_level" validate:"required,energy_level"`
	Diet             string `json:"diet" validate:"required,diet"`
	MealsPerDay      string `json:"meals_per_day" validate:"required,meals_per_day"`
	SleepQuality     string `json:"sleep_quality" validate:"required,sleep_quality"`
	StressLevel      string `json:"stress_level" validate:"required,stress_level"`

	PregnantOrBreastfeeding string   `json:"pregnant_or_breastfeeding" validate:"required"`
	MedicalConditions       []string `json:"medical_conditions" validate:"max=20,dive,max=1000"`
	CurrentMedications      []string `json:"current_medications" validate:"max=20,dive,max=1000"`
	NaturalSupplements      []string `json:"natural_supplements" validate:"max=20,dive,max=1000"`
	Allergies               []string `json:"allergies" validate:"max=20,dive,max=1000"`

	HealthGoals           []string `json:"health_goals" validate:"max_goals,unique,dive,health_goal"`
	OtherHealthGoal       string   `json:"other_health_goal" validate:"max=1000"`
	InterestedSupplements []string `json:"interested_supplements" validate:"max=20,dive,max=1000"`
	AdditionalInfo        string   `json:"additional_info" validate:"max=1000"`

	SecurityQuestion1 string `json:"security_question_1" validate:"required,security_question"`
	SecurityAnswer1   string `json:"security_answer_1" validate:"required,max=255"`
	SecurityQuestion2 string `json:"security_question_2" validate:"required,security_question"`
	SecurityAnswer2   string `json:"security_answer_2" validate:"required,max=255"`
	SecurityQuestion3 string `json:"security_question_3" validate:"required,security_question"`
	SecurityAnswer3   string `json:"security_answer_3" validate:"required,max=255"`
}

// ProfileValidator turns a submitted form into an accepted profile or a map
// of field name to violation. It has no side effects.
type ProfileValidator struct {
	validator *validator.CustomValidator
}

// NewProfileValidator builds the rule set. Security questions must come from
// questions; an empty bank accepts any non-blank question.
func NewProfileValidator(questions []string) (*ProfileValidator, error) {
	cv := validator.NewValidator()

	options := map[string][]string{
		"age_range":         entity.AgeRangeOptions,
		"sex":               entity.SexOptions,
		"physical_activity": entity.PhysicalActivityOptions,
		"energy_level":      entity.EnergyLevelOptions,
		"diet":              entity.DietOptions,
		"meals_per_day":     entity.MealsPerDayOptions,
		"sleep_quality":     entity.SleepQualityOptions,
		"stress_level":      entity.StressLevelOptions,
		"health_goal":       entity.HealthGoalOptions,
	}
	for tag, values := range options {
		if err := cv.RegisterOptions(tag, values); err != nil {
			return nil, err
		}
	}

	if len(questions) > 0 {
		if err := cv.RegisterOptions("security_question", questions); err != nil {
			return nil, err
		}
	} else if err := cv.RegisterValidation("security_question", func(fl govalidator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}, nil); err != nil {
		return nil, err
	}

	rules := []struct {
		tag     string
		fn      govalidator.Func
		message func(field, param string) string
	}{
		{"account_id", func(fl govalidator.FieldLevel) bool {
			id := fl.Field().String()
			return profilecode.Valid(id) || cv.Var(id, "email") == nil
		}, func(field, _ string) string {
			return field + " must be a profile code (XXX-XXX-XXX) or an email address"
		}},
		{"person_name", func(fl govalidator.FieldLevel) bool {
			return isPersonName(fl.Field().String())
		}, func(field, _ string) string {
			return field + " must only contain letters"
		}},
		{"weight_lbs", func(fl govalidator.FieldLevel) bool {
			_, ok := parseWeight(fl.Field().String())
			return ok
		}, func(field, _ string) string {
			return "weight must be a number greater than 0 and at most 1000 lbs"
		}},
		{"max_goals", func(fl govalidator.FieldLevel) bool {
			return fl.Field().Len() <= entity.MaxHealthGoals
		}, func(field, _ string) string {
			return "select at most 2 health goals"
		}},
	}
	for _, rule := range rules {
		if err := cv.RegisterValidation(rule.tag, rule.fn, rule.message); err != nil {
			return nil, err
		}
	}

	cv.RegisterMessage("unique_questions", func(string, string) string {
		return "security questions must be unique"
	})
	cv.RegisterMessage("other_goal", func(string, string) string {
		return "please describe your other health goal"
	})
	cv.RegisterMessage("pregnancy", func(field, _ string) string {
		return field + " must be one of: " + strings.Join(entity.PregnancyOptions, ", ")
	})
	cv.RegisterStructValidation(profileRules, profileCandidate{})

	return &ProfileValidator{validator: cv}, nil
}

func profileRules(sl govalidator.StructLevel) {
	c := sl.Current().Interface().(profileCandidate)

	q1, q2, q3 := c.SecurityQuestion1, c.SecurityQuestion2, c.SecurityQuestion3
	if q2 != "" && q2 == q1 {
		sl.ReportError(q2, "security_question_2", "SecurityQuestion2", "unique_questions", "")
	}
	if q3 != "" && (q3 == q1 || q3 == q2) {
		sl.ReportError(q3, "security_question_3", "SecurityQuestion3", "unique_questions", "")
	}

	if entity.Contains(c.HealthGoals, entity.HealthGoalOther) && c.OtherHealthGoal == "" {
		sl.ReportError(c.OtherHealthGoal, "other_health_goal", "OtherHealthGoal", "other_goal", "")
	}

	if c.Sex == entity.SexFemale && !entity.Contains(entity.PregnancyOptions, c.PregnantOrBreastfeeding) {
		sl.ReportError(c.PregnantOrBreastfeeding, "pregnant_or_breastfeeding", "PregnantOrBreastfeeding", "pregnancy", "")
	}
}

// Validate checks form and returns the profile to persist. Exactly one of
// the results is non-nil.
func (v *ProfileValidator) Validate(form *dto.IntakeForm) (*entity.Profile, map[string]string) {
	if form == nil {
		return nil, map[string]string{"form": "form is required"}
	}

	c := normalizeForm(form)
	if err := v.validator.Validate(c); err != nil {
		errs := v.validator.FormatValidationErrors(err)
		if len(errs) == 0 {
			errs = map[string]string{"form": err.Error()}
		}
		return nil, errs
	}

	return c.toProfile(), nil
}

func normalizeForm(form *dto.IntakeForm) profileCandidate {
	c := profileCandidate{
		UserID:    strings.TrimSpace(form.UserID),
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),

		AgeRange:  strings.TrimSpace(form.AgeRange),
		Sex:       strings.TrimSpace(form.Sex),
		HeightFt:  form.HeightFt,
		HeightIn:  form.HeightIn,
		WeightLbs: strings.TrimSpace(form.WeightText()),

		PhysicalActivity: strings.TrimSpace(form.PhysicalActivity),
		EnergyLevel:      strings.TrimSpace(form.EnergyLevel),
		Diet:             strings.TrimSpace(form.Diet),
		MealsPerDay:      strings.TrimSpace(form.MealsPerDay),
		SleepQuality:     strings.TrimSpace(form.SleepQuality),
		StressLevel:      strings.TrimSpace(form.StressLevel),

		PregnantOrBreastfeeding: strings.TrimSpace(form.PregnantOrBreastfeeding),
		MedicalConditions:       form.MedicalConditions.List(),
		CurrentMedications:      form.CurrentMedications.List(),
		NaturalSupplements:      form.NaturalSupplements.List(),
		Allergies:               form.Allergies.List(),

		HealthGoals:           form.HealthGoals.List(),
		OtherHealthGoal:       strings.TrimSpace(form.OtherHealthGoal),
		InterestedSupplements: form.InterestedSupplements.List(),
		AdditionalInfo:        strings.TrimSpace(form.AdditionalInfo),

		SecurityQuestion1: strings.TrimSpace(form.SecurityQuestion1),
		SecurityAnswer1:   strings.TrimSpace(form.SecurityAnswer1),
		SecurityQuestion2: strings.TrimSpace(form.SecurityQuestion2),
		SecurityAnswer2:   strings.TrimSpace(form.SecurityAnswer2),
		SecurityQuestion3: strings.TrimSpace(form.SecurityQuestion3),
		SecurityAnswer3:   strings.TrimSpace(form.SecurityAnswer3),
	}

	if c.Sex == entity.SexMale {
		c.PregnantOrBreastfeeding = entity.PregnancyNotApplicable
	}
	if !entity.Contains(c.HealthGoals, entity.HealthGoalOther) {
		c.OtherHealthGoal = ""
	}

	return c
}

func (c profileCandidate) toProfile() *entity.Profile {
	inches := decimal.NewFromInt(int64(c.HeightFt*12 + c.HeightIn))
	heightM, _ := inches.Mul(inchesToMeters).Round(4).Float64()

	p := &entity.Profile{
		UserID:    c.UserID,
		FirstName: c.FirstName,
		LastName:  c.LastName,

		AgeRange: c.AgeRange,
		Sex:      c.Sex,
		HeightFt: c.HeightFt,
		HeightIn: c.HeightIn,
		HeightM:  heightM,

		PhysicalActivity: c.PhysicalActivity,
		EnergyLevel:      c.EnergyLevel,
		Diet:             c.Diet,
		MealsPerDay:      c.MealsPerDay,
		SleepQuality:     c.SleepQuality,
		StressLevel:      c.StressLevel,

		PregnantOrBreastfeeding: c.PregnantOrBreastfeeding,
		MedicalConditions:       entity.StringList(c.MedicalConditions),
		CurrentMedications:      entity.StringList(c.CurrentMedications),
		NaturalSupplements:      entity.StringList(c.NaturalSupplements),
		Allergies:               entity.StringList(c.Allergies),

		HealthGoals:           entity.StringList(c.HealthGoals),
		OtherHealthGoal:       c.OtherHealthGoal,
		InterestedSupplements: entity.StringList(c.InterestedSupplements),
		AdditionalInfo:        c.AdditionalInfo,
	}

	p.SetRecovery([entity.RecoveryQuestions]entity.RecoveryPair{
		{Question: c.SecurityQuestion1, Answer: c.SecurityAnswer1},
		{Question: c.SecurityQuestion2, Answer: c.SecurityAnswer2},
		{Question: c.SecurityQuestion3, Answer: c.SecurityAnswer3},
	})

	if lbs, ok := parseWeight(c.WeightLbs); ok {
		weightLbs, _ := lbs.Float64()
		weightKg, _ := lbs.Mul(lbsToKg).Round(2).Float64()
		p.WeightLbs = &weightLbs
		p.WeightKg = &weightKg
	}

	return p
}

// parseWeight accepts a decimal number of pounds in (0, 1000].
func parseWeight(s string) (decimal.Decimal, bool) {
	w, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	if !w.IsPositive() || w.GreaterThan(maxWeightLbs) {
		return decimal.Zero, false
	}
	return w, true
}

func isPersonName(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ' || r == '-' || r == '\'':
		default:
			return false
		}
	}
	return hasLetter
}
