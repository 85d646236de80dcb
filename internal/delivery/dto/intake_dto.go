package dto

import (
	"encoding/json"
	"time"

	"nutrition-intake/internal/normalizer"
)

// NumberText keeps a numeric form input as typed. JSON numbers and strings
// are both accepted so validation can reject "abc" instead of the decoder.
type NumberText string

func (n *NumberText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NumberText(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = NumberText(f.String())
	return nil
}

// IntakeForm holds every editable intake field as entered. List fields may
// arrive as JSON arrays or comma separated text.
type IntakeForm struct {
	UserID    string `json:"user_id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	AgeRange  string     `json:"age_range"`
	Sex       string     `json:"sex"`
	HeightFt  int        `json:"height_ft"`
	HeightIn  int        `json:"height_in"`
	WeightLbs NumberText `json:"weight_lbs"`

	PhysicalActivity string `json:"physical_activity"`
	EnergyLevel      string `json:"energy_level"`
	Diet             string `json:"diet"`
	MealsPerDay      string `json:"meals_per_day"`
	SleepQuality     string `json:"sleep_quality"`
	StressLevel      string `json:"stress_level"`

	PregnantOrBreastfeeding string           `json:"pregnant_or_breastfeeding"`
	MedicalConditions       normalizer.Value `json:"medical_conditions"`
	CurrentMedications      normalizer.Value `json:"current_medications"`
	NaturalSupplements      normalizer.Value `json:"natural_supplements"`
	Allergies               normalizer.Value `json:"allergies"`

	HealthGoals           normalizer.Value `json:"health_goals"`
	OtherHealthGoal       string           `json:"other_health_goal"`
	InterestedSupplements normalizer.Value `json:"interested_supplements"`
	AdditionalInfo        string           `json:"additional_info"`

	SecurityQuestion1 string `json:"security_question_1"`
	SecurityAnswer1   string `json:"security_answer_1"`
	SecurityQuestion2 string `json:"security_question_2"`
	SecurityAnswer2   string `json:"security_answer_2"`
	SecurityQuestion3 string `json:"security_question_3"`
	SecurityAnswer3   string `json:"security_answer_3"`
}

// WeightText returns the weight input as a string.
func (f *IntakeForm) WeightText() string {
	return string(f.WeightLbs)
}

// Request DTOs

type SelectModeRequest struct {
	Mode string      `json:"mode" validate:"required,oneof=new returning"`
	Form *IntakeForm `json:"form,omitempty"`
}

type FormRequest struct {
	Form *IntakeForm `json:"form"`
}

type RecoveryModeRequest struct {
	Enabled bool `json:"enabled"`
}

type LoadProfileRequest struct {
	UserID string `json:"user_id" validate:"required,max=255"`
}

type RecoverProfileRequest struct {
	SecurityQuestion1 string `json:"security_question_1" validate:"required"`
	SecurityAnswer1   string `json:"security_answer_1" validate:"required"`
	SecurityQuestion2 string `json:"security_question_2" validate:"required"`
	SecurityAnswer2   string `json:"security_answer_2" validate:"required"`
	SecurityQuestion3 string `json:"security_question_3" validate:"required"`
	SecurityAnswer3   string `json:"security_answer_3" validate:"required"`
}

// Response DTOs

// Form surfaces.
const (
	ModeNew       = "new"
	ModeReturning = "returning"
)

// FormState is the whole state of one intake session. The server keeps no
// copy; it travels between requests as a signed token plus the form body.
type FormState struct {
	SessionID       string            `json:"session_id"`
	Mode            string            `json:"mode"`
	RecoveryMode    bool              `json:"recovery_mode"`
	ConfirmedUserID string            `json:"confirmed_user_id,omitempty"`
	Form            *IntakeForm       `json:"form"`
	Errors          map[string]string `json:"errors,omitempty"`
}

type IntakeResponse struct {
	Token          string           `json:"token"`
	ExpiresIn      int64            `json:"expires_in"`
	Outcome        string           `json:"outcome,omitempty"`
	State          *FormState       `json:"state"`
	Recommendation string           `json:"recommendation,omitempty"`
	Profile        *ProfileResponse `json:"profile,omitempty"`
}

type ProfileResponse struct {
	UserID                  string    `json:"user_id"`
	FirstName               string    `json:"first_name,omitempty"`
	LastName                string    `json:"last_name,omitempty"`
	AgeRange                string    `json:"age_range"`
	Sex                     string    `json:"sex"`
	HeightFt                int       `json:"height_ft"`
	HeightIn                int       `json:"height_in"`
	HeightM                 float64   `json:"height_m"`
	WeightLbs               *float64  `json:"weight_lbs,omitempty"`
	WeightKg                *float64  `json:"weight_kg,omitempty"`
	PhysicalActivity        string    `json:"physical_activity"`
	EnergyLevel             string    `json:"energy_level"`
	Diet                    string    `json:"diet"`
	MealsPerDay             string    `json:"meals_per_day"`
	SleepQuality            string    `json:"sleep_quality"`
	StressLevel             string    `json:"stress_level"`
	PregnantOrBreastfeeding string    `json:"pregnant_or_breastfeeding"`
	MedicalConditions       []string  `json:"medical_conditions"`
	CurrentMedications      []string  `json:"current_medications"`
	NaturalSupplements      []string  `json:"natural_supplements"`
	Allergies               []string  `json:"allergies"`
	HealthGoals             []string  `json:"health_goals"`
	OtherHealthGoal         string    `json:"other_health_goal,omitempty"`
	InterestedSupplements   []string  `json:"interested_supplements"`
	AdditionalInfo          string    `json:"additional_info,omitempty"`
	TestKitResultURL        string    `json:"test_kit_result_url,omitempty"`
	TestKitResultFilename   string    `json:"test_kit_result_filename,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
}

type OptionsResponse struct {
	AgeRange          []string    `json:"age_range"`
	Sex               []string    `json:"sex"`
	HeightFt          []int       `json:"height_ft"`
	HeightIn          []int       `json:"height_in"`
	PhysicalActivity  []string    `json:"physical_activity"`
	EnergyLevel       []string    `json:"energy_level"`
	Diet              []string    `json:"diet"`
	MealsPerDay       []string    `json:"meals_per_day"`
	SleepQuality      []string    `json:"sleep_quality"`
	StressLevel       []string    `json:"stress_level"`
	Pregnancy         []string    `json:"pregnant_or_breastfeeding"`
	HealthGoals       []string    `json:"health_goals"`
	MaxHealthGoals    int         `json:"max_health_goals"`
	SecurityQuestions []string    `json:"security_questions"`
	Defaults          *IntakeForm `json:"defaults"`
}

type AuditLogResponse struct {
	ID        int64                  `json:"id"`
	UserID    string                 `json:"user_id"`
	SessionID string                 `json:"session_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
