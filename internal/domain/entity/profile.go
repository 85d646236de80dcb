package entity

import (
	"time"
)

// Profile is one row of a user's intake history. Rows are only ever
// inserted; the current profile for an identifier is its newest row.
type Profile struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"type:varchar(255);not null;index:idx_user_profiles_user_created,priority:1" json:"user_id"`

	FirstName string `gorm:"type:varchar(100)" json:"first_name,omitempty"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name,omitempty"`

	AgeRange  string   `gorm:"type:varchar(10)" json:"age_range"`
	Sex       string   `gorm:"type:varchar(10);not null" json:"sex"`
	HeightFt  int      `json:"height_ft"`
	HeightIn  int      `json:"height_in"`
	HeightM   float64  `json:"height_m"`
	WeightLbs *float64 `json:"weight_lbs,omitempty"`
	WeightKg  *float64 `json:"weight_kg,omitempty"`

	PhysicalActivity string `gorm:"type:varchar(20)" json:"physical_activity"`
	EnergyLevel      string `gorm:"type:varchar(20)" json:"energy_level"`
	Diet             string `gorm:"type:varchar(50)" json:"diet"`
	MealsPerDay      string `gorm:"type:varchar(20)" json:"meals_per_day"`
	SleepQuality     string `gorm:"type:varchar(20)" json:"sleep_quality"`
	StressLevel      string `gorm:"type:varchar(20)" json:"stress_level"`

	PregnantOrBreastfeeding string     `gorm:"type:varchar(20)" json:"pregnant_or_breastfeeding"`
	MedicalConditions       StringList `gorm:"type:text" json:"medical_conditions"`
	CurrentMedications      StringList `gorm:"type:text" json:"current_medications"`
	NaturalSupplements      StringList `gorm:"type:text" json:"natural_supplements"`
	Allergies               StringList `gorm:"type:text" json:"allergies"`

	HealthGoals           StringList `gorm:"type:text" json:"health_goals"`
	OtherHealthGoal       string     `gorm:"type:text" json:"other_health_goal,omitempty"`
	InterestedSupplements StringList `gorm:"type:text" json:"interested_supplements"`
	AdditionalInfo        string     `gorm:"type:text" json:"additional_info,omitempty"`

	SecurityQuestion1 string `gorm:"type:text" json:"security_question_1"`
	SecurityAnswer1   string `gorm:"type:text" json:"-"`
	SecurityQuestion2 string `gorm:"type:text" json:"security_question_2"`
	SecurityAnswer2   string `gorm:"type:text" json:"-"`
	SecurityQuestion3 string `gorm:"type:text" json:"security_question_3"`
	SecurityAnswer3   string `gorm:"type:text" json:"-"`

	TestKitResultURL      string `gorm:"type:text" json:"test_kit_result_url,omitempty"`
	TestKitResultFilename string `gorm:"type:varchar(255)" json:"test_kit_result_filename,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_user_profiles_user_created,priority:2" json:"created_at"`
}

func (Profile) TableName() string {
	return "user_profiles"
}

// RecoveryPair is one security question with its answer.
type RecoveryPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Recovery returns the three stored recovery pairs in order.
func (p *Profile) Recovery() [RecoveryQuestions]RecoveryPair {
	return [RecoveryQuestions]RecoveryPair{
		{Question: p.SecurityQuestion1, Answer: p.SecurityAnswer1},
		{Question: p.SecurityQuestion2, Answer: p.SecurityAnswer2},
		{Question: p.SecurityQuestion3, Answer: p.SecurityAnswer3},
	}
}

// SetRecovery stores the three recovery pairs.
func (p *Profile) SetRecovery(pairs [RecoveryQuestions]RecoveryPair) {
	p.SecurityQuestion1, p.SecurityAnswer1 = pairs[0].Question, pairs[0].Answer
	p.SecurityQuestion2, p.SecurityAnswer2 = pairs[1].Question, pairs[1].Answer
	p.SecurityQuestion3, p.SecurityAnswer3 = pairs[2].Question, pairs[2].Answer
}

// Clone returns a copy suitable for inserting as a new history row.
func (p *Profile) Clone() *Profile {
	c := *p
	c.ID = 0
	c.CreatedAt = time.Time{}
	c.MedicalConditions = append(StringList{}, p.MedicalConditions...)
	c.CurrentMedications = append(StringList{}, p.CurrentMedications...)
	c.NaturalSupplements = append(StringList{}, p.NaturalSupplements...)
	c.Allergies = append(StringList{}, p.Allergies...)
	c.HealthGoals = append(StringList{}, p.HealthGoals...)
	c.InterestedSupplements = append(StringList{}, p.InterestedSupplements...)
	if p.WeightLbs != nil {
		w := *p.WeightLbs
		c.WeightLbs = &w
	}
	if p.WeightKg != nil {
		w := *p.WeightKg
		c.WeightKg = &w
	}
	return &c
}
