package entity

// Closed option sets offered by the intake form.
var (
	AgeRangeOptions = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

	SexOptions = []string{SexMale, SexFemale}

	PhysicalActivityOptions = []string{"0-1 days", "1-2 days", "3-4 days", "5-7 days"}

	EnergyLevelOptions = []string{"Very Low", "Low", "Neutral", "High", "Very High"}

	DietOptions = []string{
		"Clean/Whole food",
		"High Protein",
		"Plant-based",
		"Low carb/keto",
		"Fast-food often",
		DietNone,
	}

	MealsPerDayOptions = []string{"1", "2", "3", "More than 3"}

	SleepQualityOptions = []string{"Poor", "Fair", "Good", "Excellent"}

	StressLevelOptions = []string{"Low", "Moderate", "High"}

	PregnancyOptions = []string{PregnancyNo, PregnancyYes}

	HealthGoalOptions = []string{
		"Improve Energy",
		"Boost Immunity",
		"Support Joint Health",
		"Enhance Sleep Quality",
		"Improve Digestive Health",
		"Support Heart Health",
		"Strengthen Bones",
		"Improve Mood & Focus",
		HealthGoalOther,
	}

	// DefaultSecurityQuestions is used when no question bank is configured.
	DefaultSecurityQuestions = []string{
		"What was the name of your first pet?",
		"What city were you born in?",
		"What is your mother's maiden name?",
		"What was the name of your elementary school?",
		"What was the make of your first car?",
		"What is your favorite book?",
		"What was your childhood nickname?",
		"What street did you grow up on?",
	}
)

const (
	SexMale   = "Male"
	SexFemale = "Female"

	PregnancyNo            = "No"
	PregnancyYes           = "Yes"
	PregnancyNotApplicable = "Not Applicable"

	DietNone = "I don't follow a specific diet"

	HealthGoalOther = "Other"

	MaxHealthGoals    = 2
	MaxListItems      = 20
	MaxTextLength     = 1000
	MaxWeightLbs      = 1000
	MinHeightFt       = 4
	MaxHeightFt       = 6
	MaxHeightIn       = 11
	RecoveryQuestions = 3
)

// Form defaults for a fresh intake.
const (
	DefaultAgeRange         = "18-24"
	DefaultSex              = SexMale
	DefaultHeightFt         = 5
	DefaultHeightIn         = 6
	DefaultPhysicalActivity = "3-4 days"
	DefaultEnergyLevel      = "Neutral"
	DefaultDiet             = DietNone
	DefaultMealsPerDay      = "3"
	DefaultSleepQuality     = "Good"
	DefaultStressLevel      = "Moderate"
)

// Contains reports whether value is one of options.
func Contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
