package models

// AttributeSchemaVersion identifies the shape of the free-form profile
// attribute maps below. Bump it whenever keys are added or removed so
// stored profiles can be migrated deliberately instead of silently
// reinterpreted.
const AttributeSchemaVersion = "v1"

// TraitMap holds named scalar attributes (lifestyle habits, personality
// traits) on a 0-100 scale. Missing keys mean "not disclosed" and are
// treated as the neutral midpoint downstream, never as zero.
type TraitMap map[string]float64

// PreferenceMap holds partner preference constraints keyed by attribute
// name. Values are strings; numeric constraints are parsed on evaluation.
// Unrecognized keys are ignored rather than failing the profile.
type PreferenceMap map[string]string

// Lifestyle keys recognized by schema v1.
const (
	LifestyleDiet              = "diet"
	LifestyleSmoking           = "smoking"
	LifestyleDrinking          = "drinking"
	LifestyleExercise          = "exercise"
	LifestyleReligiousPractice = "religious_practice"
)

// Personality trait keys recognized by schema v1 (big-five style).
const (
	TraitOpenness          = "openness"
	TraitConscientiousness = "conscientiousness"
	TraitExtraversion      = "extraversion"
	TraitAgreeableness     = "agreeableness"
	TraitNeuroticism       = "neuroticism"
)

// LifestyleKeys lists the schema v1 lifestyle attributes in scoring order.
var LifestyleKeys = []string{
	LifestyleDiet,
	LifestyleSmoking,
	LifestyleDrinking,
	LifestyleExercise,
	LifestyleReligiousPractice,
}

// PersonalityKeys lists the schema v1 personality attributes in scoring order.
var PersonalityKeys = []string{
	TraitOpenness,
	TraitConscientiousness,
	TraitExtraversion,
	TraitAgreeableness,
	TraitNeuroticism,
}

// Partner preference keys recognized by schema v1.
const (
	PrefAgeMin       = "age_min"
	PrefAgeMax       = "age_max"
	PrefHeightMin    = "height_min"
	PrefHeightMax    = "height_max"
	PrefGender       = "gender"
	PrefReligion     = "religion"
	PrefCaste        = "caste"
	PrefMotherTongue = "mother_tongue"
	PrefLocation     = "location"
	PrefEducation    = "education"
)
