package models

// Profile defines the structure for matrimonial user profiles
type Profile struct {
	UserID              string        `dynamodbav:"userId" json:"userId"`
	Age                 int           `dynamodbav:"age" json:"age"`
	Gender              string        `dynamodbav:"gender" json:"gender"`
	Religion            string        `dynamodbav:"religion,omitempty" json:"religion,omitempty"`
	Caste               string        `dynamodbav:"caste,omitempty" json:"caste,omitempty"`
	MotherTongue        string        `dynamodbav:"motherTongue,omitempty" json:"motherTongue,omitempty"`
	HeightCm            int           `dynamodbav:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg            int           `dynamodbav:"weightKg,omitempty" json:"weightKg,omitempty"`
	Education           string        `dynamodbav:"education,omitempty" json:"education,omitempty"`
	Occupation          string        `dynamodbav:"occupation,omitempty" json:"occupation,omitempty"`
	Income              *Money        `dynamodbav:"income,omitempty" json:"income,omitempty"`
	Location            string        `dynamodbav:"location,omitempty" json:"location,omitempty"`
	Bio                 string        `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Photos              []string      `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
	Interests           []string      `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Values              []string      `dynamodbav:"values,omitempty" json:"values,omitempty"`
	Lifestyle           TraitMap      `dynamodbav:"lifestyle,omitempty" json:"lifestyle,omitempty"`
	PersonalityTraits   TraitMap      `dynamodbav:"personalityTraits,omitempty" json:"personalityTraits,omitempty"`
	PartnerPreferences  PreferenceMap `dynamodbav:"partnerPreferences,omitempty" json:"partnerPreferences,omitempty"`
	ProfileCompleteness int           `dynamodbav:"profileCompleteness" json:"profileCompleteness"`
	IsActive            bool          `dynamodbav:"isActive" json:"isActive"`
	VerificationStatus  string        `dynamodbav:"verificationStatus" json:"verificationStatus"`
	CreatedAt           string        `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt           string        `dynamodbav:"updatedAt" json:"updatedAt"`
}

// SearchFilters narrows candidate profile listings. Zero values mean
// "no constraint" for that field.
type SearchFilters struct {
	AgeMin   int    `json:"ageMin,omitempty"`
	AgeMax   int    `json:"ageMax,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Religion string `json:"religion,omitempty"`
	Location string `json:"location,omitempty"`
}

// ProfilesTable is the DynamoDB table name for user profiles
const ProfilesTable = "Profiles"
