package services

import (
	"strings"

	"sangam_server/models"
)

// Fixed normalization clamps for continuous attributes. Values outside the
// range are clamped, not rejected; range validation happens on profile
// writes.
const (
	minHeightCm = 120
	maxHeightCm = 220
	minWeightKg = 30
	maxWeightKg = 150
	maxIncome   = 5_000_000
)

// neutralValue is the midpoint used for undisclosed scalar attributes.
// Non-disclosure must never read as zero or it would penalize sparse
// profiles.
const neutralValue = 0.5

// AttributeVector is the normalized, fixed-schema representation of a
// profile's comparable features. It is a pure function of one profile
// snapshot; the scoring service consumes pairs of these.
type AttributeVector struct {
	UserID string

	Age     int
	AgeNorm float64
	Gender  string

	HeightCm   int
	HeightNorm float64
	HasHeight  bool
	WeightNorm float64
	HasWeight  bool
	IncomeNorm float64
	HasIncome  bool

	Religion     string
	Caste        string
	MotherTongue string
	Location     string

	EducationTier      int // 0 undisclosed, 1 school .. 4 doctorate
	OccupationCategory string

	Interests map[string]struct{}
	Values    map[string]struct{}

	// Flattened over the schema v1 key lists, scaled to [0,1], undisclosed
	// keys filled with the neutral midpoint.
	Lifestyle   map[string]float64
	Personality map[string]float64

	Completeness int
	Preferences  models.PreferenceMap
}

// FeatureService converts raw profiles into attribute vectors.
type FeatureService struct{}

// ExtractFeatures normalizes a profile. Fails with IncompleteProfileError
// when the mandatory attributes (age, gender) are absent. Deterministic and
// side-effect free.
func (fs *FeatureService) ExtractFeatures(profile *models.Profile) (*AttributeVector, error) {
	var missing []string
	if profile.Age <= 0 {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(profile.Gender) == "" {
		missing = append(missing, "gender")
	}
	if len(missing) > 0 {
		return nil, &models.IncompleteProfileError{UserID: profile.UserID, Missing: missing}
	}

	vector := &AttributeVector{
		UserID:             profile.UserID,
		Age:                profile.Age,
		AgeNorm:            normalize(float64(profile.Age), models.MinProfileAge, models.MaxProfileAge),
		Gender:             canonical(profile.Gender),
		Religion:           canonical(profile.Religion),
		Caste:              canonical(profile.Caste),
		MotherTongue:       canonical(profile.MotherTongue),
		Location:           canonical(profile.Location),
		EducationTier:      educationTier(profile.Education),
		OccupationCategory: occupationCategory(profile.Occupation),
		Interests:          tagSet(profile.Interests),
		Values:             tagSet(profile.Values),
		Lifestyle:          flattenTraits(profile.Lifestyle, models.LifestyleKeys),
		Personality:        flattenTraits(profile.PersonalityTraits, models.PersonalityKeys),
		Completeness:       profile.ProfileCompleteness,
		Preferences:        profile.PartnerPreferences,
	}

	if profile.HeightCm > 0 {
		vector.HasHeight = true
		vector.HeightCm = profile.HeightCm
		vector.HeightNorm = normalize(float64(profile.HeightCm), minHeightCm, maxHeightCm)
	} else {
		vector.HeightNorm = neutralValue
	}
	if profile.WeightKg > 0 {
		vector.HasWeight = true
		vector.WeightNorm = normalize(float64(profile.WeightKg), minWeightKg, maxWeightKg)
	} else {
		vector.WeightNorm = neutralValue
	}
	if profile.Income != nil {
		vector.HasIncome = true
		vector.IncomeNorm = normalize(profile.Income.InexactFloat64(), 0, maxIncome)
	} else {
		vector.IncomeNorm = neutralValue
	}

	return vector, nil
}

// normalize maps v into [0,1] with clamping at the fixed bounds.
func normalize(v, min, max float64) float64 {
	if v <= min {
		return 0
	}
	if v >= max {
		return 1
	}
	return (v - min) / (max - min)
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if c := canonical(tag); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// flattenTraits projects a free-form trait map onto the documented schema
// keys, scaling 0-100 values to [0,1]. Undisclosed keys get the neutral
// midpoint; unknown keys are dropped.
func flattenTraits(traits models.TraitMap, keys []string) map[string]float64 {
	out := make(map[string]float64, len(keys))
	for _, key := range keys {
		value, ok := traits[key]
		if !ok {
			out[key] = neutralValue
			continue
		}
		out[key] = normalize(value, 0, 100)
	}
	return out
}

// educationTier buckets free-text education into comparable tiers.
func educationTier(education string) int {
	e := canonical(education)
	switch {
	case e == "":
		return 0
	case strings.Contains(e, "phd") || strings.Contains(e, "doctor"):
		return 4
	case strings.Contains(e, "master") || strings.Contains(e, "mba") || strings.Contains(e, "postgrad"):
		return 3
	case strings.Contains(e, "bachelor") || strings.Contains(e, "b.tech") || strings.Contains(e, "b.e") ||
		strings.Contains(e, "degree") || strings.Contains(e, "graduate"):
		return 2
	default:
		return 1
	}
}

// occupationCategory buckets free-text occupations into broad categories.
func occupationCategory(occupation string) string {
	o := canonical(occupation)
	switch {
	case o == "":
		return ""
	case strings.Contains(o, "software") || strings.Contains(o, "engineer") || strings.Contains(o, "developer") ||
		strings.Contains(o, "tech") || strings.Contains(o, "it "):
		return "technology"
	case strings.Contains(o, "doctor") || strings.Contains(o, "nurse") || strings.Contains(o, "medical") ||
		strings.Contains(o, "dentist") || strings.Contains(o, "pharma"):
		return "healthcare"
	case strings.Contains(o, "teacher") || strings.Contains(o, "professor") || strings.Contains(o, "lecturer"):
		return "education"
	case strings.Contains(o, "business") || strings.Contains(o, "manager") || strings.Contains(o, "finance") ||
		strings.Contains(o, "account") || strings.Contains(o, "banker") || strings.Contains(o, "analyst"):
		return "business"
	case strings.Contains(o, "government") || strings.Contains(o, "civil serv") || strings.Contains(o, "ias") ||
		strings.Contains(o, "defence") || strings.Contains(o, "army"):
		return "government"
	default:
		return "other"
	}
}
