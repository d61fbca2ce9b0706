package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sangam_server/models"
)

// ScoringVersion identifies the weight table below. The exact weights are
// tunable product configuration, not a wire contract; bump the version when
// they change so stored breakdowns remain interpretable.
const ScoringVersion = "v1"

// Score breakdown dimensions. The two preference dimensions are
// directional: "self" is how well the candidate satisfies the row owner's
// partner preferences, "other" the reverse. They swap between the two
// directional rows of a pair; every other dimension is symmetric.
const (
	DimensionAge              = "age"
	DimensionInterests        = "interests"
	DimensionValues           = "values"
	DimensionLifestyle        = "lifestyle"
	DimensionPersonality      = "personality"
	DimensionCultural         = "cultural"
	DimensionPreferencesSelf  = "preferences_self"
	DimensionPreferencesOther = "preferences_other"
)

type scoringDimension struct {
	Name   string
	Weight int
}

// scoringWeights is the v1 weight table. Weights sum to 100, so a
// dimension's breakdown entry is its weighted contribution in score points.
var scoringWeights = []scoringDimension{
	{DimensionAge, 15},
	{DimensionInterests, 15},
	{DimensionValues, 10},
	{DimensionLifestyle, 10},
	{DimensionPersonality, 10},
	{DimensionCultural, 10},
	{DimensionPreferencesSelf, 15},
	{DimensionPreferencesOther, 15},
}

// ageDecayYears controls how fast the age sub-score decays with the gap:
// exp(-gap/ageDecayYears).
const ageDecayYears = 10.0

// ScoringService computes pairwise compatibility. Pure computation over two
// attribute vectors; no storage, no randomness, no external calls.
type ScoringService struct{}

// Score returns the compatibility score in [1,100] and the per-dimension
// breakdown for the directional row owned by a. The breakdown always sums
// exactly to the score. Swapping the arguments leaves every non-preference
// entry unchanged and swaps the two preference entries.
func (ss *ScoringService) Score(a, b *AttributeVector, prefsA, prefsB models.PreferenceMap) (int, map[string]int) {
	subScores := map[string]float64{
		DimensionAge:              ageAffinity(a.Age, b.Age),
		DimensionInterests:        setAffinity(a.Interests, b.Interests),
		DimensionValues:           setAffinity(a.Values, b.Values),
		DimensionLifestyle:        lifestyleAffinity(a, b),
		DimensionPersonality:      traitAffinity(a.Personality, b.Personality, models.PersonalityKeys),
		DimensionCultural:         culturalAffinity(a, b),
		DimensionPreferencesSelf:  preferenceSatisfaction(prefsA, b),
		DimensionPreferencesOther: preferenceSatisfaction(prefsB, a),
	}

	raw := 0.0
	for _, dim := range scoringWeights {
		raw += float64(dim.Weight) * subScores[dim.Name]
	}

	total := int(math.Round(raw))
	if total < 1 {
		total = 1
	}
	if total > 100 {
		total = 100
	}

	return total, apportionBreakdown(subScores, total)
}

// MirrorBreakdown converts a breakdown into the one for the reverse
// directional row: the two preference entries trade places.
func (ss *ScoringService) MirrorBreakdown(breakdown map[string]int) map[string]int {
	mirrored := make(map[string]int, len(breakdown))
	for dim, points := range breakdown {
		mirrored[dim] = points
	}
	mirrored[DimensionPreferencesSelf] = breakdown[DimensionPreferencesOther]
	mirrored[DimensionPreferencesOther] = breakdown[DimensionPreferencesSelf]
	return mirrored
}

// apportionBreakdown distributes the integer total across dimensions by
// largest remainder so the entries sum exactly to the total.
func apportionBreakdown(subScores map[string]float64, total int) map[string]int {
	type share struct {
		name     string
		whole    int
		fraction float64
	}

	shares := make([]share, 0, len(scoringWeights))
	breakdown := make(map[string]int, len(scoringWeights))
	allocated := 0
	for _, dim := range scoringWeights {
		contribution := float64(dim.Weight) * subScores[dim.Name]
		whole := int(math.Floor(contribution))
		shares = append(shares, share{dim.Name, whole, contribution - float64(whole)})
		breakdown[dim.Name] = whole
		allocated += whole
	}

	// Remaining points go to the largest fractional parts; ties resolve in
	// weight-table order for determinism.
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].fraction > shares[j].fraction
	})
	for i := 0; allocated < total && i < len(shares); i++ {
		breakdown[shares[i].name]++
		allocated++
	}
	// total can exceed the floors by more than len(shares) only after the
	// clamp to 1; spread any leftover in table order.
	for allocated < total {
		for _, dim := range scoringWeights {
			if allocated >= total {
				break
			}
			breakdown[dim.Name]++
			allocated++
		}
	}
	return breakdown
}

// ageAffinity decays exponentially with the age gap; a small gap scores
// near 1.
func ageAffinity(ageA, ageB int) float64 {
	gap := math.Abs(float64(ageA - ageB))
	return math.Exp(-gap / ageDecayYears)
}

// setAffinity is the Jaccard similarity of two tag sets. When either side
// disclosed nothing there is no signal, so the neutral midpoint applies.
func setAffinity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return neutralValue
	}
	intersection := 0
	for tag := range a {
		if _, ok := b[tag]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// traitAffinity averages 1-|a-b| over the schema keys. The extractor fills
// undisclosed keys with the neutral midpoint, so sparse profiles gravitate
// toward neutral rather than zero.
func traitAffinity(a, b map[string]float64, keys []string) float64 {
	if len(keys) == 0 {
		return neutralValue
	}
	sum := 0.0
	for _, key := range keys {
		sum += 1 - math.Abs(a[key]-b[key])
	}
	return sum / float64(len(keys))
}

// lifestyleAffinity averages the lifestyle trait distances together with
// physical and financial proximity on the normalized height, weight and
// income scales. A scalar either side left undisclosed carries no signal
// and contributes the neutral midpoint.
func lifestyleAffinity(a, b *AttributeVector) float64 {
	sum := 0.0
	for _, key := range models.LifestyleKeys {
		sum += 1 - math.Abs(a.Lifestyle[key]-b.Lifestyle[key])
	}
	sum += scalarProximity(a.HeightNorm, a.HasHeight, b.HeightNorm, b.HasHeight)
	sum += scalarProximity(a.WeightNorm, a.HasWeight, b.WeightNorm, b.HasWeight)
	sum += scalarProximity(a.IncomeNorm, a.HasIncome, b.IncomeNorm, b.HasIncome)
	return sum / float64(len(models.LifestyleKeys)+3)
}

func scalarProximity(a float64, hasA bool, b float64, hasB bool) float64 {
	if !hasA || !hasB {
		return neutralValue
	}
	return 1 - math.Abs(a-b)
}

// culturalAffinity averages categorical matches across religion, caste,
// mother tongue, location, education tier and occupation category.
func culturalAffinity(a, b *AttributeVector) float64 {
	scores := []float64{
		categoricalMatch(a.Religion, b.Religion),
		categoricalMatch(a.Caste, b.Caste),
		categoricalMatch(a.MotherTongue, b.MotherTongue),
		locationMatch(a.Location, b.Location),
		educationMatch(a.EducationTier, b.EducationTier),
		occupationMatch(a.OccupationCategory, b.OccupationCategory),
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func categoricalMatch(a, b string) float64 {
	if a == "" || b == "" {
		return neutralValue
	}
	if a == b {
		return 1
	}
	return 0
}

// locationMatch gives partial credit when one location string contains the
// other, e.g. "mumbai" inside "mumbai, maharashtra".
func locationMatch(a, b string) float64 {
	if a == "" || b == "" {
		return neutralValue
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.75
	}
	return 0
}

func educationMatch(tierA, tierB int) float64 {
	if tierA == 0 || tierB == 0 {
		return neutralValue
	}
	return 1 - math.Abs(float64(tierA-tierB))/3
}

func occupationMatch(a, b string) float64 {
	if a == "" || b == "" {
		return neutralValue
	}
	if a == b {
		return 1
	}
	return 0.25
}

// preferenceSatisfaction is the fraction of recognized constraints in prefs
// that candidate satisfies. Constraints against attributes the candidate
// has not disclosed are skipped rather than failed; with no evaluable
// constraint there is no signal and the neutral midpoint applies.
func preferenceSatisfaction(prefs models.PreferenceMap, candidate *AttributeVector) float64 {
	checked, satisfied := 0, 0
	check := func(ok bool) {
		checked++
		if ok {
			satisfied++
		}
	}

	for key, value := range prefs {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case models.PrefAgeMin:
			if n, err := strconv.Atoi(value); err == nil {
				check(candidate.Age >= n)
			}
		case models.PrefAgeMax:
			if n, err := strconv.Atoi(value); err == nil {
				check(candidate.Age <= n)
			}
		case models.PrefHeightMin:
			if n, err := strconv.Atoi(value); err == nil && candidate.HasHeight {
				check(candidate.HeightCm >= n)
			}
		case models.PrefHeightMax:
			if n, err := strconv.Atoi(value); err == nil && candidate.HasHeight {
				check(candidate.HeightCm <= n)
			}
		case models.PrefGender:
			check(strings.EqualFold(value, candidate.Gender))
		case models.PrefReligion:
			if candidate.Religion != "" {
				check(strings.EqualFold(value, candidate.Religion))
			}
		case models.PrefCaste:
			if candidate.Caste != "" {
				check(strings.EqualFold(value, candidate.Caste))
			}
		case models.PrefMotherTongue:
			if candidate.MotherTongue != "" {
				check(strings.EqualFold(value, candidate.MotherTongue))
			}
		case models.PrefLocation:
			if candidate.Location != "" {
				check(locationMatch(canonical(value), candidate.Location) > 0)
			}
		case models.PrefEducation:
			if wantTier := educationTier(value); wantTier > 0 && candidate.EducationTier > 0 {
				check(candidate.EducationTier >= wantTier)
			}
		}
	}

	if checked == 0 {
		return neutralValue
	}
	return float64(satisfied) / float64(checked)
}

// dimensionLabels are the human phrasings used in generated insights.
var dimensionLabels = map[string]string{
	DimensionAge:              "age compatibility",
	DimensionInterests:        "shared interests",
	DimensionValues:           "shared values",
	DimensionLifestyle:        "lifestyle habits",
	DimensionPersonality:      "personality fit",
	DimensionCultural:         "cultural background",
	DimensionPreferencesSelf:  "your partner preferences",
	DimensionPreferencesOther: "their partner preferences",
}

// Insights renders a deterministic narrative from a breakdown: the two
// relatively strongest dimensions and the weakest one.
func (ss *ScoringService) Insights(breakdown map[string]int) string {
	type ranked struct {
		name     string
		relative float64
	}

	dims := make([]ranked, 0, len(scoringWeights))
	for _, dim := range scoringWeights {
		points, ok := breakdown[dim.Name]
		if !ok {
			continue
		}
		dims = append(dims, ranked{dim.Name, float64(points) / float64(dim.Weight)})
	}
	if len(dims) < 3 {
		return "Compatibility analysis completed."
	}

	sort.SliceStable(dims, func(i, j int) bool { return dims[i].relative > dims[j].relative })

	return fmt.Sprintf("Strong alignment on %s and %s. %s may take more effort to bridge.",
		dimensionLabels[dims[0].name],
		dimensionLabels[dims[1].name],
		capitalize(dimensionLabels[dims[len(dims)-1].name]))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
