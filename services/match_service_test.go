package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"sangam_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatchConfig() MatchConfig {
	return MatchConfig{
		MaxResults:         20,
		CandidateScanLimit: 200,
		PageSize:           50,
		PassCooldown:       30 * 24 * time.Hour,
	}
}

func newTestMatchService() (*MatchService, *memProfileStore, *memMatchStore) {
	profiles := newMemProfileStore()
	matches := newMemMatchStore()
	return NewMatchService(profiles, matches, testMatchConfig()), profiles, matches
}

// seedPool stores an owner and three candidates whose compatibility strictly
// decreases with the age gap: user-b > user-d > user-c.
func seedPool(profiles *memProfileStore) {
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	profiles.put(richProfile("user-b", 30, models.GenderMale))
	profiles.put(richProfile("user-c", 45, models.GenderMale))
	profiles.put(richProfile("user-d", 38, models.GenderMale))
}

func TestScorePairRejectsSelf(t *testing.T) {
	ms, profiles, _ := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))

	_, _, err := ms.ScorePair(context.Background(), "user-a", "user-a")
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestScorePairUnknownUser(t *testing.T) {
	ms, profiles, _ := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))

	_, _, err := ms.ScorePair(context.Background(), "user-a", "user-x")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGenerateMatchesRanksAndUpsertsBothDirections(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	seedPool(profiles)

	got, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "user-b", got[0].MatchedUserID)
	assert.Equal(t, "user-d", got[1].MatchedUserID)
	assert.Equal(t, "user-c", got[2].MatchedUserID)

	for _, match := range got {
		assert.Equal(t, "user-a", match.UserID)
		assert.Equal(t, models.MatchStatusSuggested, match.Status)
		assert.NotEmpty(t, match.MatchID)

		sum := 0
		for _, points := range match.ScoreBreakdown {
			sum += points
		}
		assert.Equal(t, match.CompatibilityScore, sum)

		// Reverse row carries the same score with the preference entries
		// swapped.
		reverse, ok := matches.get(match.MatchedUserID, "user-a")
		require.True(t, ok)
		assert.Equal(t, match.CompatibilityScore, reverse.CompatibilityScore)
		assert.Equal(t, models.MatchStatusSuggested, reverse.Status)
		assert.Equal(t, match.ScoreBreakdown[DimensionPreferencesSelf], reverse.ScoreBreakdown[DimensionPreferencesOther])
		assert.Equal(t, match.ScoreBreakdown[DimensionPreferencesOther], reverse.ScoreBreakdown[DimensionPreferencesSelf])
	}
}

func TestGenerateMatchesCapsResults(t *testing.T) {
	ms, profiles, _ := newTestMatchService()
	seedPool(profiles)
	ms.Config.MaxResults = 2

	got, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user-b", got[0].MatchedUserID)
	assert.Equal(t, "user-d", got[1].MatchedUserID)
}

func TestGenerateMatchesEmptyPool(t *testing.T) {
	ms, profiles, _ := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))

	got, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateMatchesSkipsUnscorableCandidates(t *testing.T) {
	ms, profiles, _ := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	profiles.put(models.Profile{UserID: "user-x", IsActive: true}) // no age, no gender
	profiles.put(richProfile("user-b", 30, models.GenderMale))

	got, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "user-b", got[0].MatchedUserID)
}

func TestGenerateMatchesRespectsExistingStates(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	seedPool(profiles)
	now := nowRFC3339()

	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-b",
		Status: models.MatchStatusMutual, CompatibilityScore: 90,
		CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-c", MatchID: "row-c",
		Status: models.MatchStatusPassed, CompatibilityScore: 40,
		PassedAt: now, CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-d", MatchID: "row-d",
		Status: models.MatchStatusInterested, CompatibilityScore: 55,
		CreatedAt: now, UpdatedAt: now,
	})

	got, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// The interested row comes back exactly as stored; mutual and
	// recently-passed pairs never resurface.
	assert.Equal(t, "user-d", got[0].MatchedUserID)
	assert.Equal(t, "row-d", got[0].MatchID)
	assert.Equal(t, models.MatchStatusInterested, got[0].Status)
	assert.Equal(t, 55, got[0].CompatibilityScore)
}

func TestGenerateMatchesResuggestsAfterCooldown(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	profiles.put(richProfile("user-b", 30, models.GenderMale))

	passedAt := time.Now().UTC().Add(-31 * 24 * time.Hour).Format(time.RFC3339)
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-keep",
		Status: models.MatchStatusPassed, CompatibilityScore: 40,
		PassedAt: passedAt, CreatedAt: passedAt, UpdatedAt: passedAt,
	})

	got, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Expired cooldown re-suggests the pair on the same row.
	assert.Equal(t, "row-keep", got[0].MatchID)
	assert.Equal(t, models.MatchStatusSuggested, got[0].Status)
	assert.Empty(t, got[0].PassedAt)
}

func TestGenerateMatchesIsIdempotent(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	seedPool(profiles)

	first, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)
	second, err := ms.GenerateMatches(context.Background(), "user-a")
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].MatchedUserID, second[i].MatchedUserID)
		assert.Equal(t, first[i].MatchID, second[i].MatchID, "row id survives regeneration")
		assert.Equal(t, first[i].CompatibilityScore, second[i].CompatibilityScore)
	}

	rows, err := matches.ListMatches(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Len(t, rows, len(first))
}

func TestMarkInterestedCreatesRowWhenMissing(t *testing.T) {
	ms, profiles, _ := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	profiles.put(richProfile("user-b", 30, models.GenderMale))

	row, err := ms.MarkInterested(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInterested, row.Status)
	assert.Greater(t, row.CompatibilityScore, 0)

	again, err := ms.MarkInterested(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, row.MatchID, again.MatchID)
	assert.Equal(t, models.MatchStatusInterested, again.Status)
}

func TestMarkInterestedPromotesSuggestedRow(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	profiles.put(richProfile("user-b", 30, models.GenderMale))
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusSuggested, CompatibilityScore: 80,
		CreatedAt: now, UpdatedAt: now,
	})

	row, err := ms.MarkInterested(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, "row-1", row.MatchID)
	assert.Equal(t, models.MatchStatusInterested, row.Status)
}

func TestMarkInterestedOnPassedRowConflicts(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	profiles.put(richProfile("user-b", 30, models.GenderMale))
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusPassed, PassedAt: now,
		CreatedAt: now, UpdatedAt: now,
	})

	_, err := ms.MarkInterested(context.Background(), "user-a", "user-b")
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestPassMatch(t *testing.T) {
	ms, profiles, matches := newTestMatchService()
	profiles.put(richProfile("user-a", 28, models.GenderFemale))
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusSuggested, CreatedAt: now, UpdatedAt: now,
	})

	require.NoError(t, ms.PassMatch(context.Background(), "user-a", "user-b"))

	row, ok := matches.get("user-a", "user-b")
	require.True(t, ok)
	assert.Equal(t, models.MatchStatusPassed, row.Status)
	assert.NotEmpty(t, row.PassedAt)
}

func TestPassMatchUnknownPair(t *testing.T) {
	ms, _, _ := newTestMatchService()

	err := ms.PassMatch(context.Background(), "user-a", "user-b")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestPromoteMutual(t *testing.T) {
	ms, _, matches := newTestMatchService()
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusInterested, CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-b", MatchedUserID: "user-a", MatchID: "row-2",
		Status: models.MatchStatusInterested, CreatedAt: now, UpdatedAt: now,
	})

	require.NoError(t, ms.PromoteMutual(context.Background(), "user-a", "user-b"))

	forward, _ := matches.get("user-a", "user-b")
	reverse, _ := matches.get("user-b", "user-a")
	assert.Equal(t, models.MatchStatusMutual, forward.Status)
	assert.Equal(t, models.MatchStatusMutual, reverse.Status)
}

func TestPromoteMutualIdempotent(t *testing.T) {
	ms, _, matches := newTestMatchService()
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusMutual, CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-b", MatchedUserID: "user-a", MatchID: "row-2",
		Status: models.MatchStatusMutual, CreatedAt: now, UpdatedAt: now,
	})

	// Re-promoting a promoted pair is not a conflict.
	require.NoError(t, ms.PromoteMutual(context.Background(), "user-a", "user-b"))

	forward, _ := matches.get("user-a", "user-b")
	reverse, _ := matches.get("user-b", "user-a")
	assert.Equal(t, models.MatchStatusMutual, forward.Status)
	assert.Equal(t, models.MatchStatusMutual, reverse.Status)
}

func TestPromoteMutualBothOrNeither(t *testing.T) {
	ms, _, matches := newTestMatchService()
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusInterested, CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-b", MatchedUserID: "user-a", MatchID: "row-2",
		Status: models.MatchStatusSuggested, CreatedAt: now, UpdatedAt: now,
	})

	err := ms.PromoteMutual(context.Background(), "user-a", "user-b")
	assert.True(t, errors.Is(err, models.ErrConflict))

	// Neither side moved.
	forward, _ := matches.get("user-a", "user-b")
	reverse, _ := matches.get("user-b", "user-a")
	assert.Equal(t, models.MatchStatusInterested, forward.Status)
	assert.Equal(t, models.MatchStatusSuggested, reverse.Status)
}

func TestGetMatchesSortsByScore(t *testing.T) {
	ms, _, matches := newTestMatchService()
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusSuggested, CompatibilityScore: 40,
		CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-c", MatchID: "row-2",
		Status: models.MatchStatusInterested, CompatibilityScore: 75,
		CreatedAt: now, UpdatedAt: now,
	})

	got, err := ms.GetMatches(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user-c", got[0].MatchedUserID)
	assert.Equal(t, "user-b", got[1].MatchedUserID)
}

func TestGetMatchesRepairsOneSidedMutual(t *testing.T) {
	ms, _, matches := newTestMatchService()
	now := nowRFC3339()
	breakdown := map[string]int{
		DimensionAge: 10, DimensionInterests: 10, DimensionValues: 8,
		DimensionLifestyle: 8, DimensionPersonality: 8, DimensionCultural: 8,
		DimensionPreferencesSelf: 14, DimensionPreferencesOther: 6,
	}

	// Reverse stuck in interested.
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusMutual, CompatibilityScore: 72,
		ScoreBreakdown: breakdown, CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-b", MatchedUserID: "user-a", MatchID: "row-2",
		Status: models.MatchStatusInterested, CompatibilityScore: 72,
		CreatedAt: now, UpdatedAt: now,
	})
	// Reverse missing entirely.
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-c", MatchID: "row-3",
		Status: models.MatchStatusMutual, CompatibilityScore: 64,
		ScoreBreakdown: breakdown, CreatedAt: now, UpdatedAt: now,
	})

	_, err := ms.GetMatches(context.Background(), "user-a")
	require.NoError(t, err)

	repaired, ok := matches.get("user-b", "user-a")
	require.True(t, ok)
	assert.Equal(t, models.MatchStatusMutual, repaired.Status)

	created, ok := matches.get("user-c", "user-a")
	require.True(t, ok)
	assert.Equal(t, models.MatchStatusMutual, created.Status)
	assert.Equal(t, 64, created.CompatibilityScore)
	assert.Equal(t, breakdown[DimensionPreferencesSelf], created.ScoreBreakdown[DimensionPreferencesOther])
}

func TestGetMatchesLeavesPassedReverseAlone(t *testing.T) {
	ms, _, matches := newTestMatchService()
	now := nowRFC3339()
	matches.seed(models.Match{
		UserID: "user-a", MatchedUserID: "user-b", MatchID: "row-1",
		Status: models.MatchStatusMutual, CompatibilityScore: 70,
		CreatedAt: now, UpdatedAt: now,
	})
	matches.seed(models.Match{
		UserID: "user-b", MatchedUserID: "user-a", MatchID: "row-2",
		Status: models.MatchStatusPassed, PassedAt: now,
		CreatedAt: now, UpdatedAt: now,
	})

	_, err := ms.GetMatches(context.Background(), "user-a")
	require.NoError(t, err)

	reverse, _ := matches.get("user-b", "user-a")
	assert.Equal(t, models.MatchStatusPassed, reverse.Status)
}

func TestLoadMatchConfigDefaults(t *testing.T) {
	t.Setenv("MATCH_MAX_RESULTS", "")
	t.Setenv("MATCH_CANDIDATE_SCAN_LIMIT", "")
	t.Setenv("MATCH_PASS_COOLDOWN_DAYS", "")

	config := LoadMatchConfig()
	assert.Equal(t, 20, config.MaxResults)
	assert.Equal(t, 200, config.CandidateScanLimit)
	assert.Equal(t, 30*24*time.Hour, config.PassCooldown)
}

func TestLoadMatchConfigOverrides(t *testing.T) {
	t.Setenv("MATCH_MAX_RESULTS", "5")
	t.Setenv("MATCH_PASS_COOLDOWN_DAYS", "7")

	config := LoadMatchConfig()
	assert.Equal(t, 5, config.MaxResults)
	assert.Equal(t, 7*24*time.Hour, config.PassCooldown)
}
