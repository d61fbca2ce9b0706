package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"sangam_server/models"

	"github.com/google/uuid"
)

// MatchConfig carries the tunables of candidate generation.
type MatchConfig struct {
	// MaxResults caps how many matches one generation run returns.
	MaxResults int
	// CandidateScanLimit caps how many candidate profiles are scored per
	// run so a large pool cannot make a single request unbounded.
	CandidateScanLimit int
	// PageSize is the profile-store page size used while scanning.
	PageSize int32
	// PassCooldown is how long a passed match stays excluded before it may
	// be re-suggested.
	PassCooldown time.Duration
}

// LoadMatchConfig reads the tunables from the environment, falling back to
// defaults: 20 results, 200 scanned candidates, 30 day cooldown.
func LoadMatchConfig() MatchConfig {
	return MatchConfig{
		MaxResults:         envInt("MATCH_MAX_RESULTS", 20),
		CandidateScanLimit: envInt("MATCH_CANDIDATE_SCAN_LIMIT", 200),
		PageSize:           50,
		PassCooldown:       time.Duration(envInt("MATCH_PASS_COOLDOWN_DAYS", 30)) * 24 * time.Hour,
	}
}

func envInt(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid %s=%q, using %d", name, os.Getenv(name), fallback)
	}
	return fallback
}

// MatchService owns the match lifecycle: candidate generation, scoring
// orchestration, status transitions and pair consistency.
type MatchService struct {
	Profiles ProfileStore
	Matches  MatchStore
	Features *FeatureService
	Scoring  *ScoringService
	Config   MatchConfig
}

// NewMatchService wires a MatchService with the pure scoring components.
func NewMatchService(profiles ProfileStore, matches MatchStore, config MatchConfig) *MatchService {
	return &MatchService{
		Profiles: profiles,
		Matches:  matches,
		Features: &FeatureService{},
		Scoring:  &ScoringService{},
		Config:   config,
	}
}

// ScorePair computes the compatibility of two users on demand without
// touching stored matches.
func (ms *MatchService) ScorePair(ctx context.Context, userIDA, userIDB string) (int, map[string]int, error) {
	if userIDA == userIDB {
		return 0, nil, &models.ValidationError{Field: "userId", Reason: "cannot score a user against themselves"}
	}

	profileA, err := ms.Profiles.GetProfile(ctx, userIDA)
	if err != nil {
		return 0, nil, err
	}
	profileB, err := ms.Profiles.GetProfile(ctx, userIDB)
	if err != nil {
		return 0, nil, err
	}

	vectorA, err := ms.Features.ExtractFeatures(profileA)
	if err != nil {
		return 0, nil, err
	}
	vectorB, err := ms.Features.ExtractFeatures(profileB)
	if err != nil {
		return 0, nil, err
	}

	score, breakdown := ms.Scoring.Score(vectorA, vectorB, profileA.PartnerPreferences, profileB.PartnerPreferences)
	return score, breakdown, nil
}

// candidate holds one scored generation entry before ranking.
type candidate struct {
	profile   models.Profile
	score     int
	breakdown map[string]int
	stored    *models.Match // non-nil when an interested row already exists
}

// GenerateMatches scores eligible candidates for userID and returns the top
// matches ordered by score descending. Fresh candidates get suggested rows
// upserted in both directions with score-consistent breakdowns; rows the
// user already acted on (interested) are returned as stored, and mutual or
// recently passed pairs are excluded entirely.
func (ms *MatchService) GenerateMatches(ctx context.Context, userID string) ([]models.Match, error) {
	owner, err := ms.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	ownerVector, err := ms.Features.ExtractFeatures(owner)
	if err != nil {
		return nil, err
	}

	existingRows, err := ms.Matches.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]models.Match, len(existingRows))
	for _, row := range existingRows {
		existing[row.MatchedUserID] = row
	}

	candidates, err := ms.scanCandidates(ctx, owner, ownerVector, existing)
	if err != nil {
		return nil, err
	}

	// Rank: score desc, completeness desc, then id for determinism.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].profile.ProfileCompleteness != candidates[j].profile.ProfileCompleteness {
			return candidates[i].profile.ProfileCompleteness > candidates[j].profile.ProfileCompleteness
		}
		return candidates[i].profile.UserID < candidates[j].profile.UserID
	})
	if len(candidates) > ms.Config.MaxResults {
		candidates = candidates[:ms.Config.MaxResults]
	}

	matches := make([]models.Match, 0, len(candidates))
	for _, c := range candidates {
		if c.stored != nil {
			matches = append(matches, *c.stored)
			continue
		}

		insights := ms.Scoring.Insights(c.breakdown)
		row, err := ms.upsertSuggestedRow(ctx, userID, c.profile.UserID, c.score, c.breakdown, insights)
		if err != nil {
			return nil, err
		}

		// Mirror row so both directions stay score-consistent; the
		// directional preference entries trade places.
		mirrored := ms.Scoring.MirrorBreakdown(c.breakdown)
		if _, err := ms.upsertSuggestedRow(ctx, c.profile.UserID, userID, c.score, mirrored, ms.Scoring.Insights(mirrored)); err != nil {
			return nil, err
		}

		matches = append(matches, *row)
	}
	return matches, nil
}

// scanCandidates pages through active profiles until the scan budget is
// spent, scoring each eligible candidate.
func (ms *MatchService) scanCandidates(
	ctx context.Context,
	owner *models.Profile,
	ownerVector *AttributeVector,
	existing map[string]models.Match,
) ([]candidate, error) {
	filters := candidateFilters(owner.PartnerPreferences)

	var candidates []candidate
	scanned := 0
	token := ""
	for scanned < ms.Config.CandidateScanLimit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, next, err := ms.Profiles.ListActiveProfiles(ctx, owner.UserID, filters, ms.Config.PageSize, token)
		if err != nil {
			return nil, err
		}

		for i := range page {
			profile := page[i]
			scanned++
			if scanned > ms.Config.CandidateScanLimit {
				break
			}

			if row, ok := existing[profile.UserID]; ok {
				switch row.Status {
				case models.MatchStatusMutual:
					continue
				case models.MatchStatusPassed:
					if !ms.cooldownExpired(row) {
						continue
					}
				case models.MatchStatusInterested:
					stored := row
					candidates = append(candidates, candidate{profile: profile, score: row.CompatibilityScore, stored: &stored})
					continue
				}
			}

			vector, err := ms.Features.ExtractFeatures(&profile)
			if err != nil {
				// Candidates missing mandatory attributes are not scorable;
				// skip them rather than failing the whole run.
				continue
			}

			score, breakdown := ms.Scoring.Score(ownerVector, vector, owner.PartnerPreferences, profile.PartnerPreferences)
			candidates = append(candidates, candidate{profile: profile, score: score, breakdown: breakdown})
		}

		if next == "" {
			break
		}
		token = next
	}
	return candidates, nil
}

// candidateFilters derives store-side filters from the owner's partner
// preferences so obviously ineligible profiles never reach scoring.
func candidateFilters(prefs models.PreferenceMap) models.SearchFilters {
	filters := models.SearchFilters{Gender: prefs[models.PrefGender]}
	if n, err := strconv.Atoi(prefs[models.PrefAgeMin]); err == nil {
		filters.AgeMin = n
	}
	if n, err := strconv.Atoi(prefs[models.PrefAgeMax]); err == nil {
		filters.AgeMax = n
	}
	return filters
}

// upsertSuggestedRow creates or refreshes the suggested row for an ordered
// pair without ever clobbering a user-driven status. A concurrent creator
// winning the conditional put is reconciled by re-reading, not treated as
// fatal.
func (ms *MatchService) upsertSuggestedRow(ctx context.Context, userID, matchedUserID string, score int, breakdown map[string]int, insights string) (*models.Match, error) {
	row, err := ms.Matches.GetMatch(ctx, userID, matchedUserID)
	if err != nil {
		return nil, err
	}

	if row == nil {
		now := nowRFC3339()
		fresh := &models.Match{
			UserID:             userID,
			MatchedUserID:      matchedUserID,
			MatchID:            uuid.NewString(),
			CompatibilityScore: score,
			ScoreBreakdown:     breakdown,
			Insights:           insights,
			Status:             models.MatchStatusSuggested,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err := ms.Matches.PutMatchIfAbsent(ctx, fresh)
		if err == nil {
			return fresh, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		// Lost the race; fall through to the existing row.
		if row, err = ms.Matches.GetMatch(ctx, userID, matchedUserID); err != nil {
			return nil, err
		}
		if row == nil {
			return nil, &models.ConsistencyError{UserID: userID, MatchedUserID: matchedUserID, Reason: "row vanished after duplicate-pair conflict"}
		}
	}

	switch row.Status {
	case models.MatchStatusSuggested:
		return ms.refreshRow(ctx, row, score, breakdown, insights)
	case models.MatchStatusPassed:
		if ms.cooldownExpired(*row) {
			return ms.refreshRow(ctx, row, score, breakdown, insights)
		}
	}
	// interested, mutual, or passed-in-cooldown: user-driven state wins.
	return row, nil
}

// refreshRow rewrites score, breakdown and insights on an existing row,
// keeping its id and resetting it to suggested. Losing the conditional
// write means the status moved underneath us; the current row wins.
func (ms *MatchService) refreshRow(ctx context.Context, row *models.Match, score int, breakdown map[string]int, insights string) (*models.Match, error) {
	updated := *row
	updated.CompatibilityScore = score
	updated.ScoreBreakdown = breakdown
	updated.Insights = insights
	updated.Status = models.MatchStatusSuggested
	updated.PassedAt = ""
	updated.UpdatedAt = nowRFC3339()

	err := ms.Matches.RefreshSuggestion(ctx, &updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, ErrConditionFailed) {
		return nil, err
	}

	current, err := ms.Matches.GetMatch(ctx, row.UserID, row.MatchedUserID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &models.ConsistencyError{UserID: row.UserID, MatchedUserID: row.MatchedUserID, Reason: "row vanished during refresh"}
	}
	return current, nil
}

func (ms *MatchService) cooldownExpired(row models.Match) bool {
	stamp := row.PassedAt
	if stamp == "" {
		stamp = row.UpdatedAt
	}
	passedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return false
	}
	return time.Since(passedAt) >= ms.Config.PassCooldown
}

// MarkInterested transitions the ordered pair to interested, creating the
// row first when the user reaches out without a prior suggestion. Passed
// rows stay passed until the cooldown re-suggests them.
func (ms *MatchService) MarkInterested(ctx context.Context, userID, matchedUserID string) (*models.Match, error) {
	row, err := ms.Matches.GetMatch(ctx, userID, matchedUserID)
	if err != nil {
		return nil, err
	}

	if row == nil {
		score, breakdown, err := ms.ScorePair(ctx, userID, matchedUserID)
		if err != nil {
			return nil, err
		}
		now := nowRFC3339()
		fresh := &models.Match{
			UserID:             userID,
			MatchedUserID:      matchedUserID,
			MatchID:            uuid.NewString(),
			CompatibilityScore: score,
			ScoreBreakdown:     breakdown,
			Insights:           ms.Scoring.Insights(breakdown),
			Status:             models.MatchStatusInterested,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err = ms.Matches.PutMatchIfAbsent(ctx, fresh)
		if err == nil {
			return fresh, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		if row, err = ms.Matches.GetMatch(ctx, userID, matchedUserID); err != nil {
			return nil, err
		}
		if row == nil {
			return nil, &models.ConsistencyError{UserID: userID, MatchedUserID: matchedUserID, Reason: "row vanished after duplicate-pair conflict"}
		}
	}

	switch row.Status {
	case models.MatchStatusInterested, models.MatchStatusMutual:
		return row, nil
	case models.MatchStatusPassed:
		return nil, fmt.Errorf("match %s -> %s was passed: %w", userID, matchedUserID, models.ErrConflict)
	}

	err = ms.Matches.UpdateStatusIf(ctx, userID, matchedUserID,
		[]string{models.MatchStatusSuggested, models.MatchStatusInterested},
		models.MatchStatusInterested, "")
	if err != nil && !errors.Is(err, ErrConditionFailed) {
		return nil, err
	}
	return ms.Matches.GetMatch(ctx, userID, matchedUserID)
}

// PassMatch transitions the ordered pair to passed from any state and
// starts the cooldown clock.
func (ms *MatchService) PassMatch(ctx context.Context, userID, matchedUserID string) error {
	err := ms.Matches.UpdateStatusIf(ctx, userID, matchedUserID,
		[]string{models.MatchStatusSuggested, models.MatchStatusInterested, models.MatchStatusMutual, models.MatchStatusPassed},
		models.MatchStatusPassed, nowRFC3339())
	if errors.Is(err, ErrConditionFailed) {
		return &models.NotFoundError{Resource: "match", ID: userID + " -> " + matchedUserID}
	}
	return err
}

// PromoteMutual flips both directional rows to mutual, both-or-neither.
// Promoting an already-mutual pair succeeds. A failed condition means one
// side is no longer interested; the caller gets a conflict, never a
// half-promoted pair.
func (ms *MatchService) PromoteMutual(ctx context.Context, userA, userB string) error {
	err := ms.Matches.PromotePairMutual(ctx, userA, userB)
	if errors.Is(err, ErrConditionFailed) {
		return fmt.Errorf("cannot promote %s <-> %s to mutual: %w", userA, userB, models.ErrConflict)
	}
	return err
}

// GetMatches returns the user's match rows ordered by score descending,
// repairing one-sided mutual pairs on the way out.
func (ms *MatchService) GetMatches(ctx context.Context, userID string) ([]models.Match, error) {
	rows, err := ms.Matches.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if rows[i].Status != models.MatchStatusMutual {
			continue
		}
		if err := ms.repairReverseMutual(ctx, rows[i]); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CompatibilityScore != rows[j].CompatibilityScore {
			return rows[i].CompatibilityScore > rows[j].CompatibilityScore
		}
		return rows[i].MatchedUserID < rows[j].MatchedUserID
	})
	return rows, nil
}

// repairReverseMutual heals the partial-promotion signature: a mutual row
// whose reverse is still suggested/interested, or missing entirely. Passed
// reverses are a later user action and stay untouched.
func (ms *MatchService) repairReverseMutual(ctx context.Context, row models.Match) error {
	reverse, err := ms.Matches.GetMatch(ctx, row.MatchedUserID, row.UserID)
	if err != nil {
		return err
	}

	if reverse == nil {
		now := nowRFC3339()
		mirrored := ms.Scoring.MirrorBreakdown(row.ScoreBreakdown)
		repairRow := &models.Match{
			UserID:             row.MatchedUserID,
			MatchedUserID:      row.UserID,
			MatchID:            uuid.NewString(),
			CompatibilityScore: row.CompatibilityScore,
			ScoreBreakdown:     mirrored,
			Insights:           ms.Scoring.Insights(mirrored),
			Status:             models.MatchStatusMutual,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err := ms.Matches.PutMatchIfAbsent(ctx, repairRow)
		if err != nil && !errors.Is(err, models.ErrConflict) {
			return &models.ConsistencyError{UserID: row.MatchedUserID, MatchedUserID: row.UserID, Reason: err.Error()}
		}
		log.Printf("Repaired missing reverse row for mutual match %s <-> %s", row.UserID, row.MatchedUserID)
		return nil
	}

	switch reverse.Status {
	case models.MatchStatusMutual, models.MatchStatusPassed:
		return nil
	}

	err = ms.Matches.UpdateStatusIf(ctx, reverse.UserID, reverse.MatchedUserID,
		[]string{models.MatchStatusSuggested, models.MatchStatusInterested},
		models.MatchStatusMutual, "")
	if err != nil && !errors.Is(err, ErrConditionFailed) {
		return &models.ConsistencyError{UserID: reverse.UserID, MatchedUserID: reverse.MatchedUserID, Reason: err.Error()}
	}
	log.Printf("Repaired one-sided mutual match %s <-> %s", row.UserID, row.MatchedUserID)
	return nil
}
